package blockdevice_test

import (
	"testing"

	"github.com/buildbarn/bb-blockbuffer/pkg/blockdevice"
	"github.com/buildbarn/bb-blockbuffer/pkg/testutil"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNewBlockDeviceFromConfiguration(t *testing.T) {
	t.Run("NoConfiguration", func(t *testing.T) {
		_, _, _, err := blockdevice.NewBlockDeviceFromConfiguration(nil)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Block device configuration not specified"), err)
	})

	t.Run("NoSource", func(t *testing.T) {
		_, _, _, err := blockdevice.NewBlockDeviceFromConfiguration(&blockdevice.Configuration{})
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Configuration did not contain a supported block device source"), err)
	})

	t.Run("MultipleSources", func(t *testing.T) {
		_, _, _, err := blockdevice.NewBlockDeviceFromConfiguration(&blockdevice.Configuration{
			DevicePath: "/dev/sdb",
			File: &blockdevice.FileConfiguration{
				Path:      "/tmp/disk.img",
				SizeBytes: 1024,
			},
		})
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Block device configuration cannot contain both a device path and a file"), err)
	})
}
