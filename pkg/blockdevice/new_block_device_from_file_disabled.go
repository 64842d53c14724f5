//go:build !darwin && !freebsd && !linux

package blockdevice

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewBlockDeviceFromFile creates a BlockDevice that is backed by a
// regular file stored in a file system. This implementation is a stub
// for operating systems that don't support pread() and pwrite().
func NewBlockDeviceFromFile(path string, minimumSizeBytes int64, directIO bool) (BlockDevice, int, int64, error) {
	return nil, 0, 0, status.Error(codes.Unimplemented, "Block devices backed by files are not supported on this platform")
}
