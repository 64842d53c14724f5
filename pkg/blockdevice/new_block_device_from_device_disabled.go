//go:build !freebsd && !linux

package blockdevice

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewBlockDeviceFromDevice opens a block device node, so that it may be
// accessed using positional reads and writes. This implementation is a
// stub for operating systems for which obtaining the geometry of block
// devices is not implemented.
func NewBlockDeviceFromDevice(path string, directIO bool) (BlockDevice, int, int64, error) {
	return nil, 0, 0, status.Error(codes.Unimplemented, "Opening block devices is not supported on this platform")
}
