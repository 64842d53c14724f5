//go:build linux

package blockdevice

import (
	"unsafe"

	"github.com/buildbarn/bb-blockbuffer/pkg/util"

	"golang.org/x/sys/unix"
)

// NewBlockDeviceFromDevice opens a block device node, so that it may be
// accessed using positional reads and writes. The logical sector size
// of the device and the total number of sectors are also returned. It
// may be assumed that these remain constant over the lifetime of the
// block device and process.
func NewBlockDeviceFromDevice(path string, directIO bool) (BlockDevice, int, int64, error) {
	flags := unix.O_RDWR | unix.O_CLOEXEC
	if directIO {
		flags |= unix.O_DIRECT
	}
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return nil, 0, 0, util.StatusWrapf(err, "Failed to open device node %#v", path)
	}

	// Obtain the size of the device and its individual sectors.
	sectorSizeBytes, err := unix.IoctlGetInt(fd, unix.BLKSSZGET)
	if err != nil {
		unix.Close(fd)
		return nil, 0, 0, util.StatusWrapf(err, "Failed to obtain sector size of device %#v", path)
	}
	var deviceSizeBytes int64
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&deviceSizeBytes))); errno != 0 {
		unix.Close(fd)
		return nil, 0, 0, util.StatusWrapf(errno, "Failed to obtain size of device %#v", path)
	}
	return &fileBlockDevice{fd: fd}, sectorSizeBytes, deviceSizeBytes / int64(sectorSizeBytes), nil
}
