//go:build darwin || freebsd || linux

package blockdevice

import (
	"github.com/buildbarn/bb-blockbuffer/pkg/util"

	"golang.org/x/sys/unix"
)

// NewBlockDeviceFromFile creates a BlockDevice that is backed by a
// regular file stored in a file system. The file is created if it does
// not exist yet, and is grown to hold at least minimumSizeBytes. It is
// never shrunk, meaning existing data is preserved.
//
// The block size returned by fstat() is used as the sector size. When
// directIO is set, the file is opened with O_DIRECT, bypassing the page
// cache. All I/O must then be aligned to the sector size.
func NewBlockDeviceFromFile(path string, minimumSizeBytes int64, directIO bool) (BlockDevice, int, int64, error) {
	flags := unix.O_CREAT | unix.O_RDWR | unix.O_CLOEXEC
	if directIO {
		directIOFlag, err := getDirectIOOpenFlag()
		if err != nil {
			return nil, 0, 0, err
		}
		flags |= directIOFlag
	}
	fd, err := unix.Open(path, flags, 0o666)
	if err != nil {
		return nil, 0, 0, util.StatusWrapf(err, "Failed to open file %#v", path)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, 0, 0, util.StatusWrapf(err, "Failed to obtain size of file %#v", path)
	}
	sectorSizeBytes := int64(stat.Blksize)
	sizeBytes := stat.Size
	if sizeBytes < minimumSizeBytes {
		sizeBytes = minimumSizeBytes
	}
	sectorCount := (sizeBytes + sectorSizeBytes - 1) / sectorSizeBytes
	if paddedSizeBytes := sectorCount * sectorSizeBytes; paddedSizeBytes != stat.Size {
		if err := unix.Ftruncate(fd, paddedSizeBytes); err != nil {
			unix.Close(fd)
			return nil, 0, 0, util.StatusWrapf(err, "Failed to truncate file %#v to %d bytes", path, paddedSizeBytes)
		}
	}
	return &fileBlockDevice{fd: fd}, int(sectorSizeBytes), sectorCount, nil
}
