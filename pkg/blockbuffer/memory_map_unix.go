//go:build darwin || freebsd || linux

package blockbuffer

import (
	"github.com/buildbarn/bb-blockbuffer/pkg/util"

	"golang.org/x/sys/unix"
)

// NewMemoryMappedMemory allocates memory outside of the Go heap using
// an anonymous memory map. The memory is page aligned, which makes it
// suitable for backing stores that perform DMA, such as block devices
// opened with O_DIRECT. The returned function releases the memory.
func NewMemoryMappedMemory(sizeBytes int) ([]byte, func() error, error) {
	data, err := unix.Mmap(-1, 0, sizeBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, util.StatusWrapf(err, "Failed to create memory map of %d bytes", sizeBytes)
	}
	return data, func() error {
		if err := unix.Munmap(data); err != nil {
			return util.StatusWrap(err, "Failed to unmap memory")
		}
		return nil
	}, nil
}
