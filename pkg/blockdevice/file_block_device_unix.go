//go:build darwin || freebsd || linux

package blockdevice

import (
	"io"

	"golang.org/x/sys/unix"
)

// fileBlockDevice is a BlockDevice that performs I/O through a file
// descriptor using pread() and pwrite(). Unlike os.File, it does not
// register the descriptor with the runtime's poller, which is not
// supported for descriptors opened with O_DIRECT.
type fileBlockDevice struct {
	fd int
}

func (bd *fileBlockDevice) ReadAt(p []byte, off int64) (int, error) {
	nTotal := 0
	for len(p) > 0 {
		n, err := unix.Pread(bd.fd, p, off)
		if err != nil {
			return nTotal, err
		}
		if n == 0 {
			return nTotal, io.EOF
		}
		nTotal += n
		p = p[n:]
		off += int64(n)
	}
	return nTotal, nil
}

func (bd *fileBlockDevice) WriteAt(p []byte, off int64) (int, error) {
	// The pwrite() system call cannot return a size and error at
	// the same time. If an error occurs after one or more bytes are
	// written, it returns the size without an error. As WriteAt()
	// must return an error in those cases, we must invoke pwrite()
	// repeatedly.
	nTotal := 0
	for len(p) > 0 {
		n, err := unix.Pwrite(bd.fd, p, off)
		if err != nil {
			return nTotal, err
		}
		nTotal += n
		p = p[n:]
		off += int64(n)
	}
	return nTotal, nil
}

func (bd *fileBlockDevice) Sync() error {
	return unix.Fsync(bd.fd)
}

func (bd *fileBlockDevice) Close() error {
	return unix.Close(bd.fd)
}
