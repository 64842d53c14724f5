package blockbuffer

import (
	"io"

	"github.com/buildbarn/bb-blockbuffer/pkg/util"
)

type readWriteSeekerBackingStore struct {
	readWriteSeeker io.ReadWriteSeeker
	blockSizeBytes  int
}

// NewReadWriteSeekerBackingStore creates a BackingStore on top of a
// stream that supports seeking, such as an *os.File. If the size of the
// stream is not a multiple of the block size, its final block is
// padded with zero bytes when read.
func NewReadWriteSeekerBackingStore(readWriteSeeker io.ReadWriteSeeker, blockSizeBytes int) BackingStore {
	return &readWriteSeekerBackingStore{
		readWriteSeeker: readWriteSeeker,
		blockSizeBytes:  blockSizeBytes,
	}
}

func (bs *readWriteSeekerBackingStore) ReadBlocks(p []byte) (int, error) {
	n, err := io.ReadFull(bs.readWriteSeeker, p)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil {
		return n / bs.blockSizeBytes, util.StatusWrap(err, "Failed to read blocks")
	}
	if partial := n % bs.blockSizeBytes; partial > 0 {
		clear(p[n : n+bs.blockSizeBytes-partial])
		n += bs.blockSizeBytes - partial
	}
	return n / bs.blockSizeBytes, nil
}

func (bs *readWriteSeekerBackingStore) WriteBlocks(p []byte) (int, error) {
	n, err := bs.readWriteSeeker.Write(p)
	if err != nil {
		return n / bs.blockSizeBytes, util.StatusWrap(err, "Failed to write blocks")
	}
	return n / bs.blockSizeBytes, nil
}

func (bs *readWriteSeekerBackingStore) SeekBlock(location int64) (int64, error) {
	offset, err := bs.readWriteSeeker.Seek(location*int64(bs.blockSizeBytes), io.SeekStart)
	if err != nil {
		return -1, util.StatusWrapf(err, "Failed to seek to block %d", location)
	}
	return offset / int64(bs.blockSizeBytes), nil
}
