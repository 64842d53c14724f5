package blockdevice

import (
	"io"
	"os"
)

// ReadWriterAt is an interface for reading from/writing to a storage
// medium at explicit offsets, without any notion of a current location.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// BlockDevice is an interface for interacting with a block device like
// storage medium of fixed size. Storage media tend to store data in
// sectors, which cannot be read or written partially. When opened for
// direct I/O, ReadAt() and WriteAt() even require offsets, sizes and
// memory addresses to be sector aligned. Buffers from package
// blockbuffer can be used to access such devices at arbitrary offsets.
//
// Because of caching, writes may not be applied against the underlying
// storage medium immediately. The Sync() function can be used to block
// execution until all previous writes are persisted.
type BlockDevice interface {
	ReadWriterAt
	io.Closer

	Sync() error
}

var _ BlockDevice = (*os.File)(nil)
