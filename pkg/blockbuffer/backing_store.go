package blockbuffer

// BackingStore is the object on whose behalf a Buffer performs I/O. It
// is only capable of transferring whole blocks, starting at its current
// location. Implementations keep track of their own location, which
// is moved past the blocks that are transferred.
//
// Buffer always calls ReadBlocks() and WriteBlocks() with a slice whose
// length is a multiple of the block size, and whose address is aligned
// to the buffer alignment that was provided to NewBuffer().
//
// Transferring fewer blocks than requested is not an error. For reads
// it indicates that the end of the data has been reached. For writes it
// indicates that the store cannot accept any more data.
type BackingStore interface {
	// ReadBlocks reads len(p) bytes worth of blocks into p,
	// returning the number of blocks read.
	ReadBlocks(p []byte) (int, error)

	// WriteBlocks writes len(p) bytes worth of blocks from p,
	// returning the number of blocks written.
	WriteBlocks(p []byte) (int, error)

	// SeekBlock moves the current location to the provided block,
	// returning the resulting location. The resulting location may
	// differ from the requested one, for example when seeking past
	// the end of the store. Block zero is the start of the store.
	SeekBlock(location int64) (int64, error)
}
