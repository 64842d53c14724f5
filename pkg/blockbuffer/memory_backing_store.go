package blockbuffer

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MemoryBackingStore is a BackingStore that keeps its data in memory.
// It grows as data is written to it, up to a maximum number of blocks.
// Reading past the end of the data yields no blocks.
type MemoryBackingStore struct {
	blockSizeBytes int
	maximumBlocks  int64
	data           []byte
	location       int64
}

var _ BackingStore = (*MemoryBackingStore)(nil)

// NewMemoryBackingStore creates a MemoryBackingStore that is initially
// empty.
func NewMemoryBackingStore(blockSizeBytes int, maximumBlocks int64) *MemoryBackingStore {
	return &MemoryBackingStore{
		blockSizeBytes: blockSizeBytes,
		maximumBlocks:  maximumBlocks,
	}
}

// NewMemoryBackingStoreWithData creates a MemoryBackingStore that
// contains a copy of the provided data. The data is padded with zero
// bytes to a multiple of the block size.
func NewMemoryBackingStoreWithData(blockSizeBytes int, maximumBlocks int64, data []byte) *MemoryBackingStore {
	blocks := (len(data) + blockSizeBytes - 1) / blockSizeBytes
	bs := NewMemoryBackingStore(blockSizeBytes, maximumBlocks)
	bs.data = make([]byte, blocks*blockSizeBytes)
	copy(bs.data, data)
	return bs
}

// Bytes returns the data contained in the store.
func (bs *MemoryBackingStore) Bytes() []byte {
	return bs.data
}

func (bs *MemoryBackingStore) blockCount() int64 {
	return int64(len(bs.data) / bs.blockSizeBytes)
}

// ReadBlocks copies blocks starting at the current location into p.
func (bs *MemoryBackingStore) ReadBlocks(p []byte) (int, error) {
	blocks := int64(len(p) / bs.blockSizeBytes)
	if available := bs.blockCount() - bs.location; blocks > available {
		blocks = available
	}
	if blocks <= 0 {
		return 0, nil
	}
	offset := bs.location * int64(bs.blockSizeBytes)
	copy(p, bs.data[offset:offset+blocks*int64(bs.blockSizeBytes)])
	bs.location += blocks
	return int(blocks), nil
}

// WriteBlocks copies blocks from p to the current location, growing the
// store if needed. Gaps between the old end of the data and the current
// location are filled with zero bytes.
func (bs *MemoryBackingStore) WriteBlocks(p []byte) (int, error) {
	blocks := int64(len(p) / bs.blockSizeBytes)
	if available := bs.maximumBlocks - bs.location; blocks > available {
		blocks = available
	}
	if blocks <= 0 {
		return 0, nil
	}
	if end := bs.location + blocks; end > bs.blockCount() {
		bs.data = append(bs.data, make([]byte, (end-bs.blockCount())*int64(bs.blockSizeBytes))...)
	}
	offset := bs.location * int64(bs.blockSizeBytes)
	copy(bs.data[offset:], p[:blocks*int64(bs.blockSizeBytes)])
	bs.location += blocks
	return int(blocks), nil
}

// SeekBlock moves the current location. Locations past the maximum
// size of the store are clamped.
func (bs *MemoryBackingStore) SeekBlock(location int64) (int64, error) {
	if location < 0 {
		return bs.location, status.Errorf(codes.InvalidArgument, "Cannot seek to negative block %d", location)
	}
	if location > bs.maximumBlocks {
		location = bs.maximumBlocks
	}
	bs.location = location
	return location, nil
}
