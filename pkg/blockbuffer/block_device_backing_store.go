package blockbuffer

import (
	"io"

	"github.com/buildbarn/bb-blockbuffer/pkg/blockdevice"
	"github.com/buildbarn/bb-blockbuffer/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type blockDeviceBackingStore struct {
	blockDevice    blockdevice.ReadWriterAt
	blockSizeBytes int64
	blockCount     int64
	location       int64
}

// NewBlockDeviceBackingStore creates a BackingStore on top of a
// BlockDevice or any other storage medium that supports positional
// reads and writes. The store keeps track of its own location, meaning
// that multiple stores may share the same block device.
//
// The size of the block device is fixed. Reads and writes past its end
// transfer fewer blocks than requested.
func NewBlockDeviceBackingStore(blockDevice blockdevice.ReadWriterAt, blockSizeBytes int, blockCount int64) BackingStore {
	return &blockDeviceBackingStore{
		blockDevice:    blockDevice,
		blockSizeBytes: int64(blockSizeBytes),
		blockCount:     blockCount,
	}
}

func (bs *blockDeviceBackingStore) limitBlocks(p []byte) []byte {
	blocks := int64(len(p)) / bs.blockSizeBytes
	if available := bs.blockCount - bs.location; blocks > available {
		blocks = available
	}
	if blocks < 0 {
		blocks = 0
	}
	return p[:blocks*bs.blockSizeBytes]
}

func (bs *blockDeviceBackingStore) ReadBlocks(p []byte) (int, error) {
	p = bs.limitBlocks(p)
	if len(p) == 0 {
		return 0, nil
	}
	location := bs.location
	n, err := bs.blockDevice.ReadAt(p, location*bs.blockSizeBytes)
	blocks := int64(n) / bs.blockSizeBytes
	bs.location += blocks
	if err != nil && err != io.EOF {
		return int(blocks), util.StatusWrapf(err, "Failed to read from block device at block %d", location)
	}
	return int(blocks), nil
}

func (bs *blockDeviceBackingStore) WriteBlocks(p []byte) (int, error) {
	p = bs.limitBlocks(p)
	if len(p) == 0 {
		return 0, nil
	}
	location := bs.location
	n, err := bs.blockDevice.WriteAt(p, location*bs.blockSizeBytes)
	blocks := int64(n) / bs.blockSizeBytes
	bs.location += blocks
	if err != nil {
		return int(blocks), util.StatusWrapf(err, "Failed to write to block device at block %d", location)
	}
	return int(blocks), nil
}

func (bs *blockDeviceBackingStore) SeekBlock(location int64) (int64, error) {
	if location < 0 {
		return bs.location, status.Errorf(codes.InvalidArgument, "Cannot seek to negative block %d", location)
	}
	if location > bs.blockCount {
		location = bs.blockCount
	}
	bs.location = location
	return location, nil
}
