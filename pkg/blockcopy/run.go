package blockcopy

import (
	"context"
	"log"

	"github.com/buildbarn/bb-blockbuffer/pkg/blockbuffer"
	"github.com/buildbarn/bb-blockbuffer/pkg/blockdevice"
	"github.com/buildbarn/bb-blockbuffer/pkg/clock"
	"github.com/buildbarn/bb-blockbuffer/pkg/util"

	"golang.org/x/sync/errgroup"
)

// BufferFactory creates the Buffer that is used by a single transfer.
// The returned function releases the buffer's memory.
type BufferFactory func(transfer *Transfer) (*blockbuffer.Buffer, func() error, error)

// NewBlockDeviceBufferFactory creates a BufferFactory that places
// buffers on top of a shared block device. Every buffer has a backing
// store of its own, which is instrumented with Prometheus metrics.
func NewBlockDeviceBufferFactory(configuration *blockbuffer.Configuration, blockDevice blockdevice.ReadWriterAt, sectorSizeBytes int, sizeBytes int64, clock clock.Clock) BufferFactory {
	return func(transfer *Transfer) (*blockbuffer.Buffer, func() error, error) {
		transferConfiguration := *configuration
		transferConfiguration.Flags = transfer.Flags(configuration.Flags)
		return blockbuffer.NewBufferFromConfiguration(
			&transferConfiguration,
			sectorSizeBytes,
			func(blockSizeBytes int) blockbuffer.BackingStore {
				return blockbuffer.NewMetricsBackingStore(
					blockbuffer.NewBlockDeviceBackingStore(blockDevice, blockSizeBytes, sizeBytes/int64(blockSizeBytes)),
					clock,
					blockSizeBytes,
					transfer.Direction.String())
			})
	}
}

// scratchBuffers is the number of buffer sizes of scratch space that
// is used to copy data between buffers and local files.
const scratchBuffers = 4

func runTransfer(ctx context.Context, transfer *Transfer, bufferFactory BufferFactory) (digest []byte, err error) {
	b, release, err := bufferFactory(transfer)
	if err != nil {
		return nil, util.StatusWrap(err, "Failed to create buffer")
	}
	defer func() {
		if releaseErr := release(); releaseErr != nil {
			releaseErr = util.StatusWrap(releaseErr, "Failed to release buffer memory")
			if err == nil {
				digest, err = nil, releaseErr
			} else {
				err = util.StatusFromMultiple([]error{err, releaseErr})
			}
		}
	}()

	scratch, err := blockbuffer.NewAlignedMemory(scratchBuffers*b.CapacityBytes(), b.BufferAlignmentBytes())
	if err != nil {
		return nil, util.StatusWrap(err, "Failed to allocate scratch space")
	}
	return transfer.Run(ctx, b, scratch)
}

// RunTransfers runs a list of transfers in parallel, each using a
// buffer of its own. The first transfer to fail causes all other
// transfers to be canceled.
func RunTransfers(ctx context.Context, transfers []Transfer, maximumConcurrency int, bufferFactory BufferFactory) error {
	group, groupCtx := errgroup.WithContext(ctx)
	if maximumConcurrency > 0 {
		group.SetLimit(maximumConcurrency)
	}
	for i := range transfers {
		transfer := &transfers[i]
		group.Go(func() error {
			digest, err := runTransfer(groupCtx, transfer, bufferFactory)
			if err != nil {
				return util.StatusWrapf(err, "Transfer %d", i)
			}
			log.Printf("%s of %d bytes at offset %d for %#v completed with BLAKE3 hash %x", transfer.Direction, transfer.SizeBytes, transfer.OffsetBytes, transfer.LocalPath, digest)
			return nil
		})
	}
	return group.Wait()
}
