package blockbuffer

import (
	"io"
	"sync"
	"unsafe"

	"github.com/buildbarn/bb-blockbuffer/pkg/util"
	"github.com/prometheus/client_golang/prometheus"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Flags that alter the way a Buffer interacts with its BackingStore.
type Flags uint32

const (
	// FlagReadOnly causes calls to Write() to fail.
	FlagReadOnly Flags = 1 << iota
	// FlagWriteOnly causes calls to Read() to fail.
	FlagWriteOnly
	// FlagNoDirectIO prevents large reads and writes from bypassing
	// the buffer, even if the caller's memory is properly aligned.
	// This is needed when the backing store can only access a
	// restricted address space.
	FlagNoDirectIO
	// FlagNoFills prevents the buffer from ever being loaded from
	// the backing store. Partially written blocks are padded with
	// zero bytes instead of being merged with existing data.
	FlagNoFills
	// FlagRandomAccess indicates that most I/O is not sequential.
	// Seeking outside of the buffer no longer loads the new window
	// immediately. Instead, it is loaded by the first Read() or
	// Write() that needs its contents.
	FlagRandomAccess
)

var (
	bufferPrometheusMetrics sync.Once

	bufferOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "blockbuffer",
			Name:      "buffer_operations_total",
			Help:      "Number of fills, flushes and direct transfers performed by Buffer against its backing store",
		},
		[]string{"operation"})
	bufferOperationsFill        = bufferOperationsTotal.WithLabelValues("Fill")
	bufferOperationsFlush       = bufferOperationsTotal.WithLabelValues("Flush")
	bufferOperationsDirectRead  = bufferOperationsTotal.WithLabelValues("DirectRead")
	bufferOperationsDirectWrite = bufferOperationsTotal.WithLabelValues("DirectWrite")
)

// Buffer permits reads, writes and seeks of arbitrary size and
// alignment against a BackingStore that only supports transferring
// whole blocks, starting at sector boundaries, to and from aligned
// memory.
//
// The buffer holds a single window of the backing store's address
// space. Bytes are copied in and out of the window, which is filled
// from and flushed to the backing store as the cursor moves past it.
// Transfers that span at least a full buffer may bypass the window
// altogether.
//
// Buffer is not safe for concurrent use.
type Buffer struct {
	store               BackingStore
	memory              []byte
	capacityBlocks      int
	blockSizeBytes      int
	sectorAlignmentMask int64
	bufferAlignmentMask uintptr
	flags               Flags

	// Offset in memory at which the next byte is read or written.
	cursor int
	// Location of memory[0] in the backing store, in blocks.
	windowStart int64
	// Number of blocks at the start of memory that hold data.
	validBlocks int
	// Whether memory[:validBlocks*blockSizeBytes] contains data that
	// has not been written to the backing store.
	dirty bool
	// Whether the window has been filled from the backing store or
	// has been written to since it was last moved.
	loaded bool
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func addressOf(p []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(p)))
}

// NewBuffer creates a Buffer that uses the provided memory to perform
// I/O against a BackingStore.
//
// All transfers against the backing store are a multiple of
// blockSizeBytes, which must divide the size of the memory. Windows
// loaded by seeking start at a multiple of sectorAlignmentBytes. The
// memory address of every transfer is a multiple of
// bufferAlignmentBytes. Both alignments must be powers of two. The
// larger of the sector alignment and the block size must be a
// multiple of the smaller one.
//
// Invalid parameters cause a configuration error to be returned, for
// which IsConfigurationError() returns true.
func NewBuffer(memory []byte, store BackingStore, flags Flags, blockSizeBytes, sectorAlignmentBytes, bufferAlignmentBytes int) (*Buffer, error) {
	if !isPowerOfTwo(sectorAlignmentBytes) {
		return nil, status.Errorf(codes.InvalidArgument, "Sector alignment %d is not a power of two", sectorAlignmentBytes)
	}
	if !isPowerOfTwo(bufferAlignmentBytes) {
		return nil, status.Errorf(codes.InvalidArgument, "Buffer alignment %d is not a power of two", bufferAlignmentBytes)
	}
	if blockSizeBytes < 1 {
		return nil, status.Errorf(codes.InvalidArgument, "Block size %d is not positive", blockSizeBytes)
	}
	if len(memory) == 0 {
		return nil, status.Error(codes.InvalidArgument, "Buffer memory is empty")
	}
	if len(memory)%blockSizeBytes != 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Buffer size %d is not a multiple of the block size %d", len(memory), blockSizeBytes)
	}
	if addressOf(memory)&uintptr(bufferAlignmentBytes-1) != 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Buffer memory is not aligned to %d bytes", bufferAlignmentBytes)
	}
	if sectorAlignmentBytes > blockSizeBytes {
		if sectorAlignmentBytes%blockSizeBytes != 0 {
			return nil, status.Errorf(codes.InvalidArgument, "Sector alignment %d is not a multiple of the block size %d", sectorAlignmentBytes, blockSizeBytes)
		}
	} else if blockSizeBytes%sectorAlignmentBytes != 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Block size %d is not a multiple of the sector alignment %d", blockSizeBytes, sectorAlignmentBytes)
	}
	if flags&FlagReadOnly != 0 && flags&FlagWriteOnly != 0 {
		return nil, status.Error(codes.InvalidArgument, "Buffer cannot be both read-only and write-only")
	}

	bufferPrometheusMetrics.Do(func() {
		prometheus.MustRegister(bufferOperationsTotal)
	})

	return &Buffer{
		store:               store,
		memory:              memory,
		capacityBlocks:      len(memory) / blockSizeBytes,
		blockSizeBytes:      blockSizeBytes,
		sectorAlignmentMask: int64(sectorAlignmentBytes - 1),
		bufferAlignmentMask: uintptr(bufferAlignmentBytes - 1),
		flags:               flags,
	}, nil
}

// IsConfigurationError returns whether an error returned by NewBuffer()
// was caused by invalid parameters.
func IsConfigurationError(err error) bool {
	return status.Code(err) == codes.InvalidArgument
}

// BlockSizeBytes returns the granularity of transfers against the
// backing store.
func (b *Buffer) BlockSizeBytes() int {
	return b.blockSizeBytes
}

// BufferAlignmentBytes returns the alignment that memory provided to
// Read() and Write() needs to have to be eligible for direct I/O.
func (b *Buffer) BufferAlignmentBytes() int {
	return int(b.bufferAlignmentMask) + 1
}

// CapacityBytes returns the size of the buffer's memory.
func (b *Buffer) CapacityBytes() int {
	return b.capacityBlocks * b.blockSizeBytes
}

// RemainingReadAmount returns the number of bytes that can be read
// before the buffer needs to be filled. The value is negative if the
// cursor has been placed beyond the end of the data in the buffer.
func (b *Buffer) RemainingReadAmount() int {
	return b.validBlocks*b.blockSizeBytes - b.cursor
}

// RemainingWriteSpace returns the number of bytes that can be written
// before the buffer needs to be flushed.
func (b *Buffer) RemainingWriteSpace() int {
	return b.capacityBlocks*b.blockSizeBytes - b.cursor
}

func (b *Buffer) position() int64 {
	return b.windowStart*int64(b.blockSizeBytes) + int64(b.cursor)
}

// Read data from the backing store through the buffer. A short count
// is returned without an error if the end of the data was reached.
// io.EOF is only returned if no data could be read at all.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.flags&FlagWriteOnly != 0 {
		return 0, status.Error(codes.FailedPrecondition, "Buffer is write-only")
	}
	if len(p) == 0 {
		return 0, nil
	}
	if !b.loaded && b.cursor > 0 {
		if err := b.load(); err != nil {
			return 0, err
		}
	}

	// Consume what is already present in the buffer.
	nRead := b.copyOut(p)

	// Transfer as many full buffers as possible.
	capacityBytes := b.CapacityBytes()
	if len(p)-nRead >= capacityBytes {
		if err := b.flushBeforeMove(); err != nil {
			return nRead, err
		}
		b.advance()
		if b.flags&FlagNoDirectIO == 0 && b.cursor == 0 && addressOf(p[nRead:])&b.bufferAlignmentMask == 0 {
			n, endOfData, err := b.readDirect(p[nRead:])
			nRead += n
			if err != nil {
				return nRead, err
			}
			if endOfData {
				return completeRead(nRead)
			}
		} else {
			for {
				if err := b.load(); err != nil {
					return nRead, err
				}
				nRead += b.copyOut(p[nRead:])
				if b.validBlocks < b.capacityBlocks {
					return completeRead(nRead)
				}
				if len(p)-nRead < capacityBytes {
					break
				}
				b.advance()
			}
		}
	}

	// Read the remainder through the buffer.
	if nRead < len(p) {
		if err := b.flushBeforeMove(); err != nil {
			return nRead, err
		}
		b.advance()
		if err := b.load(); err != nil {
			return nRead, err
		}
		nRead += b.copyOut(p[nRead:])
	}
	return completeRead(nRead)
}

func completeRead(n int) (int, error) {
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// readDirect reads a multiple of the buffer size from the backing store
// directly into p. The window is left empty at the location following
// the data that was read.
func (b *Buffer) readDirect(p []byte) (int, bool, error) {
	blocksToRead := len(p) / b.CapacityBytes() * b.capacityBlocks
	if location, err := b.store.SeekBlock(b.windowStart); err != nil {
		return 0, false, util.StatusWrapf(err, "Failed to seek to block %d", b.windowStart)
	} else if location != b.windowStart {
		return 0, true, nil
	}
	bufferOperationsDirectRead.Inc()
	blocksRead, err := b.store.ReadBlocks(p[:blocksToRead*b.blockSizeBytes])
	blocksRead = clampBlocks(blocksRead, blocksToRead)
	b.windowStart += int64(blocksRead)
	if err != nil {
		return blocksRead * b.blockSizeBytes, false, util.StatusWrapf(err, "Failed to read %d blocks", blocksToRead)
	}
	return blocksRead * b.blockSizeBytes, blocksRead < blocksToRead, nil
}

// Write data to the backing store through the buffer. If not all data
// could be written, the number of bytes accepted is returned, together
// with an error.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.flags&FlagReadOnly != 0 {
		return 0, status.Error(codes.FailedPrecondition, "Buffer is read-only")
	}
	if len(p) == 0 {
		return 0, nil
	}

	// Fill up the space that remains in the buffer.
	if err := b.prepareWrite(len(p)); err != nil {
		return 0, err
	}
	nWritten := b.copyIn(p)

	// Transfer as many full buffers as possible.
	capacityBytes := b.CapacityBytes()
	if len(p)-nWritten >= capacityBytes {
		if err := b.flushBeforeMove(); err != nil {
			return nWritten, err
		}
		b.advance()
		if b.flags&FlagNoDirectIO == 0 && b.cursor == 0 && addressOf(p[nWritten:])&b.bufferAlignmentMask == 0 {
			n, storeFull, err := b.writeDirect(p[nWritten:])
			nWritten += n
			if err != nil {
				return nWritten, err
			}
			if storeFull {
				return nWritten, io.ErrShortWrite
			}
		} else {
			for len(p)-nWritten >= capacityBytes {
				if err := b.prepareWrite(len(p) - nWritten); err != nil {
					return nWritten, err
				}
				nWritten += b.copyIn(p[nWritten:])
				if err := b.flushBeforeMove(); err != nil {
					return nWritten, err
				}
				b.advance()
			}
		}
	}

	// Write the remainder through the buffer.
	for nWritten < len(p) {
		if err := b.flushBeforeMove(); err != nil {
			return nWritten, err
		}
		if b.RemainingWriteSpace() == 0 {
			b.advance()
		}
		if err := b.prepareWrite(len(p) - nWritten); err != nil {
			return nWritten, err
		}
		nWritten += b.copyIn(p[nWritten:])
		if b.RemainingWriteSpace() == 0 {
			if err := b.flush(); err != nil {
				return nWritten, err
			}
		}
	}
	return nWritten, nil
}

// writeDirect writes a multiple of the buffer size from p directly to
// the backing store. The window is left empty at the location
// following the data that was written.
func (b *Buffer) writeDirect(p []byte) (int, bool, error) {
	blocksToWrite := len(p) / b.CapacityBytes() * b.capacityBlocks
	if location, err := b.store.SeekBlock(b.windowStart); err != nil {
		return 0, false, util.StatusWrapf(err, "Failed to seek to block %d", b.windowStart)
	} else if location != b.windowStart {
		return 0, true, nil
	}
	bufferOperationsDirectWrite.Inc()
	blocksWritten, err := b.store.WriteBlocks(p[:blocksToWrite*b.blockSizeBytes])
	blocksWritten = clampBlocks(blocksWritten, blocksToWrite)
	b.windowStart += int64(blocksWritten)
	if err != nil {
		return blocksWritten * b.blockSizeBytes, false, util.StatusWrapf(err, "Failed to write %d blocks", blocksToWrite)
	}
	return blocksWritten * b.blockSizeBytes, blocksWritten < blocksToWrite, nil
}

// prepareWrite loads the window before it is written to, unless the
// write is going to overwrite the window in its entirety.
func (b *Buffer) prepareWrite(n int) error {
	if b.loaded || b.flags&FlagNoFills != 0 || (b.cursor == 0 && n >= b.CapacityBytes()) {
		return nil
	}
	return b.load()
}

// Seek moves the location at which the next byte is read or written.
// Only io.SeekStart and io.SeekCurrent are supported, as the size of
// the backing store is not known.
//
// The requested location is returned, even if the backing store can
// only seek to the sector containing it. If the backing store ends up
// at a location from which the requested location cannot be reached
// through the buffer, the location that is effectively used is returned
// together with an OUT_OF_RANGE error.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var location int64
	switch whence {
	case io.SeekStart:
		location = offset
	case io.SeekCurrent:
		if offset == 0 {
			return b.position(), nil
		}
		location = b.position() + offset
	case io.SeekEnd:
		return b.position(), status.Error(codes.Unimplemented, "Seeking relative to the end of the backing store is not supported")
	default:
		return b.position(), status.Errorf(codes.InvalidArgument, "Invalid whence %d", whence)
	}
	if location < 0 {
		return b.position(), status.Errorf(codes.InvalidArgument, "Cannot seek to negative location %d", location)
	}

	// Move within the current window if possible.
	blockSizeBytes := int64(b.blockSizeBytes)
	windowStartBytes := b.windowStart * blockSizeBytes
	if location >= windowStartBytes && location < windowStartBytes+int64(b.validBlocks)*blockSizeBytes {
		b.cursor = int(location - windowStartBytes)
		return location, nil
	}

	if err := b.flushBeforeMove(); err != nil {
		return b.position(), err
	}
	alignedBlock := (location &^ b.sectorAlignmentMask) / blockSizeBytes
	newWindowStart, err := b.store.SeekBlock(alignedBlock)
	if err != nil {
		return b.position(), util.StatusWrapf(err, "Failed to seek to block %d", alignedBlock)
	}
	if newWindowStart < 0 {
		return b.position(), status.Errorf(codes.Internal, "Seeking to block %d yielded negative location %d", alignedBlock, newWindowStart)
	}
	b.windowStart = newWindowStart
	b.validBlocks = 0
	b.cursor = 0
	b.loaded = false
	if b.flags&FlagRandomAccess == 0 {
		if err := b.fill(); err != nil {
			return b.position(), err
		}
	}

	cursor := location - newWindowStart*blockSizeBytes
	if cursor < 0 || cursor > int64(b.CapacityBytes()) {
		return b.position(), status.Errorf(codes.OutOfRange, "Backing store moved to block %d when seeking to block %d, from which location %d cannot be reached", newWindowStart, alignedBlock, location)
	}
	b.cursor = int(cursor)
	return location, nil
}

// Flush writes data in the buffer that has not been written yet to the
// backing store. If the backing store does not accept all of the data,
// the buffer remains dirty and the next flush will write the entire
// buffer again.
func (b *Buffer) Flush() error {
	return b.flush()
}

func (b *Buffer) flush() error {
	if !b.dirty || b.validBlocks == 0 {
		return nil
	}
	if location, err := b.store.SeekBlock(b.windowStart); err != nil {
		return util.StatusWrapf(err, "Failed to seek to block %d", b.windowStart)
	} else if location != b.windowStart {
		return nil
	}
	bufferOperationsFlush.Inc()
	blocksWritten, err := b.store.WriteBlocks(b.memory[:b.validBlocks*b.blockSizeBytes])
	if err != nil {
		return util.StatusWrapf(err, "Failed to write %d blocks at block %d", b.validBlocks, b.windowStart)
	}
	if blocksWritten == b.validBlocks {
		b.dirty = false
	}
	return nil
}

// flushBeforeMove flushes the buffer, failing if the buffer remains
// dirty. Moving the window is only permitted after a successful flush,
// as the data would otherwise be lost.
func (b *Buffer) flushBeforeMove() error {
	if err := b.flush(); err != nil {
		return err
	}
	if b.dirty {
		return status.Errorf(codes.ResourceExhausted, "Backing store did not accept all %d blocks at block %d", b.validBlocks, b.windowStart)
	}
	return nil
}

// Fill loads the buffer from the backing store, starting at the start
// of the current window. Data that has not been flushed is discarded.
// The cursor is moved to the start of the window.
func (b *Buffer) Fill() error {
	return b.fill()
}

func (b *Buffer) fill() error {
	b.cursor = 0
	if b.flags&FlagNoFills != 0 {
		return nil
	}
	if location, err := b.store.SeekBlock(b.windowStart); err != nil {
		return util.StatusWrapf(err, "Failed to seek to block %d", b.windowStart)
	} else if location != b.windowStart {
		// Contents of the buffer are left intact, as they
		// cannot be replaced.
		return nil
	}
	b.validBlocks = 0
	b.dirty = false
	b.loaded = true
	bufferOperationsFill.Inc()
	blocksRead, err := b.store.ReadBlocks(b.memory)
	b.validBlocks = clampBlocks(blocksRead, b.capacityBlocks)
	if err != nil {
		return util.StatusWrapf(err, "Failed to read %d blocks at block %d", b.capacityBlocks, b.windowStart)
	}
	return nil
}

// load fills the buffer without affecting the cursor.
func (b *Buffer) load() error {
	cursor := b.cursor
	err := b.fill()
	b.cursor = cursor
	return err
}

// advance moves the window past its current contents, so that it
// starts at the block containing the cursor.
func (b *Buffer) advance() {
	blocks := b.validBlocks
	if cursorBlocks := b.cursor / b.blockSizeBytes; cursorBlocks > blocks {
		blocks = cursorBlocks
	}
	b.windowStart += int64(blocks)
	b.cursor -= blocks * b.blockSizeBytes
	b.validBlocks = 0
	b.loaded = false
}

// Close flushes the buffer for the last time. An error is returned if
// the buffer contains data that could not be written.
func (b *Buffer) Close() error {
	if err := b.flush(); err != nil {
		return err
	}
	if b.dirty {
		return status.Errorf(codes.DataLoss, "Backing store did not accept all %d blocks at block %d", b.validBlocks, b.windowStart)
	}
	return nil
}

// copyOut copies data from the buffer into p, up to the end of the
// valid data.
func (b *Buffer) copyOut(p []byte) int {
	remaining := b.RemainingReadAmount()
	if remaining <= 0 {
		return 0
	}
	n := copy(p, b.memory[b.cursor:b.cursor+remaining])
	b.cursor += n
	return n
}

// copyIn copies data from p into the buffer, up to the end of the
// buffer. Bytes in blocks that become valid but are not written are
// set to zero.
func (b *Buffer) copyIn(p []byte) int {
	start := b.cursor
	n := copy(b.memory[start:], p)
	if n == 0 {
		return 0
	}
	b.cursor += n
	b.dirty = true
	b.loaded = true

	if validBytes := b.validBlocks * b.blockSizeBytes; b.cursor > validBytes {
		if start > validBytes {
			clear(b.memory[validBytes:start])
		}
		b.validBlocks = (b.cursor + b.blockSizeBytes - 1) / b.blockSizeBytes
		clear(b.memory[b.cursor : b.validBlocks*b.blockSizeBytes])
	}
	return n
}

func clampBlocks(n, maximum int) int {
	if n < 0 {
		return 0
	}
	if n > maximum {
		return maximum
	}
	return n
}

var (
	_ io.ReadWriteSeeker = (*Buffer)(nil)
	_ io.Closer          = (*Buffer)(nil)
)
