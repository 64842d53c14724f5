package blockcopy

import (
	"context"
	"io"
	"os"
	"slices"

	"github.com/buildbarn/bb-blockbuffer/pkg/blockbuffer"
	"github.com/buildbarn/bb-blockbuffer/pkg/util"
	"github.com/zeebo/blake3"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Direction in which a Transfer copies data.
type Direction int

const (
	// DirectionImport copies a local file onto the block device.
	DirectionImport Direction = iota
	// DirectionExport copies a range of the block device into a
	// local file.
	DirectionExport
)

func (d Direction) String() string {
	if d == DirectionImport {
		return "Import"
	}
	return "Export"
}

// Compression algorithm of the local file of a Transfer.
type Compression int

const (
	// CompressionNone stores the local file uncompressed.
	CompressionNone Compression = iota
	// CompressionZstd stores the local file compressed using
	// Zstandard.
	CompressionZstd
)

// Transfer of data between a local file and a range of a block device.
type Transfer struct {
	Direction   Direction
	Compression Compression
	LocalPath   string
	OffsetBytes int64
	SizeBytes   int64
}

// WindowGeometry describes the shape of windows of the buffers used by
// transfers. It is needed to determine which parts of the block device
// may be written by an import.
type WindowGeometry struct {
	AlignmentBytes int64
	SizeBytes      int64
}

// NewWindowGeometryFromConfiguration computes the shape of windows of
// buffers created from a configuration.
func NewWindowGeometryFromConfiguration(configuration *blockbuffer.Configuration, defaultBlockSizeBytes int) WindowGeometry {
	alignmentBytes := configuration.BlockSizeBytes
	if alignmentBytes == 0 {
		alignmentBytes = defaultBlockSizeBytes
	}
	alignmentBytes = max(alignmentBytes, configuration.SectorAlignmentBytes)
	return WindowGeometry{
		AlignmentBytes: int64(alignmentBytes),
		SizeBytes:      int64(configuration.BufferSizeBytes),
	}
}

type extent struct {
	start int64
	end   int64
}

// footprint returns the range of the block device that is accessed by
// a transfer. Buffers always write back entire windows, meaning that
// imports may rewrite data that surrounds the range being copied.
func (t *Transfer) footprint(geometry WindowGeometry) extent {
	if t.Direction == DirectionExport {
		return extent{start: t.OffsetBytes, end: t.OffsetBytes + t.SizeBytes}
	}
	return extent{
		start: t.OffsetBytes - t.OffsetBytes%geometry.AlignmentBytes,
		end:   t.OffsetBytes + t.SizeBytes + geometry.SizeBytes,
	}
}

// NewTransfersFromConfiguration validates the transfers listed in a
// configuration file. As transfers run in parallel, imports may not
// access parts of the block device that are accessed by any other
// transfer. Exports may overlap with each other.
//
// The size of imports of which no size is configured is obtained by
// inspecting the local file.
func NewTransfersFromConfiguration(configurations []TransferConfiguration, geometry WindowGeometry) ([]Transfer, error) {
	transfers := make([]Transfer, 0, len(configurations))
	for i, configuration := range configurations {
		transfer := Transfer{
			LocalPath:   configuration.LocalPath,
			OffsetBytes: configuration.OffsetBytes,
			SizeBytes:   configuration.SizeBytes,
		}
		switch configuration.Compression {
		case "", "NONE":
		case "ZSTD":
			transfer.Compression = CompressionZstd
		default:
			return nil, status.Errorf(codes.InvalidArgument, "Transfer %d has unknown compression %#v", i, configuration.Compression)
		}
		switch configuration.Direction {
		case "IMPORT":
			transfer.Direction = DirectionImport
			if transfer.SizeBytes == 0 {
				if transfer.Compression != CompressionNone {
					return nil, status.Errorf(codes.InvalidArgument, "Transfer %d imports a compressed file, meaning its size needs to be specified", i)
				}
				info, err := os.Stat(configuration.LocalPath)
				if err != nil {
					return nil, util.StatusWrapf(err, "Failed to obtain size of local file of transfer %d", i)
				}
				transfer.SizeBytes = info.Size()
			}
		case "EXPORT":
			transfer.Direction = DirectionExport
		default:
			return nil, status.Errorf(codes.InvalidArgument, "Transfer %d has unknown direction %#v", i, configuration.Direction)
		}
		if transfer.OffsetBytes < 0 || transfer.SizeBytes < 0 {
			return nil, status.Errorf(codes.InvalidArgument, "Transfer %d has a negative offset or size", i)
		}

		for j := range transfers {
			if transfer.Direction == DirectionExport && transfers[j].Direction == DirectionExport {
				continue
			}
			a, b := transfers[j].footprint(geometry), transfer.footprint(geometry)
			if a.start < b.end && b.start < a.end {
				return nil, status.Errorf(codes.InvalidArgument, "Transfers %d and %d access overlapping parts of the block device", j, i)
			}
		}
		transfers = append(transfers, transfer)
	}
	return transfers, nil
}

// Flags returns the buffer flags that are implied by the direction
// of the transfer.
func (t *Transfer) Flags(configured []string) []string {
	if t.Direction == DirectionImport {
		return append(slices.Clone(configured), "WRITE_ONLY")
	}
	return append(slices.Clone(configured), "READ_ONLY")
}

// contextReader stops copying as soon as the context is canceled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, status.FromContextError(err).Err()
	}
	return r.r.Read(p)
}

// Run the transfer, using a buffer on top of the block device. The
// scratch space is used to move data between the buffer and the local
// file. When it is properly aligned and at least the size of the
// buffer, data bypasses the buffer.
//
// Upon success, the BLAKE3 hash of the data is returned.
func (t *Transfer) Run(ctx context.Context, b *blockbuffer.Buffer, scratch []byte) ([]byte, error) {
	if _, err := b.Seek(t.OffsetBytes, io.SeekStart); err != nil {
		return nil, util.StatusWrapf(err, "Failed to seek to offset %d", t.OffsetBytes)
	}
	hasher := blake3.New()

	if t.Direction == DirectionImport {
		f, err := os.Open(t.LocalPath)
		if err != nil {
			return nil, util.StatusWrapf(err, "Failed to open %#v", t.LocalPath)
		}
		var r io.ReadCloser = f
		if t.Compression == CompressionZstd {
			if r, err = util.NewZstdReadCloser(f); err != nil {
				f.Close()
				return nil, util.StatusWrapf(err, "Failed to create decompressor for %#v", t.LocalPath)
			}
		}
		defer r.Close()

		n, err := io.CopyBuffer(io.MultiWriter(b, hasher), contextReader{ctx: ctx, r: io.LimitReader(r, t.SizeBytes)}, scratch)
		if err != nil {
			return nil, util.StatusWrapf(err, "Failed to copy %#v after %d bytes", t.LocalPath, n)
		}
		if n != t.SizeBytes {
			return nil, status.Errorf(codes.FailedPrecondition, "Local file %#v only contained %d bytes, while %d bytes were expected", t.LocalPath, n, t.SizeBytes)
		}
		if err := b.Close(); err != nil {
			return nil, util.StatusWrapf(err, "Failed to flush data of %#v", t.LocalPath)
		}
		return hasher.Sum(nil), nil
	}

	f, err := os.OpenFile(t.LocalPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o666)
	if err != nil {
		return nil, util.StatusWrapf(err, "Failed to create %#v", t.LocalPath)
	}
	var w io.WriteCloser = f
	if t.Compression == CompressionZstd {
		if w, err = util.NewZstdWriteCloser(f); err != nil {
			f.Close()
			return nil, util.StatusWrapf(err, "Failed to create compressor for %#v", t.LocalPath)
		}
	}
	n, err := io.CopyBuffer(io.MultiWriter(w, hasher), contextReader{ctx: ctx, r: io.LimitReader(b, t.SizeBytes)}, scratch)
	if err != nil {
		w.Close()
		return nil, util.StatusWrapf(err, "Failed to copy into %#v after %d bytes", t.LocalPath, n)
	}
	if n != t.SizeBytes {
		w.Close()
		return nil, status.Errorf(codes.OutOfRange, "Block device only contained %d bytes at offset %d, while %d bytes were requested", n, t.OffsetBytes, t.SizeBytes)
	}
	if err := w.Close(); err != nil {
		return nil, util.StatusWrapf(err, "Failed to close %#v", t.LocalPath)
	}
	if err := b.Close(); err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}
