package blockcopy

import (
	"github.com/buildbarn/bb-blockbuffer/pkg/blockbuffer"
	"github.com/buildbarn/bb-blockbuffer/pkg/blockdevice"
)

// TransferConfiguration describes a single copy between a local file
// and a range of the block device.
type TransferConfiguration struct {
	// Either "IMPORT", copying the local file onto the block
	// device, or "EXPORT", copying data from the block device into
	// the local file.
	Direction string `json:"direction"`
	LocalPath string `json:"localPath"`
	// Location on the block device at which the range starts.
	OffsetBytes int64 `json:"offsetBytes"`
	// Size of the range. For imports, zero indicates that the full
	// local file needs to be copied.
	SizeBytes int64 `json:"sizeBytes"`
	// Either "NONE" or "ZSTD". When "ZSTD", the local file is
	// compressed using Zstandard. Imports of compressed files
	// need to have their size specified.
	Compression string `json:"compression"`
}

// ApplicationConfiguration is the configuration of bb_blockcopy.
type ApplicationConfiguration struct {
	BlockDevice *blockdevice.Configuration `json:"blockDevice"`
	// Parameters of the buffers used by transfers. Every transfer
	// allocates a buffer of its own.
	Buffer *blockbuffer.Configuration `json:"buffer"`
	// Maximum number of transfers to run in parallel. Zero means
	// that all transfers run in parallel.
	MaximumConcurrentTransfers int `json:"maximumConcurrentTransfers"`
	// Maximum number of concurrent operations against the block
	// device. Zero means that no limit is enforced.
	MaximumConcurrentDeviceOperations int64 `json:"maximumConcurrentDeviceOperations"`
	// If set, an HTTP server exposing Prometheus metrics is
	// launched on this address.
	DiagnosticsHTTPListenAddress string `json:"diagnosticsHttpListenAddress"`
	Transfers                    []TransferConfiguration `json:"transfers"`
}
