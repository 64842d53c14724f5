package blockbuffer

import (
	"github.com/buildbarn/bb-blockbuffer/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Configuration of a Buffer, as stored in a configuration file.
type Configuration struct {
	// Size of the memory of the buffer. Needs to be a multiple of
	// the block size.
	BufferSizeBytes int `json:"bufferSizeBytes"`
	// Granularity of transfers against the backing store. When
	// zero, the sector size of the backing store is used.
	BlockSizeBytes int `json:"blockSizeBytes"`
	// Alignment of window starts in the backing store. Defaults
	// to one.
	SectorAlignmentBytes int `json:"sectorAlignmentBytes"`
	// Alignment of the memory used for transfers. Defaults to one.
	BufferAlignmentBytes int `json:"bufferAlignmentBytes"`
	// Names of flags to set, such as "NO_DIRECT_IO".
	Flags []string `json:"flags"`
	// Whether to allocate the buffer's memory through an anonymous
	// memory map instead of from the Go heap.
	MemoryMapped bool `json:"memoryMapped"`
}

var flagNames = map[string]Flags{
	"READ_ONLY":     FlagReadOnly,
	"WRITE_ONLY":    FlagWriteOnly,
	"NO_DIRECT_IO":  FlagNoDirectIO,
	"NO_FILLS":      FlagNoFills,
	"RANDOM_ACCESS": FlagRandomAccess,
}

// ParseFlags converts a list of flag names to a set of Flags.
func ParseFlags(names []string) (Flags, error) {
	var flags Flags
	for _, name := range names {
		flag, ok := flagNames[name]
		if !ok {
			return 0, status.Errorf(codes.InvalidArgument, "Unknown buffer flag %#v", name)
		}
		flags |= flag
	}
	return flags, nil
}

// NewBufferFromConfiguration allocates memory and creates a Buffer
// based on parameters provided in a configuration file. The backing
// store is created through a callback, as it depends on the block size
// that is used.
//
// The returned function must be called to release the buffer's memory
// after the buffer is closed.
func NewBufferFromConfiguration(configuration *Configuration, defaultBlockSizeBytes int, newStore func(blockSizeBytes int) BackingStore) (*Buffer, func() error, error) {
	if configuration == nil {
		return nil, nil, status.Error(codes.InvalidArgument, "Buffer configuration not specified")
	}
	flags, err := ParseFlags(configuration.Flags)
	if err != nil {
		return nil, nil, err
	}
	blockSizeBytes := configuration.BlockSizeBytes
	if blockSizeBytes == 0 {
		blockSizeBytes = defaultBlockSizeBytes
	}
	sectorAlignmentBytes := configuration.SectorAlignmentBytes
	if sectorAlignmentBytes == 0 {
		sectorAlignmentBytes = 1
	}
	bufferAlignmentBytes := configuration.BufferAlignmentBytes
	if bufferAlignmentBytes == 0 {
		bufferAlignmentBytes = 1
	}

	var memory []byte
	release := func() error { return nil }
	if configuration.MemoryMapped {
		memory, release, err = NewMemoryMappedMemory(configuration.BufferSizeBytes)
	} else {
		memory, err = NewAlignedMemory(configuration.BufferSizeBytes, bufferAlignmentBytes)
	}
	if err != nil {
		return nil, nil, util.StatusWrap(err, "Failed to allocate buffer memory")
	}

	b, err := NewBuffer(memory, newStore(blockSizeBytes), flags, blockSizeBytes, sectorAlignmentBytes, bufferAlignmentBytes)
	if err != nil {
		if releaseErr := release(); releaseErr != nil {
			return nil, nil, util.StatusFromMultiple([]error{err, util.StatusWrap(releaseErr, "Failed to release buffer memory")})
		}
		return nil, nil, err
	}
	return b, release, nil
}
