package blockbuffer

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewAlignedMemory allocates memory on the heap whose address is a
// multiple of alignmentBytes, so that it may be provided to NewBuffer().
// The garbage collector does not relocate heap allocations, meaning the
// alignment is preserved for the lifetime of the slice.
func NewAlignedMemory(sizeBytes, alignmentBytes int) ([]byte, error) {
	if sizeBytes <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Memory size %d is not positive", sizeBytes)
	}
	if !isPowerOfTwo(alignmentBytes) {
		return nil, status.Errorf(codes.InvalidArgument, "Memory alignment %d is not a power of two", alignmentBytes)
	}
	raw := make([]byte, sizeBytes+alignmentBytes-1)
	offset := int(-addressOf(raw) & uintptr(alignmentBytes-1))
	return raw[offset : offset+sizeBytes : offset+sizeBytes], nil
}
