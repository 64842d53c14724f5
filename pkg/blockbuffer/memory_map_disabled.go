//go:build !darwin && !freebsd && !linux

package blockbuffer

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewMemoryMappedMemory allocates memory outside of the Go heap using
// an anonymous memory map. This implementation is a stub for operating
// systems that don't support it.
func NewMemoryMappedMemory(sizeBytes int) ([]byte, func() error, error) {
	return nil, nil, status.Error(codes.Unimplemented, "Memory mapped buffers are not supported on this platform")
}
