package blockbuffer_test

import (
	"testing"
	"unsafe"

	"github.com/buildbarn/bb-blockbuffer/pkg/blockbuffer"
	"github.com/buildbarn/bb-blockbuffer/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNewAlignedMemory(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		for alignmentBytes := 1; alignmentBytes <= 8192; alignmentBytes *= 2 {
			memory, err := blockbuffer.NewAlignedMemory(1000, alignmentBytes)
			require.NoError(t, err)
			require.Len(t, memory, 1000)
			require.Equal(t, 1000, cap(memory))
			require.Zero(t, uintptr(unsafe.Pointer(&memory[0]))%uintptr(alignmentBytes))
		}
	})

	t.Run("InvalidSize", func(t *testing.T) {
		_, err := blockbuffer.NewAlignedMemory(0, 512)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Memory size 0 is not positive"), err)
	})

	t.Run("InvalidAlignment", func(t *testing.T) {
		_, err := blockbuffer.NewAlignedMemory(1000, 500)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Memory alignment 500 is not a power of two"), err)
	})
}
