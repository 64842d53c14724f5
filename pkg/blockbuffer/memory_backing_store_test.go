package blockbuffer_test

import (
	"testing"

	"github.com/buildbarn/bb-blockbuffer/pkg/blockbuffer"
	"github.com/buildbarn/bb-blockbuffer/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMemoryBackingStore(t *testing.T) {
	store := blockbuffer.NewMemoryBackingStoreWithData(4, 4, []byte("Hello"))
	require.Equal(t, []byte("Hello\x00\x00\x00"), store.Bytes())

	t.Run("ReadPastEnd", func(t *testing.T) {
		p := make([]byte, 12)
		n, err := store.ReadBlocks(p)
		require.NoError(t, err)
		require.Equal(t, 2, n)
		require.Equal(t, []byte("Hello\x00\x00\x00"), p[:8])

		n, err = store.ReadBlocks(p)
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})

	t.Run("WriteWithGap", func(t *testing.T) {
		location, err := store.SeekBlock(3)
		require.NoError(t, err)
		require.Equal(t, int64(3), location)

		// Writes are limited to the maximum size of the store.
		n, err := store.WriteBlocks([]byte("ABCDEFGH"))
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Equal(t, []byte("Hello\x00\x00\x00\x00\x00\x00\x00ABCD"), store.Bytes())

		n, err = store.WriteBlocks([]byte("EFGH"))
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})

	t.Run("Seek", func(t *testing.T) {
		location, err := store.SeekBlock(100)
		require.NoError(t, err)
		require.Equal(t, int64(4), location)

		_, err = store.SeekBlock(-1)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Cannot seek to negative block -1"), err)
	})
}
