package blockbuffer_test

import (
	"testing"
	"time"

	"github.com/buildbarn/bb-blockbuffer/internal/mock"
	"github.com/buildbarn/bb-blockbuffer/pkg/blockbuffer"
	"github.com/buildbarn/bb-blockbuffer/pkg/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMetricsBackingStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	base := mock.NewMockBackingStore(ctrl)
	clock := mock.NewMockClock(ctrl)
	store := blockbuffer.NewMetricsBackingStore(base, clock, 4, "test")

	// Calls should be forwarded to the underlying store, both the
	// results and errors being returned unmodified.
	t.Run("ReadBlocks", func(t *testing.T) {
		clock.EXPECT().Now().Return(time.Unix(1000, 0))
		base.EXPECT().ReadBlocks(gomock.Len(16)).DoAndReturn(func(p []byte) (int, error) {
			copy(p, "Hello")
			return 2, nil
		})
		clock.EXPECT().Now().Return(time.Unix(1001, 0))

		p := make([]byte, 16)
		n, err := store.ReadBlocks(p)
		require.NoError(t, err)
		require.Equal(t, 2, n)
		require.Equal(t, []byte("Hello"), p[:5])
	})

	t.Run("WriteBlocks", func(t *testing.T) {
		clock.EXPECT().Now().Return(time.Unix(1002, 0))
		base.EXPECT().WriteBlocks([]byte("ABCD")).Return(0, status.Error(codes.Internal, "Disk on fire"))
		clock.EXPECT().Now().Return(time.Unix(1003, 0))

		n, err := store.WriteBlocks([]byte("ABCD"))
		testutil.RequireEqualStatus(t, status.Error(codes.Internal, "Disk on fire"), err)
		require.Equal(t, 0, n)
	})

	t.Run("SeekBlock", func(t *testing.T) {
		clock.EXPECT().Now().Return(time.Unix(1004, 0))
		base.EXPECT().SeekBlock(int64(7)).Return(int64(5), nil)
		clock.EXPECT().Now().Return(time.Unix(1005, 0))

		location, err := store.SeekBlock(7)
		require.NoError(t, err)
		require.Equal(t, int64(5), location)
	})
}
