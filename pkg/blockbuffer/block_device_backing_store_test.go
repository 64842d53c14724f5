package blockbuffer_test

import (
	"io"
	"testing"

	"github.com/buildbarn/bb-blockbuffer/internal/mock"
	"github.com/buildbarn/bb-blockbuffer/pkg/blockbuffer"
	"github.com/buildbarn/bb-blockbuffer/pkg/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestBlockDeviceBackingStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	blockDevice := mock.NewMockBlockDevice(ctrl)
	store := blockbuffer.NewBlockDeviceBackingStore(blockDevice, 512, 10)

	t.Run("Read", func(t *testing.T) {
		blockDevice.EXPECT().ReadAt(gomock.Len(1024), int64(0)).Return(1024, nil)

		n, err := store.ReadBlocks(make([]byte, 1024))
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})

	t.Run("ReadLimitedToDeviceSize", func(t *testing.T) {
		location, err := store.SeekBlock(8)
		require.NoError(t, err)
		require.Equal(t, int64(8), location)

		blockDevice.EXPECT().ReadAt(gomock.Len(1024), int64(4096)).Return(1024, io.EOF)

		n, err := store.ReadBlocks(make([]byte, 2048))
		require.NoError(t, err)
		require.Equal(t, 2, n)

		n, err = store.ReadBlocks(make([]byte, 2048))
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})

	t.Run("ReadFailure", func(t *testing.T) {
		_, err := store.SeekBlock(3)
		require.NoError(t, err)

		blockDevice.EXPECT().ReadAt(gomock.Len(512), int64(1536)).Return(0, status.Error(codes.Internal, "Disk on fire"))

		n, err := store.ReadBlocks(make([]byte, 512))
		testutil.RequireEqualStatus(t, status.Error(codes.Internal, "Failed to read from block device at block 3: Disk on fire"), err)
		require.Equal(t, 0, n)
	})

	t.Run("Write", func(t *testing.T) {
		location, err := store.SeekBlock(100)
		require.NoError(t, err)
		require.Equal(t, int64(10), location)

		n, err := store.WriteBlocks(make([]byte, 512))
		require.NoError(t, err)
		require.Equal(t, 0, n)

		_, err = store.SeekBlock(9)
		require.NoError(t, err)
		blockDevice.EXPECT().WriteAt(gomock.Len(512), int64(4608)).Return(512, nil)

		n, err = store.WriteBlocks(make([]byte, 1024))
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("WriteFailure", func(t *testing.T) {
		_, err := store.SeekBlock(0)
		require.NoError(t, err)
		blockDevice.EXPECT().WriteAt(gomock.Len(1024), int64(0)).Return(512, status.Error(codes.Internal, "Disk on fire"))

		n, err := store.WriteBlocks(make([]byte, 1024))
		testutil.RequireEqualStatus(t, status.Error(codes.Internal, "Failed to write to block device at block 0: Disk on fire"), err)
		require.Equal(t, 1, n)

		location, err := store.SeekBlock(-1)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Cannot seek to negative block -1"), err)
		require.Equal(t, int64(1), location)
	})
}
