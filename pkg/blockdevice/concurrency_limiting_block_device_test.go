package blockdevice_test

import (
	"testing"

	"github.com/buildbarn/bb-blockbuffer/internal/mock"
	"github.com/buildbarn/bb-blockbuffer/pkg/blockdevice"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/semaphore"
)

func TestConcurrencyLimitingBlockDevice(t *testing.T) {
	ctrl := gomock.NewController(t)

	baseBlockDevice := mock.NewMockBlockDevice(ctrl)
	sem := semaphore.NewWeighted(1)
	blockDevice := blockdevice.NewConcurrencyLimitingBlockDevice(baseBlockDevice, sem)

	t.Run("WriteAt", func(t *testing.T) {
		// The semaphore should be held while the call is running.
		baseBlockDevice.EXPECT().WriteAt([]byte("Hello"), int64(512)).DoAndReturn(
			func(p []byte, off int64) (int, error) {
				require.False(t, sem.TryAcquire(1))
				return len(p), nil
			})
		n, err := blockDevice.WriteAt([]byte("Hello"), 512)
		require.NoError(t, err)
		require.Equal(t, 5, n)
	})

	t.Run("ReadAt", func(t *testing.T) {
		baseBlockDevice.EXPECT().ReadAt(gomock.Len(4), int64(1024)).DoAndReturn(
			func(p []byte, off int64) (int, error) {
				require.False(t, sem.TryAcquire(1))
				return copy(p, "Data"), nil
			})
		var b [4]byte
		n, err := blockDevice.ReadAt(b[:], 1024)
		require.NoError(t, err)
		require.Equal(t, 4, n)
		require.Equal(t, []byte("Data"), b[:])
	})

	t.Run("Sync", func(t *testing.T) {
		baseBlockDevice.EXPECT().Sync()
		require.NoError(t, blockDevice.Sync())
	})

	// The semaphore should have been released after every call.
	require.True(t, sem.TryAcquire(1))
	sem.Release(1)
}
