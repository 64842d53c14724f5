package util_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/buildbarn/bb-blockbuffer/pkg/util"
	"github.com/stretchr/testify/require"
)

type closeTrackingBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closeTrackingBuffer) Close() error {
	b.closed = true
	return nil
}

func TestZstd(t *testing.T) {
	data := bytes.Repeat([]byte("Hello world "), 1000)

	compressed := &closeTrackingBuffer{}
	w, err := util.NewZstdWriteCloser(compressed)
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.False(t, compressed.closed)
	require.NoError(t, w.Close())
	require.True(t, compressed.closed)
	require.Less(t, compressed.Len(), len(data))

	r, err := util.NewZstdReadCloser(compressed)
	require.NoError(t, err)
	decompressed, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, data, decompressed)
	compressed.closed = false
	require.NoError(t, r.Close())
	require.True(t, compressed.closed)
}
