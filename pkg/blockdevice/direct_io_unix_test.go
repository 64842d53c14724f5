//go:build freebsd || linux

package blockdevice

import (
	"testing"

	"github.com/stretchr/testify/require"

	"golang.org/x/sys/unix"
)

func TestGetDirectIOOpenFlag(t *testing.T) {
	flag, err := getDirectIOOpenFlag()
	require.NoError(t, err)
	require.Equal(t, unix.O_DIRECT, flag)
}
