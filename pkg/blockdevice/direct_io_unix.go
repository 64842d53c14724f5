//go:build freebsd || linux

package blockdevice

import (
	"golang.org/x/sys/unix"
)

func getDirectIOOpenFlag() (int, error) {
	return unix.O_DIRECT, nil
}
