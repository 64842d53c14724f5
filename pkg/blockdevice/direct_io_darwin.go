//go:build darwin

package blockdevice

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func getDirectIOOpenFlag() (int, error) {
	return 0, status.Error(codes.Unimplemented, "Direct I/O is not supported on this platform")
}
