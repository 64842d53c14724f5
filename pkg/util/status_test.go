package util_test

import (
	"errors"
	"testing"

	"github.com/buildbarn/bb-blockbuffer/pkg/testutil"
	"github.com/buildbarn/bb-blockbuffer/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusWrap(t *testing.T) {
	t.Run("Status", func(t *testing.T) {
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.OutOfRange, "Failed to read block 7: End of device"),
			util.StatusWrapf(status.Error(codes.OutOfRange, "End of device"), "Failed to read block %d", 7))
	})

	t.Run("PlainError", func(t *testing.T) {
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.Unknown, "Failed to read block: Input/output error"),
			util.StatusWrap(errors.New("Input/output error"), "Failed to read block"))
	})

	t.Run("WithCode", func(t *testing.T) {
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Failed to evaluate configuration: Unexpected end of file"),
			util.StatusWrapWithCode(errors.New("Unexpected end of file"), codes.InvalidArgument, "Failed to evaluate configuration"))
	})
}

func TestStatusFromMultiple(t *testing.T) {
	testutil.RequireEqualStatus(t, nil, util.StatusFromMultiple(nil))
	testutil.RequireEqualStatus(
		t,
		status.Error(codes.Internal, "Failed to close file descriptor: Failed to unmap memory region"),
		util.StatusFromMultiple([]error{
			status.Error(codes.Internal, "Failed to unmap memory region"),
			status.Error(codes.Unknown, "Failed to close file descriptor"),
		}))
}
