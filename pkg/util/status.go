package util

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusWrap prepends a string to the message of an existing error,
// while preserving its code. Errors that are not gRPC statuses are
// converted to statuses with code UNKNOWN.
func StatusWrap(err error, msg string) error {
	p := status.Convert(err).Proto()
	p.Message = fmt.Sprintf("%s: %s", msg, p.Message)
	return status.ErrorProto(p)
}

// StatusWrapf prepends a formatted string to the message of an existing error.
func StatusWrapf(err error, format string, args ...interface{}) error {
	return StatusWrap(err, fmt.Sprintf(format, args...))
}

// StatusWrapWithCode prepends a string to the message of an existing
// error, while replacing the error code.
func StatusWrapWithCode(err error, code codes.Code, msg string) error {
	p := status.Convert(err).Proto()
	p.Code = int32(code)
	p.Message = fmt.Sprintf("%s: %s", msg, p.Message)
	return status.ErrorProto(p)
}

// StatusFromMultiple merges a list of errors into a single one. The
// code of the first error is used.
func StatusFromMultiple(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	err := errs[0]
	for _, other := range errs[1:] {
		err = StatusWrapf(err, "%s", status.Convert(other).Message())
	}
	return err
}
