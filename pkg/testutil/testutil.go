package testutil

import (
	"testing"

	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// RequireEqualStatus asserts that two errors are equal, after
// converting both of them to gRPC statuses. Nil errors are converted to
// statuses with code OK.
func RequireEqualStatus(t *testing.T, want, got error) {
	t.Helper()
	wantStatus := status.Convert(want).Proto()
	gotStatus := status.Convert(got).Proto()
	if !proto.Equal(wantStatus, gotStatus) {
		t.Fatalf("Not equal:\nWant: %s\nGot:  %s", protojson.Format(wantStatus), protojson.Format(gotStatus))
	}
}
