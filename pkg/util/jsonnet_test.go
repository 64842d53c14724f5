package util_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/buildbarn/bb-blockbuffer/pkg/util"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type exampleConfiguration struct {
	Path      string   `json:"path"`
	SizeBytes int64    `json:"sizeBytes"`
	Flags     []string `json:"flags"`
}

func writeConfigurationFile(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "configuration.jsonnet")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestUnmarshalConfigurationFromFile(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Setenv("BLOCKBUFFER_TEST_PATH", "/dev/sdb")
		path := writeConfigurationFile(t, `{
			path: std.extVar('BLOCKBUFFER_TEST_PATH'),
			sizeBytes: 16 * 1024,
			flags: ['NO_FILLS'],
		}`)

		var configuration exampleConfiguration
		require.NoError(t, util.UnmarshalConfigurationFromFile(path, &configuration))
		require.Equal(t, exampleConfiguration{
			Path:      "/dev/sdb",
			SizeBytes: 16384,
			Flags:     []string{"NO_FILLS"},
		}, configuration)
	})

	t.Run("NonexistentFile", func(t *testing.T) {
		var configuration exampleConfiguration
		err := util.UnmarshalConfigurationFromFile(filepath.Join(t.TempDir(), "nonexistent.jsonnet"), &configuration)
		require.Error(t, err)
	})

	t.Run("SyntaxError", func(t *testing.T) {
		path := writeConfigurationFile(t, `{ path: `)

		var configuration exampleConfiguration
		err := util.UnmarshalConfigurationFromFile(path, &configuration)
		require.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("UnknownField", func(t *testing.T) {
		path := writeConfigurationFile(t, `{ pathh: '/dev/sdb' }`)

		var configuration exampleConfiguration
		err := util.UnmarshalConfigurationFromFile(path, &configuration)
		require.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}
