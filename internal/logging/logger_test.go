package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emitAll(logger zerolog.Logger) {
	logger.Trace().Msg("trace: packet dump")
	logger.Debug().Msg("debug: export captured")
	logger.Info().Msg("info: hook installed")
	logger.Warn().Msg("warn: reply passed through")
	logger.Error().Msg("error: hook install failed")
}

func TestNew_Levels(t *testing.T) {
	all := []string{"trace", "debug", "info", "warn", "error"}

	tests := []struct {
		level string
		want  []string
	}{
		{"trace", all},
		{"debug", all[1:]},
		{"info", all[2:]},
		{"warn", all[3:]},
		{"error", all[4:]},
		{"TRACE", all},
		{"loud", all[2:]},
		{"", all[2:]},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			emitAll(New(Config{Level: tt.level, Output: &buf}))

			for _, name := range all {
				if contains(tt.want, name) {
					assert.Contains(t, buf.String(), name+": ")
				} else {
					assert.NotContains(t, buf.String(), name+": ")
				}
			}
		})
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, ParseLevel("trace"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("Warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestNewWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithComponent(Config{Level: "info", Output: &buf}, "sdb")

	logger.Info().Msg("translator ready")

	assert.Contains(t, buf.String(), `"component":"sdb"`)
	assert.Contains(t, buf.String(), `"message":"translator ready"`)
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Pretty: true, Output: &buf})
	logger.Info().Msg("runtime initializing")

	assert.Contains(t, buf.String(), "runtime initializing")
	assert.False(t, strings.HasPrefix(buf.String(), "{"), "console output is not JSON")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Pretty)
	assert.Equal(t, os.Stdout, cfg.Output)
	assert.Empty(t, cfg.FilePath)
}

func TestOpen_TeesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "VenusRootLoader", "Logs", "bootstrap.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("previous boot\n"), 0o600))

	var console bytes.Buffer
	logger, closer, err := Open(Config{Level: "debug", Pretty: true, Output: &console, FilePath: path})
	require.NoError(t, err)

	logger.Debug().Str("function", "send").Msg("hook installed")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "previous boot")
	assert.Contains(t, string(data), `"function":"send"`)
	assert.Contains(t, console.String(), "hook installed")
}

func TestOpen_NoFile(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := Open(Config{Level: "info", Output: &buf})
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger.Info().Msg("bootstrap starting")
	assert.NoError(t, closer.Close())
	assert.Contains(t, buf.String(), "bootstrap starting")
}

func TestOpen_BadDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, _, err := Open(Config{Level: "info", FilePath: filepath.Join(blocker, "bootstrap.log")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create log directory")
}
