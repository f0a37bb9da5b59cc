package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venusroot/bootstrap/internal/constants"
)

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	path := filepath.Join(root, constants.ConfigFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoader_ConfigPath(t *testing.T) {
	root := t.TempDir()
	l := NewLoader(root)

	assert.Equal(t, filepath.Join(root, constants.ConfigFile), l.ConfigPath())

	t.Setenv("VENUS_CONFIG", "/elsewhere/venus.yaml")
	assert.Equal(t, "/elsewhere/venus.yaml", l.ConfigPath())
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "debugger:\n  enable: true\n")

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)
	assert.True(t, cfg.Debugger.Enable)
}

func TestLoader_LoadRejectsInvalid(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "hooks:\n  layering: sideways\n")

	_, err := NewLoader(root).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hooks.layering")
}

func TestLoader_Resolve(t *testing.T) {
	root := t.TempDir()
	l := NewLoader(root)

	abs := filepath.Join(root, "abs", "x.dll")
	assert.Equal(t, abs, l.Resolve(abs))
	assert.Equal(t, filepath.Join(root, "Logs", "b.log"), l.Resolve(filepath.Join("Logs", "b.log")))
	assert.Equal(t, "", l.Resolve(""))
}
