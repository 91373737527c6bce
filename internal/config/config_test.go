package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "melody.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, e := Load(writeConfigFile(t, "compiler:\n  workers: 2\n"))
	require.NoError(t, e)
	assert.Equal(t, 256, cfg.Compiler.MaxDepth)
	assert.Equal(t, 2, cfg.Compiler.Workers)
	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.Equal(t, "patterns", cfg.Output.Package)
	assert.Equal(t, "./patterns", cfg.Watch.Dir)
	assert.Equal(t, 300, cfg.Watch.DebounceMs)
	assert.Equal(t, ".mdy", cfg.Watch.Ext)
	assert.Equal(t, "127.0.0.1:3320", cfg.Server.Listen)
	assert.EqualValues(t, 64*1024, cfg.Server.MaxBodyBytes)
	assert.Equal(t, ColorAuto, cfg.Logging.Color)

	assert.Equal(t, Default().Server, cfg.Server)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	wd, e := os.Getwd()
	require.NoError(t, e)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, e := Load("")
	require.NoError(t, e)
	assert.Equal(t, 4, cfg.Compiler.Workers)

	_, e = Load("missing.yaml")
	assert.ErrorIs(t, e, os.ErrNotExist)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
compiler:
  max_depth: 10
output:
  format: json
`)
	t.Setenv("MELODY_MAX_DEPTH", "20")
	t.Setenv("MELODY_WORKERS", " 8 ")
	t.Setenv("MELODY_OUTPUT_FORMAT", "go")
	t.Setenv("MELODY_WATCH_DIR", "/tmp/p")
	t.Setenv("MELODY_WATCH_DEBOUNCE_MS", "50")
	t.Setenv("MELODY_LISTEN", ":9999")
	t.Setenv("MELODY_COLOR", "never")

	cfg, e := Load(path)
	require.NoError(t, e)
	assert.Equal(t, 20, cfg.Compiler.MaxDepth)
	assert.Equal(t, 8, cfg.Compiler.Workers)
	assert.Equal(t, FormatGo, cfg.Output.Format)
	assert.Equal(t, "/tmp/p", cfg.Watch.Dir)
	assert.Equal(t, 50, cfg.Watch.DebounceMs)
	assert.Equal(t, ":9999", cfg.Server.Listen)
	assert.Equal(t, ColorNever, cfg.Logging.Color)
}

func TestLoadIgnoresMalformedEnvInt(t *testing.T) {
	t.Setenv("MELODY_MAX_DEPTH", "lots")
	cfg, e := Load(writeConfigFile(t, "{}\n"))
	require.NoError(t, e)
	assert.Equal(t, 256, cfg.Compiler.MaxDepth)
}

func TestLoadErrors(t *testing.T) {
	samples := map[string]string{
		"output:\n  format: xml\n":      "output.format",
		"output:\n  package: 1st\n":     "output.package",
		"watch:\n  ext: mdy\n":           "watch.ext",
		"logging:\n  color: sometimes\n": "logging.color",
		"compiler: [\n":                  "parse",
	}
	for content, msg := range samples {
		_, e := Load(writeConfigFile(t, content))
		require.Error(t, e, content)
		assert.Contains(t, e.Error(), msg, content)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	cfg.Compiler.Workers = 0
	assert.EqualError(t, Validate(cfg), "compiler.workers must be > 0")
}
