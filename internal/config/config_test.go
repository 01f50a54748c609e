package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inputcore.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
[[device]]
name = "main-keyboard"
devnodes = ["/dev/input/event0"]
preset_path = "/etc/inputcore/presets/main.json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "/var/lib/inputcore/variables.db", cfg.VariableStore.Path)
	assert.Equal(t, ":9414", cfg.Metrics.ListenAddr)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay())
	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, "main-keyboard", cfg.Devices[0].Name)
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := writeTempConfig(t, `
log_level = "debug"

[variable_store]
path = "/tmp/vars.db"

[metrics]
listen_addr = "127.0.0.1:9000"

[retry]
max_attempts = 10
base_delay_ms = 250
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/vars.db", cfg.VariableStore.Path)
	assert.Equal(t, "127.0.0.1:9000", cfg.Metrics.ListenAddr)
	assert.Equal(t, 10, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadMalformedTOML(t *testing.T) {
	path := writeTempConfig(t, `this is not = [valid toml`)
	_, err := Load(path)
	assert.Error(t, err)
}
