package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
name = "test"

[network]
tick_rate = "100ms"

[simulation]
corpse_timer = "3s"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Server.Name)
	assert.Equal(t, "save", cfg.Server.SaveRoot, "untouched keys keep defaults")
	assert.Equal(t, 100*time.Millisecond, cfg.Network.TickRate)
	assert.Equal(t, 3*time.Second, cfg.Simulation.CorpseTimer)
	assert.Equal(t, 64, cfg.Simulation.ChatHistory)
	assert.NotZero(t, cfg.Server.StartTime)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[network\n"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeConfig(t, "[database]\nenabled = true\ndsn = \"\"\n"))
	assert.ErrorContains(t, err, "database.dsn")

	_, err = Load(writeConfig(t, "[network]\ntick_rate = \"0s\"\n"))
	assert.ErrorContains(t, err, "tick_rate")
}

func TestPath(t *testing.T) {
	t.Setenv(EnvPath, "")
	assert.Equal(t, "config/server.toml", Path("config/server.toml"))
	t.Setenv(EnvPath, "/etc/emberfall.toml")
	assert.Equal(t, "/etc/emberfall.toml", Path("config/server.toml"))
}
