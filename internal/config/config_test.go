package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoncore/nano-virtualwire/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"SSH"}, cfg.CLI.Type)
	assert.Empty(t, cfg.CLI.Ports)
	assert.Equal(t, 30*time.Second, cfg.CLI.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
cli:
  type: [telnet, ssh]
  ports:
    telnet: 2323
  timeout: 5s
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"TELNET", "SSH"}, cfg.CLI.Type)
	assert.Equal(t, map[string]int{"TELNET": 2323}, cfg.CLI.Ports)
	assert.Equal(t, 5*time.Second, cfg.CLI.Timeout)
	assert.Equal(t, 30*time.Second, cfg.CLI.ConnectTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "cli:\n  timeout: 5s\n")
	t.Setenv("VW_CLI_TIMEOUT", "9s")
	t.Setenv("VW_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9*time.Second, cfg.CLI.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEquipment(t *testing.T) {
	cfg := &Config{CLI: CLIConfig{
		Type:    []string{"SSH"},
		Ports:   map[string]int{"SSH": 22},
		Timeout: 10 * time.Second,
	}}

	eq := cfg.Equipment(types.VendorPluribus, map[string]string{
		"cli_type":        "TELNET",
		"cli_port_telnet": "23",
	})

	assert.Equal(t, types.VendorPluribus, eq.Vendor)
	assert.Equal(t, []string{"TELNET"}, eq.SessionTypes)
	assert.Equal(t, map[string]int{"SSH": 22, "TELNET": 23}, eq.Ports)
	assert.Equal(t, 10*time.Second, eq.Timeout)
}
