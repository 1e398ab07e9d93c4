package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
wallet:
  username: alice
  password: secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "testnet", cfg.Wallet.Network)
	assert.Equal(t, "token", cfg.Wallet.AuthMode)
	assert.Equal(t, 1000, cfg.Polling.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Polling.Interval)
	assert.Equal(t, 30*time.Second, cfg.Network.Timeout)
	assert.Nil(t, cfg.Network.SocksProxy)
	assert.Equal(t, "tiramisu", cfg.Metrics.Namespace)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
wallet:
  network: mainnet
  server_url: http://localhost:8000/walletapp/
  username: alice
  password: secret
  register: true
  auth_mode: basic
polling:
  max_attempts: 20
  interval: 250ms
network:
  socks_proxy:
    host: 127.0.0.1:9050
rate_limit:
  requests_per_second: 5
  burst: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Wallet.Network)
	assert.Equal(t, "http://localhost:8000/walletapp/", cfg.Wallet.ServerUrl)
	assert.True(t, cfg.Wallet.Register)
	assert.Equal(t, "basic", cfg.Wallet.AuthMode)
	assert.Equal(t, 20, cfg.Polling.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Polling.Interval)
	require.NotNil(t, cfg.Network.SocksProxy)
	assert.Equal(t, "127.0.0.1:9050", cfg.Network.SocksProxy.Host)
	assert.Equal(t, 5.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 2, cfg.RateLimit.Burst)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
wallet:
  username: alice
  password: secret
`)
	t.Setenv("TIRAMISU_WALLET_USERNAME", "bob")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Wallet.Username)
	assert.Equal(t, "secret", cfg.Wallet.Password)
}

func TestLoadRejectsIncompleteConfiguration(t *testing.T) {
	tests := map[string]string{
		"missing username": "wallet:\n  password: secret\n",
		"missing password": "wallet:\n  username: alice\n",
		"negative budget":  "wallet:\n  username: alice\n  password: secret\npolling:\n  max_attempts: -1\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}
