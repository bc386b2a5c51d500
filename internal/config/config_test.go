package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, "8.8.8.8", cfg.DNSServerAddress)
	require.Equal(t, 53, cfg.DNSServerPort)
	require.Equal(t, 10, cfg.DialTimeoutSeconds)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	contents := "listen_addr: \"0.0.0.0:9443\"\ndns_server_address: \"1.1.1.1\"\nlog_level: \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9443", cfg.ListenAddr)
	require.Equal(t, "1.1.1.1", cfg.DNSServerAddress)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 53, cfg.DNSServerPort, "unset fields keep their default")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":1\"\n"), 0o600))

	t.Setenv("ROKOK_LISTEN_ADDR", ":2")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":2", cfg.ListenAddr)
}

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	cfg := &Config{
		ListenAddr:         ":8080",
		DNSServerPort:      53,
		DialTimeoutSeconds: 10,
		LogLevel:           "verbose",
	}
	require.Error(t, cfg.Validate())
}

func TestValidate_RejectsBadDNSPort(t *testing.T) {
	cfg := &Config{
		ListenAddr:         ":8080",
		DNSServerPort:      70000,
		DialTimeoutSeconds: 10,
		LogLevel:           "info",
	}
	require.Error(t, cfg.Validate())
}
