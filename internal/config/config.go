// Package config handles loading and validation of the gateway configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigPath is the default location for the gateway configuration
// file when none is given on the command line.
const DefaultConfigPath = "/etc/rokok/gateway.yaml"

// Config holds everything the gateway needs beyond what the wire protocol
// itself encodes.
type Config struct {
	// ListenAddr is the address the HTTP/WebSocket server binds to.
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`

	// HandshakePath is the upgrade route pattern, e.g.
	// "/Free-VPN-Geo-Project/{hint:.+[:=-]\\d+}". Empty selects the default.
	HandshakePath string `mapstructure:"handshake_path" yaml:"handshake_path"`

	// DNSServerAddress and DNSServerPort name the resolver the DNS bridge
	// forwards DNS-over-TCP queries to.
	DNSServerAddress string `mapstructure:"dns_server_address" yaml:"dns_server_address"`
	DNSServerPort    int    `mapstructure:"dns_server_port" yaml:"dns_server_port"`

	// DialTimeoutSeconds bounds how long the tunnel controller waits to
	// connect to a remote endpoint (including a retry dial).
	DialTimeoutSeconds int `mapstructure:"dial_timeout_seconds" yaml:"dial_timeout_seconds"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// ServiceName is the name this process registers under when installed
	// as an OS service.
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// Load reads configuration from the given file path, falling back to
// DefaultConfigPath if configPath is empty. Environment variables under the
// ROKOK_ prefix override file values; a missing config file is not an error,
// since every field also carries a usable default.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("handshake_path", "")
	v.SetDefault("dns_server_address", "8.8.8.8")
	v.SetDefault("dns_server_port", 53)
	v.SetDefault("dial_timeout_seconds", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "rokok-gateway")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(DefaultConfigPath)
	}

	v.SetEnvPrefix("ROKOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	envBindings := map[string]string{
		"listen_addr":          "ROKOK_LISTEN_ADDR",
		"handshake_path":       "ROKOK_HANDSHAKE_PATH",
		"dns_server_address":   "ROKOK_DNS_SERVER_ADDRESS",
		"dns_server_port":      "ROKOK_DNS_SERVER_PORT",
		"dial_timeout_seconds": "ROKOK_DIAL_TIMEOUT_SECONDS",
		"log_level":            "ROKOK_LOG_LEVEL",
		"service_name":         "ROKOK_SERVICE_NAME",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			// Config file not found; rely on env vars and defaults.
		} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Same, for formats viper detects without a PathError.
		} else {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// Validate checks that all required configuration fields are present and
// well-formed.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.DNSServerPort <= 0 || c.DNSServerPort > 65535 {
		return fmt.Errorf("dns_server_port must be between 1 and 65535, got %d", c.DNSServerPort)
	}
	if c.DialTimeoutSeconds <= 0 {
		return fmt.Errorf("dial_timeout_seconds must be positive, got %d", c.DialTimeoutSeconds)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	return nil
}
