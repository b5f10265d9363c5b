package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GatewayServerConfig is the YAML configuration of the REST gateway
type GatewayServerConfig struct {
	Listen   string            `yaml:"listen"`
	BasePath string            `yaml:"base-path"`
	ReadOnly bool              `yaml:"read-only,omitempty"`
	LogLevel string            `yaml:"log-level,omitempty"`
	Mongo    MongoClientConfig `yaml:"mongo"`

	// AuthToken, when set, must arrive as "Authorization: Bearer <token>"
	AuthToken string `yaml:"auth-token,omitempty"`
	TLSCert   string `yaml:"tls-cert,omitempty"`
	TLSKey    string `yaml:"tls-key,omitempty"`
}

// TLSEnabled reports whether both halves of the server key pair are set
func (c *GatewayServerConfig) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// MongoClientConfig tunes the driver connections the gateway opens
type MongoClientConfig struct {
	ConnectTimeout         time.Duration `yaml:"connect-timeout"`
	ServerSelectionTimeout time.Duration `yaml:"server-selection-timeout"`
	// OperationTimeout bounds each driver call made for a request
	OperationTimeout       time.Duration `yaml:"operation-timeout,omitempty"`
	AuthSource             string        `yaml:"auth-source,omitempty"`
	AppName                string        `yaml:"app-name,omitempty"`
}

// DefaultGatewayServerConfig mirrors what the console expects out of the box
func DefaultGatewayServerConfig() *GatewayServerConfig {
	return &GatewayServerConfig{
		Listen:   ":8080",
		BasePath: "/mViewer/",
		LogLevel: "info",
		Mongo: MongoClientConfig{
			ConnectTimeout:         5 * time.Second,
			ServerSelectionTimeout: 5 * time.Second,
			OperationTimeout:       10 * time.Second,
			AuthSource:             "admin",
			AppName:                "mongonaut-gateway",
		},
	}
}

// ReadGatewayConfigFromPath reads the gateway configuration. An empty path
// returns the defaults.
func ReadGatewayConfigFromPath(configPath string) (*GatewayServerConfig, error) {
	config := DefaultGatewayServerConfig()
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway config from %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse gateway config: %w", err)
	}

	config.BasePath = normalizeBasePath(config.BasePath)
	if config.Listen == "" {
		return nil, fmt.Errorf("gateway config: listen address is required")
	}
	if (config.TLSCert == "") != (config.TLSKey == "") {
		return nil, fmt.Errorf("gateway config: tls-cert and tls-key must be set together")
	}
	return config, nil
}

// normalizeBasePath makes sure the prefix starts and ends with a slash
func normalizeBasePath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	if p[len(p)-1] != '/' {
		p += "/"
	}
	return p
}
