package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultGatewayURL   = "http://localhost:8080/mViewer/"
	DefaultTimeoutMS    = 5000
	DefaultAutoCloseMS  = 2000
	DefaultThemeName    = "default"
	DefaultChildKind    = "collection"
	configDirName       = "mongonaut"
	configFileName      = "config.toml"
	defaultStoreName    = "profiles.db"
	maxAutoCloseMS      = 60000
	minGatewayTimeoutMS = 100
)

// MongonautConfig is the console configuration file
type MongonautConfig struct {
	Gateway GatewayConfig `toml:"gateway"`
	UI      UIConfig      `toml:"ui"`
	Store   StoreConfig   `toml:"store"`
}

// GatewayConfig says where the REST gateway lives
type GatewayConfig struct {
	URL       string `toml:"url"`
	TimeoutMS int    `toml:"timeout_ms"`

	// TLS and auth towards a gateway behind HTTPS
	CACert     string `toml:"ca_cert,omitempty"`
	CAPath     string `toml:"ca_path,omitempty"`
	ClientCert string `toml:"client_cert,omitempty"`
	ClientKey  string `toml:"client_key,omitempty"`
	// Token is sent as a bearer token; MONGONAUT_GATEWAY_TOKEN overrides it
	Token string `toml:"token,omitempty"`
}

// UIConfig holds console behaviour and appearance
type UIConfig struct {
	AutoCloseMS int    `toml:"auto_close_ms"`
	ChildKind   string `toml:"child_kind"`
	Theme       string `toml:"theme"`
	// CopyCommand receives copied text on stdin, e.g. "xclip -selection clipboard"
	CopyCommand string `toml:"copy_command,omitempty"`
}

// StoreConfig holds the saved-profile database location
type StoreConfig struct {
	Path string `toml:"path,omitempty"`
}

// GetMongonautConfigPath returns the path to the configuration file
func GetMongonautConfigPath() string {
	if configPath := os.Getenv("MONGONAUT_CONFIG"); configPath != "" {
		return configPath
	}
	return filepath.Join(configDir(), configFileName)
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, configDirName)
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, configDirName)
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", configDirName)
	}
}

// DefaultStorePath is where profiles live when [store] path is unset
func DefaultStorePath() string {
	return filepath.Join(configDir(), defaultStoreName)
}

// GetDefaultConfig returns a config with sensible defaults
func GetDefaultConfig() *MongonautConfig {
	return &MongonautConfig{
		Gateway: GatewayConfig{URL: DefaultGatewayURL, TimeoutMS: DefaultTimeoutMS},
		UI:      UIConfig{AutoCloseMS: DefaultAutoCloseMS, ChildKind: DefaultChildKind, Theme: DefaultThemeName},
	}
}

// LoadMongonautConfig loads the configuration at path, falling back to
// defaults when the file does not exist. An empty path means the default
// location.
func LoadMongonautConfig(path string) (*MongonautConfig, error) {
	if path == "" {
		path = GetMongonautConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from %s: %w", path, err)
	}

	var config MongonautConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *MongonautConfig) applyDefaults() {
	if c.Gateway.URL == "" {
		c.Gateway.URL = DefaultGatewayURL
	}
	if c.Gateway.TimeoutMS == 0 {
		c.Gateway.TimeoutMS = DefaultTimeoutMS
	}
	if c.UI.AutoCloseMS == 0 {
		c.UI.AutoCloseMS = DefaultAutoCloseMS
	}
	if c.UI.ChildKind == "" {
		c.UI.ChildKind = DefaultChildKind
	}
	if c.UI.Theme == "" {
		c.UI.Theme = DefaultThemeName
	}
}

// Validate rejects values the console cannot work with
func (c *MongonautConfig) Validate() error {
	if c.Gateway.TimeoutMS < minGatewayTimeoutMS {
		return fmt.Errorf("gateway.timeout_ms must be at least %d, got %d", minGatewayTimeoutMS, c.Gateway.TimeoutMS)
	}
	if c.UI.AutoCloseMS < 0 || c.UI.AutoCloseMS > maxAutoCloseMS {
		return fmt.Errorf("ui.auto_close_ms must be between 0 and %d, got %d", maxAutoCloseMS, c.UI.AutoCloseMS)
	}
	switch c.UI.ChildKind {
	case "collection", "bucket":
	default:
		return fmt.Errorf("ui.child_kind must be \"collection\" or \"bucket\", got %q", c.UI.ChildKind)
	}
	return nil
}

// SaveMongonautConfig writes config to path, creating the directory
func SaveMongonautConfig(path string, config *MongonautConfig) error {
	if path == "" {
		path = GetMongonautConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := config.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}
	return nil
}

// Encode renders the effective configuration as TOML
func (c *MongonautConfig) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// GatewayTimeout returns the HTTP client timeout
func (c *MongonautConfig) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutMS) * time.Millisecond
}

// AutoCloseDelay returns how long success messages stay up
func (c *MongonautConfig) AutoCloseDelay() time.Duration {
	return time.Duration(c.UI.AutoCloseMS) * time.Millisecond
}

// ChildKind returns what the child panel lists on first mount
func (c *MongonautConfig) ChildKind() model.EntityKind {
	if c.UI.ChildKind == "bucket" {
		return model.KindBucket
	}
	return model.KindCollection
}

// StorePath returns the profile database path
func (c *MongonautConfig) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return DefaultStorePath()
}
