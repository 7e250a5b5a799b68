// ABOUTME: YAML configuration with defaults-then-unmarshal loading
// ABOUTME: Covers server address, auth token, and storage paths
package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Client  ClientConfig  `yaml:"client"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Token guards mutating API calls when set. Empty disables auth.
	Token string `yaml:"token"`
}

type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	ActivityPath string `yaml:"activity_path"`
}

type ClientConfig struct {
	ReconnectEvery time.Duration `yaml:"reconnect_every"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}

func defaultConfig() *Config {
	dataDir := filepath.Join(xdg.DataHome, "coldreach")
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8090,
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(dataDir, "coldreach.db"),
			ActivityPath: filepath.Join(dataDir, "activity"),
		},
		Client: ClientConfig{
			ReconnectEvery: 10 * time.Second,
			DialTimeout:    5 * time.Second,
			MaxRetries:     30,
		},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists and falls back to defaults when it
// does not. Other read or parse errors still fail.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// DefaultPath returns the XDG location for the config file.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "coldreach", "config.yaml")
}

// GenerateToken returns a random hex token for the server auth setting.
func GenerateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// EnsureServerToken generates a server token when none is configured. It
// reports whether a token was generated so the caller can print it once.
func (c *Config) EnsureServerToken() (bool, error) {
	if c.Server.Token != "" {
		return false, nil
	}
	token, err := GenerateToken()
	if err != nil {
		return false, err
	}
	c.Server.Token = token
	return true, nil
}
