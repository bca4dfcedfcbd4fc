package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete on-disk configuration for bridgecli.
type Config struct {
	Bridge   BridgeConfig   `yaml:"bridge"`
	Terminal TerminalConfig `yaml:"terminal"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Runner   RunnerConfig   `yaml:"runner"`
}

// BridgeConfig locates the remote bridge process.
type BridgeConfig struct {
	Hosts     []string `yaml:"hosts"`      // tried in order at dial time
	Port      int      `yaml:"port"`       // bridge listen port
	TimeoutMS int      `yaml:"timeout_ms"` // per round-trip deadline
}

// TerminalConfig locates the trading terminal on disk.
type TerminalConfig struct {
	Path    string `yaml:"path"`     // terminal executable, Windows or POSIX form
	DataDir string `yaml:"data_dir"` // terminal data directory root
}

// DefaultsConfig supplies the symbol/timeframe used when a command omits them.
type DefaultsConfig struct {
	Symbol    string `yaml:"symbol"`
	Timeframe string `yaml:"timeframe"`
}

// RunnerConfig names the external installer and tester commands.
type RunnerConfig struct {
	Installer string `yaml:"installer"`
	Tester    string `yaml:"tester"`
}

// DefaultConfig returns the built-in defaults: a local bridge on the
// conventional port and a 5s round-trip deadline.
func DefaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Hosts:     []string{"127.0.0.1"},
			Port:      9000,
			TimeoutMS: 5000,
		},
	}
}

// LoadConfig loads configuration from a YAML file. Absent fields stay zero;
// Resolve fills them from the environment, flags and built-in defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate checks if the resolved configuration is usable.
func (c *Config) Validate() error {
	if len(c.Bridge.Hosts) == 0 {
		return fmt.Errorf("bridge.hosts cannot be empty")
	}
	for _, h := range c.Bridge.Hosts {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("bridge.hosts contains an empty host")
		}
	}
	if c.Bridge.Port <= 0 || c.Bridge.Port > 65535 {
		return fmt.Errorf("bridge.port must be in 1..65535, got %d", c.Bridge.Port)
	}
	if c.Bridge.TimeoutMS <= 0 {
		return fmt.Errorf("bridge.timeout_ms must be positive, got %d", c.Bridge.TimeoutMS)
	}
	return nil
}
