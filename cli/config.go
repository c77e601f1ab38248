package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/schjonhaug/cktap/transport"
)

// Config holds the settings read from the config file and global flags.
type Config struct {
	// Reader selects the first PC/SC reader whose name contains it.
	Reader string `yaml:"reader"`
	// EmulatorSocket is the unix socket of the card emulator.
	EmulatorSocket string `yaml:"emulator_socket"`
	// CardWait bounds how long to wait for a card to be presented.
	CardWait time.Duration `yaml:"card_wait"`
	Debug    bool          `yaml:"debug"`
	// StrictExit makes failed operations exit with ExitFailure.
	StrictExit bool `yaml:"strict_exit"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		EmulatorSocket: transport.DefaultEmulatorSocket,
		CardWait:       30 * time.Second,
	}
}

// DefaultConfigPath is $XDG_CONFIG_HOME/cktap/config.yaml or its platform equivalent.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cktap", "config.yaml")
}

// LoadConfig reads the config file at path over the defaults. A missing file
// is only an error when explicit is set.
func LoadConfig(path string, explicit bool) (Config, error) {

	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.CardWait <= 0 {
		return fmt.Errorf("card_wait must be positive")
	}
	return nil
}
