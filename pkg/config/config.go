package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// LocalConfigFile is the project-local config filename.
const LocalConfigFile = "s3gems.local.toml"

const envPrefix = "S3GEMS"

// Config holds runtime settings for the s3gems CLI. It is resolved with
// Viper precedence: env vars > s3gems.local.toml (project-local) >
// ~/.s3gems/config.toml (global) > defaults.
type Config struct {
	// AWSCLI overrides discovery of the aws binary.
	AWSCLI string `toml:"aws_cli" mapstructure:"aws_cli"`
	// CacheDir overrides the default app cache directory for gem copies.
	CacheDir string `toml:"cache_dir" mapstructure:"cache_dir"`
	// NonInteractive suppresses prompts; SSO re-login then runs without
	// asking for consent.
	NonInteractive bool `toml:"non_interactive" mapstructure:"non_interactive"`
}

// Load resolves configuration for the current working directory.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}
	globalPath := filepath.Join(home, ".s3gems", "config.toml")
	return load(globalPath, LocalConfigFile)
}

// load is the internal implementation that accepts explicit paths, making
// it testable without touching the real home directory.
func load(globalPath, localPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	// Lowest priority: global config; ignore if missing.
	v.SetConfigFile(globalPath)
	_ = v.ReadInConfig()

	// Higher priority: project-local config.
	if _, err := os.Stat(localPath); err == nil {
		v.SetConfigFile(localPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", localPath, err)
		}
	}

	// Highest priority: S3GEMS_* environment variables.
	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{"aws_cli", "cache_dir", "non_interactive"} {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Marshal renders the config as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// GlobalConfigDir returns the path to ~/.s3gems, creating it if necessary.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	dir := filepath.Join(home, ".s3gems")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}

// WriteGlobal persists cfg to ~/.s3gems/config.toml and returns the path
// written.
func WriteGlobal(cfg *Config) (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.toml")
	return path, Write(path, cfg)
}

// Write persists cfg as TOML to path.
func Write(path string, cfg *Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
