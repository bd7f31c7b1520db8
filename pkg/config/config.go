// Package config loads sketchforge configuration from a TOML file with
// environment-variable overrides for credentials.
//
// The default location follows the XDG convention:
// ~/.config/sketchforge/config.toml. Every field has a working default so a
// missing file is not an error; only the oracle API key must come from the
// file or the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/sketchforge/sketchforge/pkg/forge"
	"github.com/sketchforge/sketchforge/pkg/oracle"
)

const appName = "sketchforge"

// Environment variables honored as overrides.
const (
	EnvAPIKey      = "SKETCHFORGE_API_KEY"
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvRedisAddr   = "SKETCHFORGE_REDIS_ADDR"
)

// Config is the full application configuration.
type Config struct {
	Oracle    OracleConfig    `toml:"oracle"`
	Toolchain ToolchainConfig `toml:"toolchain"`
	Defaults  DefaultsConfig  `toml:"defaults"`
	Cache     CacheConfig     `toml:"cache"`
	Registry  RegistryConfig  `toml:"registry"`
	Serve     ServeConfig     `toml:"serve"`

	// Boards are extra board definitions layered over the built-in catalog.
	// An entry whose name matches a built-in board replaces it.
	Boards []BoardConfig `toml:"boards"`
}

// BoardConfig is one [[boards]] entry: a human-readable name and its FQBN.
type BoardConfig struct {
	Name string `toml:"name"`
	FQBN string `toml:"fqbn"`
}

// OracleConfig configures the generative model client.
type OracleConfig struct {
	// APIKey authenticates against the model provider. Overridden by
	// SKETCHFORGE_API_KEY.
	APIKey string `toml:"api_key"`

	// Model names the model to use. Empty means oracle.DefaultModel.
	Model string `toml:"model"`
}

// ToolchainConfig configures the arduino-cli wrapper.
type ToolchainConfig struct {
	// CLIPath is the arduino-cli binary. Empty means "arduino-cli" on PATH.
	CLIPath string `toml:"cli_path"`

	// DownloadDir stages library archive downloads. Empty means
	// ~/.cache/sketchforge/downloads.
	DownloadDir string `toml:"download_dir"`
}

// DefaultsConfig holds per-run defaults applied when flags are omitted.
type DefaultsConfig struct {
	Board       string `toml:"board"`
	RetryBudget int    `toml:"retry_budget"`

	// SketchDir is where new projects are created.
	SketchDir string `toml:"sketch_dir"`
}

// CacheConfig selects the metadata cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Empty means
	// ~/.cache/sketchforge.
	Dir string `toml:"dir"`

	// Redis settings, used when Backend is "redis".
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// RegistryConfig configures repository metadata lookups.
type RegistryConfig struct {
	// GitHubToken raises the API rate limit. Overridden by GITHUB_TOKEN.
	GitHubToken string `toml:"github_token"`
}

// ServeConfig configures the local preview server.
type ServeConfig struct {
	// Addr is the listen address for the preview API.
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Oracle: OracleConfig{
			Model: oracle.DefaultModel,
		},
		Toolchain: ToolchainConfig{
			CLIPath: "arduino-cli",
		},
		Defaults: DefaultsConfig{
			Board:       "Arduino Uno",
			RetryBudget: forge.DefaultRetryBudget,
		},
		Cache: CacheConfig{
			Backend: "file",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8337",
		},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config at path, layered over Default. A missing file yields
// the defaults; a malformed file is an error. Environment overrides are
// applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Oracle.APIKey = v
	}
	if v := os.Getenv(EnvGitHubToken); v != "" {
		c.Registry.GitHubToken = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = "redis"
	}
}

// Write persists the config as TOML, creating parent directories. Used by
// "sketchforge config init".
func (c Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}
