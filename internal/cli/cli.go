// Package cli implements the sketchforge command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sketchforge/sketchforge/pkg/archive"
	"github.com/sketchforge/sketchforge/pkg/buildinfo"
	"github.com/sketchforge/sketchforge/pkg/cache"
	"github.com/sketchforge/sketchforge/pkg/config"
	"github.com/sketchforge/sketchforge/pkg/forge"
	"github.com/sketchforge/sketchforge/pkg/oracle"
	"github.com/sketchforge/sketchforge/pkg/project"
	"github.com/sketchforge/sketchforge/pkg/registry"
	"github.com/sketchforge/sketchforge/pkg/resolve"
	"github.com/sketchforge/sketchforge/pkg/toolchain"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "sketchforge"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath overrides the default config file location (--config).
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "sketchforge",
		Short:        "Sketchforge generates and auto-fixes Arduino sketches",
		Long:         `Sketchforge turns natural-language requests into working Arduino sketches: it generates code with a generative model, installs the libraries the code needs, and compiles in a fix loop until the sketch builds.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/sketchforge/config.toml)")

	// Attach the logger to the command context so RunE bodies and the
	// helpers they call share one logger without threading it explicitly.
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.uploadCommand())
	root.AddCommand(c.monitorCommand())
	root.AddCommand(c.wiringCommand())
	root.AddCommand(c.boardsCommand())
	root.AddCommand(c.projectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the active config file plus environment overrides.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// =============================================================================
// Collaborator Factories
// =============================================================================

// newToolchain creates the arduino-cli wrapper from config.
func (c *CLI) newToolchain(cfg config.Config) toolchain.Toolchain {
	return toolchain.NewArduinoCLI(cfg.Toolchain.CLIPath)
}

// newOracle creates the model client from config.
func (c *CLI) newOracle(ctx context.Context, cfg config.Config) (oracle.Oracle, error) {
	if cfg.Oracle.APIKey == "" {
		return nil, fmt.Errorf("no oracle API key: set %s or oracle.api_key in the config file", config.EnvAPIKey)
	}
	return oracle.NewGemini(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model)
}

// newRunner wires the full compile-fix stack: oracle, toolchain, repository
// resolver, archive installer, and cascade resolver.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*forge.Runner, func(), error) {
	ora, err := c.newOracle(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	tc := c.newToolchain(cfg)

	metaCache := c.newCache(cfg, noCache)
	regCache := cache.NewScoped(metaCache, "registry")
	client := registry.NewClient(regCache, cfg.Registry.GitHubToken)
	repos := registry.NewResolver(ora, client, regCache, c.Logger)

	downloadDir := cfg.Toolchain.DownloadDir
	if downloadDir == "" {
		if dir, err := cacheDir(); err == nil {
			downloadDir = filepath.Join(dir, "downloads")
		} else {
			downloadDir = os.TempDir()
		}
	}
	installer := archive.NewInstaller(tc, downloadDir, c.Logger)
	resolver := resolve.NewResolver(tc, repos, installer, c.Logger)

	runner := forge.NewRunner(ora, tc, resolver, c.Logger)
	cleanup := func() { _ = metaCache.Close() }
	return runner, cleanup, nil
}

// newCache selects the metadata cache backend from config.
func (c *CLI) newCache(cfg config.Config, noCache bool) cache.Cache {
	if noCache || cfg.Cache.Backend == "none" {
		return cache.NewNullCache()
	}
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(context.Background(), cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err == nil {
			return rc
		}
		c.Logger.Warn("redis cache unavailable, falling back to file cache", "error", err)
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			return cache.NewNullCache()
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// openProjects opens the project registry database.
func openProjects() (*project.Store, error) {
	return project.Open("")
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/sketchforge/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Board Helpers
// =============================================================================

// newCatalog builds the board catalog with the config file's extra
// [[boards]] definitions layered over the built-ins.
func newCatalog(cfg config.Config) *toolchain.Catalog {
	extras := make([]toolchain.BoardProfile, 0, len(cfg.Boards))
	for _, b := range cfg.Boards {
		if b.Name == "" || b.FQBN == "" {
			continue
		}
		extras = append(extras, toolchain.BoardProfile{Name: b.Name, FQBN: b.FQBN})
	}
	return toolchain.NewCatalog(extras...)
}

// resolveBoard maps a human-readable board name to its profile.
func resolveBoard(cfg config.Config, name string) (toolchain.BoardProfile, error) {
	profile, ok := newCatalog(cfg).Lookup(name)
	if !ok {
		return toolchain.BoardProfile{}, fmt.Errorf("unknown board %q (see: sketchforge boards)", name)
	}
	return profile, nil
}
