// Package cli implements the dynlayout command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dynlayout/pkg/cache"
	"github.com/matzehuels/dynlayout/pkg/errors"
	"github.com/matzehuels/dynlayout/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "dynlayout"

	// Cache backends accepted by --cache. Anything starting with redis:// or
	// rediss:// selects Redis.
	cacheFile   = "file"
	cacheMemory = "memory"
	cacheNone   = "none"

	// redisPrefix namespaces CLI entries in a shared Redis.
	redisPrefix = "dynlayout:cli:"
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
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the named cache.
func (c *CLI) newRunner(ctx context.Context, backend string) (*pipeline.Runner, error) {
	store, err := newCache(ctx, backend)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

func newCache(ctx context.Context, backend string) (cache.Cache, error) {
	switch {
	case backend == "" || backend == cacheFile:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case backend == cacheMemory:
		return cache.NewMemoryCache(time.Hour, 10*time.Minute), nil
	case backend == cacheNone:
		return cache.NewNullCache(), nil
	case strings.HasPrefix(backend, "redis://"), strings.HasPrefix(backend, "rediss://"):
		return cache.NewRedisCache(ctx, backend, redisPrefix)
	}
	return nil, errors.New(errors.ErrCodeInvalidOption, "unknown cache backend %q (must be file, memory, none or a redis:// URL)", backend)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/dynlayout/).
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

// outputPath derives an output file name from the input: graph.json with
// suffix ".layout.json" becomes graph.layout.json.
func outputPath(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}
