// Package config loads nestview configuration from TOML.
//
// Every field is optional: a missing file or section falls back to the
// package defaults, and command-line flags override whatever the file sets.
//
//	[layout]
//	engine = "layered"
//	arrange = "TB"
//	timeout = "10s"
//
//	[project]
//	font_size = 16
//	resolve_dotted_ids = true
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//	connect_attempts = 5
//	connect_delay = "500ms"
//
//	[server]
//	addr = ":8080"
//
//	[render]
//	theme = "dark"
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nestview/pkg/cache"
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/measure"
	"github.com/matzehuels/nestview/pkg/oracle"
	"github.com/matzehuels/nestview/pkg/pipeline"
	"github.com/matzehuels/nestview/pkg/project"
	"github.com/matzehuels/nestview/pkg/render/svg"
)

// AppName names the XDG cache and config directories.
const AppName = "nestview"

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "NESTVIEW_CONFIG"

// Cache backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Backends lists the accepted cache backend names.
var Backends = []string{BackendNone, BackendFile, BackendRedis, BackendMongo}

// Defaults.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultMongoDatabase   = "nestview"
	DefaultMongoCollection = "cache"
)

// =============================================================================
// Types
// =============================================================================

// Config is the root of the configuration file.
type Config struct {
	Layout  Layout  `toml:"layout"`
	Project Project `toml:"project"`
	Cache   Cache   `toml:"cache"`
	Server  Server  `toml:"server"`
	Render  Render  `toml:"render"`
}

// Layout selects and tunes the layout oracle.
type Layout struct {
	Engine  string   `toml:"engine"`
	Arrange string   `toml:"arrange"` // overrides the document's arrange value when set
	Timeout Duration `toml:"timeout"`

	NodeNodeSpacing  float64 `toml:"node_node_spacing"`
	LayerSpacing     float64 `toml:"layer_spacing"`
	EdgeNodeSpacing  float64 `toml:"edge_node_spacing"`
	EdgeEdgeSpacing  float64 `toml:"edge_edge_spacing"`
	EdgeLabelSpacing float64 `toml:"edge_label_spacing"`
}

// Project tunes the visibility projector.
type Project struct {
	// FontSize > 0 measures labels with the embedded font instead of the
	// character-count approximation.
	FontSize         float64 `toml:"font_size"`
	ResolveDottedIDs bool    `toml:"resolve_dotted_ids"`
}

// Cache selects the layout and artifact cache backend.
type Cache struct {
	Backend string   `toml:"backend"`
	Dir     string   `toml:"dir"`
	Prefix  string   `toml:"prefix"`
	TTL     Duration `toml:"ttl"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`

	// ConnectAttempts and ConnectDelay bound the retries when a redis or
	// mongo backend is unreachable. The delay doubles after each attempt.
	ConnectAttempts int      `toml:"connect_attempts"`
	ConnectDelay    Duration `toml:"connect_delay"`
}

// Server configures the HTTP host.
type Server struct {
	Addr    string `toml:"addr"`
	Metrics bool   `toml:"metrics"`
}

// Render configures the SVG sink.
type Render struct {
	Theme    string  `toml:"theme"`
	PNGScale float64 `toml:"png_scale"`
	NoHints  bool    `toml:"no_hints"`
}

// Duration is a time.Duration written as a Go duration string ("1m30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// =============================================================================
// Loading
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// Load reads the TOML file at path. An empty path falls back to
// $NESTVIEW_CONFIG, then to the XDG config file if it exists, then to
// Default. Unknown keys are rejected so that typos do not go unnoticed.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	c, err := Decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode parses TOML text, applies defaults and validates the result.
func Decode(data string) (*Config, error) {
	var c Config
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Layout.Engine == "" {
		c.Layout.Engine = pipeline.DefaultEngine
	}
	if c.Layout.Timeout.Duration <= 0 {
		c.Layout.Timeout.Duration = pipeline.DefaultTimeout
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if c.Cache.TTL.Duration <= 0 {
		c.Cache.TTL.Duration = cache.TTLLayout
	}
	if c.Cache.ConnectAttempts <= 0 {
		c.Cache.ConnectAttempts = cache.DefaultBackoff.Attempts
	}
	if c.Cache.ConnectDelay.Duration <= 0 {
		c.Cache.ConnectDelay.Duration = cache.DefaultBackoff.Delay
	}
	if c.Cache.MongoDatabase == "" {
		c.Cache.MongoDatabase = DefaultMongoDatabase
	}
	if c.Cache.MongoCollection == "" {
		c.Cache.MongoCollection = DefaultMongoCollection
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Render.Theme == "" {
		c.Render.Theme = svg.DefaultTheme
	}
	if c.Render.PNGScale <= 0 {
		c.Render.PNGScale = pipeline.DefaultPNGScale
	}
}

// Validate checks enumerations and backend requirements.
func (c *Config) Validate() error {
	if err := pipeline.ValidateEngine(c.Layout.Engine); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[layout] engine")
	}
	if c.Layout.Arrange != "" {
		if err := errors.ValidateOneOf("arrange", strings.ToUpper(c.Layout.Arrange), "LR", "RL", "TB", "BT"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[layout] arrange")
		}
	}
	if err := errors.ValidateOneOf("cache backend", c.Cache.Backend, Backends...); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[cache] backend")
	}
	switch c.Cache.Backend {
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "[cache] redis_addr is required for the redis backend")
		}
	case BackendMongo:
		if c.Cache.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "[cache] mongo_uri is required for the mongo backend")
		}
	}
	if _, err := svg.LookupTheme(c.Render.Theme); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[render] theme")
	}
	return nil
}

// =============================================================================
// Component options
// =============================================================================

// LayoutOptions returns the oracle hints. dir is used when the file sets no
// arrange value.
func (c *Config) LayoutOptions(dir graph.Direction) oracle.Options {
	if c.Layout.Arrange != "" {
		dir = graph.ParseArrange(c.Layout.Arrange)
	}
	o := oracle.Options{
		Direction:        dir,
		NodeNodeSpacing:  c.Layout.NodeNodeSpacing,
		LayerSpacing:     c.Layout.LayerSpacing,
		EdgeNodeSpacing:  c.Layout.EdgeNodeSpacing,
		EdgeEdgeSpacing:  c.Layout.EdgeEdgeSpacing,
		EdgeLabelSpacing: c.Layout.EdgeLabelSpacing,
	}
	return o
}

// ProjectOptions returns the projector options.
func (c *Config) ProjectOptions() (project.Options, error) {
	opts := project.Options{ResolveDottedIDs: c.Project.ResolveDottedIDs}
	if c.Project.FontSize > 0 {
		f, err := measure.NewFont(c.Project.FontSize)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "[project] font_size")
		}
		opts.Measurer = f
	}
	return opts, nil
}

// RenderOptions returns the render stage options for the given formats.
func (c *Config) RenderOptions(formats []string) pipeline.RenderOptions {
	return pipeline.RenderOptions{
		Formats:  formats,
		Theme:    c.Render.Theme,
		PNGScale: c.Render.PNGScale,
		NoHints:  c.Render.NoHints,
	}
}

// OpenCache connects the configured backend. noCache forces a NullCache.
func (c *Config) OpenCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		return cache.Connect(ctx, c.backoff(), func(ctx context.Context) (cache.Cache, error) {
			return cache.NewRedisCache(ctx, c.Cache.RedisAddr, c.Cache.RedisPassword, c.Cache.RedisDB)
		})
	case BackendMongo:
		return cache.Connect(ctx, c.backoff(), func(ctx context.Context) (cache.Cache, error) {
			return cache.NewMongoCache(ctx, c.Cache.MongoURI, c.Cache.MongoDatabase, c.Cache.MongoCollection)
		})
	default:
		dir := c.Cache.Dir
		if dir == "" {
			d, err := CacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	}
}

func (c *Config) backoff() cache.Backoff {
	return cache.Backoff{Attempts: c.Cache.ConnectAttempts, Delay: c.Cache.ConnectDelay.Duration}
}

// Keyer returns the cache keyer, scoped when a prefix is configured.
func (c *Config) Keyer() cache.Keyer {
	if c.Cache.Prefix != "" {
		return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Cache.Prefix)
	}
	return cache.NewDefaultKeyer()
}

// =============================================================================
// Paths
// =============================================================================

// CacheDir returns the cache directory using XDG standard (~/.cache/nestview/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// DefaultPath returns the XDG config file path (~/.config/nestview/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}
