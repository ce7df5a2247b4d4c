package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/nestview/pkg/cache"
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/measure"
	"github.com/matzehuels/nestview/pkg/pipeline"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Layout.Engine != pipeline.DefaultEngine {
		t.Errorf("engine = %q", c.Layout.Engine)
	}
	if c.Layout.Timeout.Duration != pipeline.DefaultTimeout {
		t.Errorf("timeout = %v", c.Layout.Timeout)
	}
	if c.Cache.Backend != BackendFile {
		t.Errorf("backend = %q", c.Cache.Backend)
	}
	if c.Server.Addr != DefaultAddr {
		t.Errorf("addr = %q", c.Server.Addr)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestDecode(t *testing.T) {
	c, err := Decode(`
[layout]
engine = "graphviz"
arrange = "tb"
timeout = "5s"
layer_spacing = 80

[project]
resolve_dotted_ids = true

[cache]
backend = "none"
ttl = "1h30m"
connect_attempts = 5
connect_delay = "250ms"

[server]
addr = ":9000"
metrics = true

[render]
theme = "dark"
`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Layout.Engine != pipeline.EngineGraphviz {
		t.Errorf("engine = %q", c.Layout.Engine)
	}
	if c.Layout.Timeout.Duration != 5*time.Second {
		t.Errorf("timeout = %v", c.Layout.Timeout)
	}
	if c.Cache.ConnectAttempts != 5 || c.Cache.ConnectDelay.Duration != 250*time.Millisecond {
		t.Errorf("connect = %d, %v", c.Cache.ConnectAttempts, c.Cache.ConnectDelay)
	}
	if c.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("ttl = %v", c.Cache.TTL)
	}
	if !c.Project.ResolveDottedIDs || !c.Server.Metrics {
		t.Error("booleans not decoded")
	}
	if c.Render.Theme != "dark" {
		t.Errorf("theme = %q", c.Render.Theme)
	}

	opts := c.LayoutOptions(graph.DirectionRight)
	if opts.Direction != graph.DirectionDown {
		t.Errorf("direction = %q, arrange should override the document", opts.Direction)
	}
	if opts.LayerSpacing != 80 {
		t.Errorf("layer spacing = %v", opts.LayerSpacing)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", `[layout`},
		{"unknown key", "[layout]\nengin = \"layered\""},
		{"bad engine", "[layout]\nengine = \"elk\""},
		{"bad arrange", "[layout]\narrange = \"diagonal\""},
		{"bad duration", "[layout]\ntimeout = \"soon\""},
		{"bad backend", "[cache]\nbackend = \"memcached\""},
		{"redis without addr", "[cache]\nbackend = \"redis\""},
		{"mongo without uri", "[cache]\nbackend = \"mongo\""},
		{"bad theme", "[render]\ntheme = \"neon\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Decode() err = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nestview.toml")
	if err := os.WriteFile(path, []byte("[render]\ntheme = \"dark\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Render.Theme != "dark" {
		t.Errorf("theme = %q", c.Render.Theme)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestLoadFallbacks(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	t.Setenv(EnvConfig, "")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Render.Theme != Default().Render.Theme {
		t.Error("no file should yield defaults")
	}

	xdg := filepath.Join(dir, AppName, "config.toml")
	if err := os.MkdirAll(filepath.Dir(xdg), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(xdg, []byte("[server]\naddr = \":7000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != ":7000" {
		t.Errorf("addr = %q, want the XDG file value", c.Server.Addr)
	}

	env := filepath.Join(dir, "env.toml")
	if err := os.WriteFile(env, []byte("[server]\naddr = \":7001\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfig, env)
	c, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != ":7001" {
		t.Errorf("addr = %q, want the env file value", c.Server.Addr)
	}
}

func TestProjectOptions(t *testing.T) {
	c := Default()
	opts, err := c.ProjectOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Measurer != nil {
		t.Error("default should leave the measurer to the projector")
	}

	c.Project.FontSize = 14
	opts, err = c.ProjectOptions()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := opts.Measurer.(*measure.Font); !ok {
		t.Errorf("measurer = %T, want *measure.Font", opts.Measurer)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	t.Run("no cache flag", func(t *testing.T) {
		c, err := Default().OpenCache(ctx, true)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := c.(*cache.NullCache); !ok {
			t.Errorf("cache = %T", c)
		}
	})

	t.Run("file", func(t *testing.T) {
		cfg := Default()
		cfg.Cache.Dir = t.TempDir()
		c, err := cfg.OpenCache(ctx, false)
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()
		if fc, ok := c.(*cache.FileCache); !ok || fc.Dir() != cfg.Cache.Dir {
			t.Errorf("cache = %T", c)
		}
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := Default()
		cfg.Cache.Backend = BackendRedis
		cfg.Cache.RedisAddr = mr.Addr()
		c, err := cfg.OpenCache(ctx, false)
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()
		if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
			t.Fatal(err)
		}
		if !mr.Exists("k") {
			t.Error("value should be stored in redis")
		}
	})

	t.Run("redis retries until reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := Default()
		cfg.Cache.Backend = BackendRedis
		cfg.Cache.RedisAddr = mr.Addr()
		cfg.Cache.ConnectAttempts = 6
		cfg.Cache.ConnectDelay.Duration = 10 * time.Millisecond

		mr.Close()
		restarted := make(chan error, 1)
		go func() {
			time.Sleep(25 * time.Millisecond)
			restarted <- mr.Restart()
		}()

		c, err := cfg.OpenCache(ctx, false)
		if rerr := <-restarted; rerr != nil {
			t.Fatalf("Restart: %v", rerr)
		}
		if err != nil {
			t.Fatalf("OpenCache should retry until redis is back: %v", err)
		}
		c.Close()
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := Default()
		cfg.Cache.Backend = BackendRedis
		cfg.Cache.RedisAddr = addr
		cfg.Cache.ConnectAttempts = 2
		cfg.Cache.ConnectDelay.Duration = time.Millisecond

		if _, err := cfg.OpenCache(ctx, false); !cache.IsRetryable(err) {
			t.Errorf("err = %v, want a retryable connection error", err)
		}
	})
}

func TestKeyer(t *testing.T) {
	c := Default()
	plain := c.Keyer().LayoutKey("h", cache.LayoutKeyOpts{Engine: "layered"})
	c.Cache.Prefix = "staging:"
	scoped := c.Keyer().LayoutKey("h", cache.LayoutKeyOpts{Engine: "layered"})
	if scoped != "staging:"+plain {
		t.Errorf("scoped = %q, plain = %q", scoped, plain)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", AppName) {
		t.Errorf("CacheDir() = %q", dir)
	}
}
