package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/causalog/pkg/cache"
	errs "github.com/matzehuels/causalog/pkg/errors"
	"github.com/matzehuels/causalog/pkg/session"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Cache.Backend != cache.BackendFile || cfg.Store.Backend != session.BackendFile {
		t.Errorf("default backends = %q, %q", cfg.Cache.Backend, cfg.Store.Backend)
	}
	if cfg.Cache.TTL.Duration != cache.DefaultTTL {
		t.Errorf("Cache.TTL = %v, want %v", cfg.Cache.TTL, cache.DefaultTTL)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[cache]
backend = "redis"
redis_addr = "redis:6379"
redis_db = 2
ttl = "90m"

[store]
backend = "memory"

[paths]
max_length = 8
max_paths = 50

[log]
level = "debug"
`)
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvMongoURI, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "redis:6379" || cfg.Cache.RedisDB != 2 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("Cache.TTL = %v, want 90m", cfg.Cache.TTL)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
	if cfg.Store.Database != "causalog" {
		t.Errorf("Store.Database = %q, want default", cfg.Store.Database)
	}
	if got := cfg.PathLimits(); got.MaxLength != 8 || got.MaxPaths != 50 {
		t.Errorf("PathLimits() = %+v", got)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "[cache]\nredis_addr = \"file:6379\"\n")
	t.Setenv(EnvRedisAddr, "env:6379")
	t.Setenv(EnvMongoURI, "mongodb://env:27017")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.RedisAddr != "env:6379" {
		t.Errorf("RedisAddr = %q, want env value", cfg.Cache.RedisAddr)
	}
	if cfg.StoreOptions().Mongo.URI != "mongodb://env:27017" {
		t.Errorf("Mongo.URI = %q, want env value", cfg.StoreOptions().Mongo.URI)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errs.Code
	}{
		{"syntax", "[cache\n", errs.ErrCodeInvalidFormat},
		{"bad duration", "[cache]\nttl = \"soon\"\n", errs.ErrCodeInvalidFormat},
		{"unknown key", "[cache]\nbackedn = \"file\"\n", errs.ErrCodeInvalidInput},
		{"bad backend", "[store]\nbackend = \"postgres\"\n", errs.ErrCodeInvalidInput},
		{"negative limit", "[paths]\nmax_paths = -1\n", errs.ErrCodeInvalidInput},
		{"bad level", "[log]\nlevel = \"loud\"\n", errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errs.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := Load(""); err != nil {
		t.Errorf("Load(\"\") without default file = %v, want nil", err)
	}
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("Load(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = cache.BackendNone
	cfg.Store.TTL = Duration{time.Hour}

	var b strings.Builder
	if err := cfg.Write(&b); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !strings.Contains(b.String(), `ttl = "1h0m0s"`) {
		t.Errorf("Write() output missing duration string:\n%s", b.String())
	}

	back, err := Decode(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if back.Cache.Backend != cache.BackendNone || back.Store.TTL.Duration != time.Hour {
		t.Errorf("round trip = %+v", back)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	if got := CacheDir(); got != "/tmp/xdg/causalog" {
		t.Errorf("CacheDir() = %q, want /tmp/xdg/causalog", got)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	home, _ := os.UserHomeDir()
	if got, want := CacheDir(), filepath.Join(home, ".cache", "causalog"); got != want {
		t.Errorf("CacheDir() = %q, want %q", got, want)
	}
}

func TestCacheOptions(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = cache.BackendRedis
	opts := cfg.CacheOptions()
	if opts.Backend != cache.BackendRedis || opts.Redis.Prefix != "causalog:" {
		t.Errorf("CacheOptions() = %+v", opts)
	}
}
