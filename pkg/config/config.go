// Package config loads causalog settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/causalog/config.toml (falling back to
// ~/.config/causalog/config.toml) unless a path is given explicitly. Every
// key is optional; missing keys keep the values from [Default].
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "12h"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[paths]
//	max_length = 12
//	max_paths = 500
//
// CAUSALOG_REDIS_ADDR and CAUSALOG_MONGO_URI override the corresponding keys,
// so credentials can stay out of the file.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/causalog/pkg/cache"
	"github.com/matzehuels/causalog/pkg/dag"
	errs "github.com/matzehuels/causalog/pkg/errors"
	"github.com/matzehuels/causalog/pkg/session"
)

const appName = "causalog"

// Environment variables that override file settings.
const (
	EnvRedisAddr = "CAUSALOG_REDIS_ADDR"
	EnvMongoURI  = "CAUSALOG_MONGO_URI"
)

// Config is the full set of settings.
type Config struct {
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Paths  PathsConfig  `toml:"paths"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// CacheConfig selects the result cache.
type CacheConfig struct {
	Backend       string   `toml:"backend"` // file, redis or none
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	TTL           Duration `toml:"ttl"`
}

// StoreConfig selects the session store.
type StoreConfig struct {
	Backend    string   `toml:"backend"` // file, mongo or memory
	Dir        string   `toml:"dir"`
	MongoURI   string   `toml:"mongo_uri"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	TTL        Duration `toml:"ttl"`
}

// PathsConfig bounds path enumeration. Zero means unlimited.
type PathsConfig struct {
	MaxLength int `toml:"max_length"`
	MaxPaths  int `toml:"max_paths"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr    string   `toml:"addr"`
	Timeout Duration `toml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn or error
}

// Duration is a time.Duration written as a string such as "90s" or "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend:   cache.BackendFile,
			Dir:       CacheDir(),
			RedisAddr: "localhost:6379",
			TTL:       Duration{cache.DefaultTTL},
		},
		Store: StoreConfig{
			Backend:    session.BackendFile,
			Dir:        filepath.Join(configHome(), appName, "sessions"),
			MongoURI:   "mongodb://localhost:27017",
			Database:   appName,
			Collection: "sessions",
			TTL:        Duration{session.DefaultTTL},
		},
		Paths: PathsConfig{
			MaxLength: 0,
			MaxPaths:  1000,
		},
		Server: ServerConfig{
			Addr:    ":8080",
			Timeout: Duration{30 * time.Second},
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(configHome(), appName, "config.toml")
}

// CacheDir returns the cache directory using the XDG standard
// (~/.cache/causalog/).
func CacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".cache", appName)
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, ".config")
}

// Load reads the config file at path over the defaults and applies
// environment overrides. An empty path means [DefaultPath]; a missing
// default file is not an error, a missing explicit file is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg.applyEnv()
			return cfg, cfg.Validate()
		}
		return nil, errs.Wrap(errs.ErrCodeNotFound, err, "config file %s", path)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errs.New(errs.ErrCodeInvalidInput, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// Decode reads TOML from r over the defaults. Environment overrides are not
// applied.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse config")
	}
	return cfg, cfg.Validate()
}

// Write encodes cfg as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
	}
}

// Validate checks backend names and limits.
func (c *Config) Validate() error {
	if !slices.Contains([]string{cache.BackendFile, cache.BackendRedis, cache.BackendNone}, c.Cache.Backend) {
		return errs.New(errs.ErrCodeInvalidInput, "cache.backend %q: want file, redis or none", c.Cache.Backend)
	}
	if !slices.Contains([]string{session.BackendFile, session.BackendMongo, session.BackendMemory}, c.Store.Backend) {
		return errs.New(errs.ErrCodeInvalidInput, "store.backend %q: want file, mongo or memory", c.Store.Backend)
	}
	if c.Paths.MaxLength < 0 || c.Paths.MaxPaths < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "paths limits must not be negative")
	}
	if c.Cache.TTL.Duration < 0 || c.Store.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "ttl must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errs.New(errs.ErrCodeInvalidInput, "log.level %q: want debug, info, warn or error", c.Log.Level)
	}
	return nil
}

// CacheOptions converts the cache section for [cache.Open].
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   appName + ":",
		},
	}
}

// StoreOptions converts the store section for [session.Open].
func (c *Config) StoreOptions() session.Options {
	return session.Options{
		Backend: c.Store.Backend,
		Dir:     c.Store.Dir,
		Mongo: session.MongoConfig{
			URI:        c.Store.MongoURI,
			Database:   c.Store.Database,
			Collection: c.Store.Collection,
		},
	}
}

// PathLimits converts the paths section.
func (c *Config) PathLimits() dag.PathLimits {
	return dag.PathLimits{MaxLength: c.Paths.MaxLength, MaxPaths: c.Paths.MaxPaths}
}

// String renders the config as TOML, for diagnostics.
func (c *Config) String() string {
	var b strings.Builder
	if err := c.Write(&b); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
