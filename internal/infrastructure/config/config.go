// Package config loads the widget configuration. Sources, highest precedence
// first: process environment, a .env file, an optional YAML file whose keys
// are the environment variable names.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Token store drivers.
const (
	StorePebble = "pebble"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	APIURL      string        `env:"CHAT_API_URL,      default=http://localhost:8000"`
	Env         string        `env:"ENV,               default=development"`
	LogLevel    string        `env:"LOG_LEVEL,         default=info"`
	HTTPTimeout time.Duration `env:"CHAT_HTTP_TIMEOUT, default=30s"`
	MetricsAddr string        `env:"METRICS_ADDR"`

	TokenStore TokenStoreConfig
	Mongo      MongoConfig
	Redis      RedisConfig
}

type TokenStoreConfig struct {
	Driver string `env:"TOKEN_STORE,      default=pebble"`
	Path   string `env:"TOKEN_STORE_PATH"`
	Key    string `env:"TOKEN_STORE_KEY,  default=authToken"`
}

type MongoConfig struct {
	URI        string `env:"MONGO_URI,        default=mongodb://localhost:27017"`
	Database   string `env:"MONGO_DB,         default=chatwidget"`
	Collection string `env:"MONGO_COLLECTION, default=client_storage"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// IsDevelopment reports whether human-friendly output should be used.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Options selects the configuration sources.
type Options struct {
	// File is an optional YAML file. Empty means none.
	File string
	// DotEnv is the .env file to read; missing files are ignored.
	// Defaults to ".env".
	DotEnv string
	// Env replaces the process environment. Tests only.
	Env envconfig.Lookuper
}

// Load reads the configuration from all sources.
func Load(ctx context.Context, opts Options) (*Config, error) {
	env := opts.Env
	if env == nil {
		env = envconfig.OsLookuper()
	}
	lookupers := []envconfig.Lookuper{env}

	dotenvPath := opts.DotEnv
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	dotenv, err := godotenv.Read(dotenvPath)
	switch {
	case err == nil:
		lookupers = append(lookupers, envconfig.MapLookuper(dotenv))
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config: read %s: %w", dotenvPath, err)
	}

	if opts.File != "" {
		values, err := readYAML(opts.File)
		if err != nil {
			return nil, err
		}
		lookupers = append(lookupers, envconfig.MapLookuper(values))
	}

	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.MultiLookuper(lookupers...),
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.APIURL == "" {
		return errors.New("config: CHAT_API_URL must not be empty")
	}

	c.TokenStore.Driver = strings.ToLower(c.TokenStore.Driver)
	switch c.TokenStore.Driver {
	case StorePebble, StoreRedis, StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("config: unknown TOKEN_STORE %q", c.TokenStore.Driver)
	}

	if c.TokenStore.Path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.TokenStore.Path = filepath.Join(dir, "chatwidget", "storage")
	}
	return nil
}

// readYAML flattens a YAML mapping of env names to scalar values.
func readYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("config: %s: key %s must be a scalar", path, k)
		case nil:
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}
