// Package config loads process settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/bargom/notifydal/internal/cache"
	"github.com/bargom/notifydal/internal/database/mongodb"
	"github.com/bargom/notifydal/internal/database/setup"
	"github.com/bargom/notifydal/pkg/logging"
)

type Config struct {
	Storage StorageConfig
	Mongo   MongoConfig
	Cache   CacheConfig
	Server  ServerConfig
	Metrics MetricsConfig
	Log     logging.Config
}

type StorageConfig struct {
	Backend string `envconfig:"STORAGE_BACKEND" default:"mongodb" validate:"oneof=mongodb mongo memory mem"`
}

type MongoConfig struct {
	URI                    string        `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017" validate:"required"`
	Database               string        `envconfig:"MONGODB_DATABASE" default:"notifydal" validate:"required"`
	AppName                string        `envconfig:"MONGODB_APP_NAME" default:"notifydal"`
	MinPoolSize            uint64        `envconfig:"MONGODB_MIN_POOL_SIZE" default:"2"`
	MaxPoolSize            uint64        `envconfig:"MONGODB_MAX_POOL_SIZE" default:"100" validate:"gtefield=MinPoolSize"`
	ConnectTimeout         time.Duration `envconfig:"MONGODB_CONNECT_TIMEOUT" default:"10s"`
	SocketTimeout          time.Duration `envconfig:"MONGODB_SOCKET_TIMEOUT" default:"30s"`
	ServerSelectionTimeout time.Duration `envconfig:"MONGODB_SERVER_SELECTION_TIMEOUT" default:"5s"`
	ReadPreference         string        `envconfig:"MONGODB_READ_PREFERENCE" default:"primary" validate:"oneof=primary primaryPreferred secondary secondaryPreferred nearest"`
	RetryWrites            bool          `envconfig:"MONGODB_RETRY_WRITES" default:"true"`
	RetryReads             bool          `envconfig:"MONGODB_RETRY_READS" default:"true"`
	MaxRetries             int           `envconfig:"MONGODB_MAX_RETRIES" default:"3" validate:"gte=0"`
	RetryBackoff           time.Duration `envconfig:"MONGODB_RETRY_BACKOFF" default:"100ms"`
	MaxRetryBackoff        time.Duration `envconfig:"MONGODB_MAX_RETRY_BACKOFF" default:"5s"`
}

type CacheConfig struct {
	Type      string        `envconfig:"CACHE_TYPE" default:"memory" validate:"oneof=memory redis none"`
	RedisURL  string        `envconfig:"REDIS_URL" validate:"required_if=Type redis"`
	Password  string        `envconfig:"REDIS_PASSWORD"`
	DB        int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
	PoolSize  int           `envconfig:"REDIS_POOL_SIZE" default:"10" validate:"gte=0"`
	TTL       time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	Prefix    string        `envconfig:"CACHE_PREFIX" default:"notifydal"`
	MaxItems  int           `envconfig:"CACHE_MAX_ITEMS" default:"10000" validate:"gte=0"`
	MaxMemory int64         `envconfig:"CACHE_MAX_MEMORY" default:"67108864" validate:"gte=0"`
}

type ServerConfig struct {
	Host            string        `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"HTTP_PORT" default:"8080" validate:"gte=0,lte=65535"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
	RequestTimeout  time.Duration `envconfig:"HTTP_REQUEST_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

type MetricsConfig struct {
	Enabled     bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Environment string `envconfig:"APP_ENV" default:"development"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads settings from the given .env files, then the environment.
// Variables already set in the environment win.
func LoadFile(filenames ...string) (*Config, error) {
	if err := godotenv.Load(filenames...); err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return Load()
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Backend returns the parsed storage backend.
func (c *Config) Backend() (setup.Backend, error) {
	return setup.ParseBackend(c.Storage.Backend)
}

// MongoDB converts the Mongo section for the mongodb package.
func (c *Config) MongoDB() mongodb.Config {
	m := c.Mongo
	return mongodb.Config{
		URI:                    m.URI,
		Database:               m.Database,
		AppName:                m.AppName,
		MinPoolSize:            m.MinPoolSize,
		MaxPoolSize:            m.MaxPoolSize,
		ConnectTimeout:         m.ConnectTimeout,
		SocketTimeout:          m.SocketTimeout,
		ServerSelectionTimeout: m.ServerSelectionTimeout,
		ReadPreference:         m.ReadPreference,
		RetryWrites:            m.RetryWrites,
		RetryReads:             m.RetryReads,
		MaxRetries:             m.MaxRetries,
		RetryBackoff:           m.RetryBackoff,
		MaxRetryBackoff:        m.MaxRetryBackoff,
	}
}

// CacheBackend converts the Cache section for the cache package.
func (c *Config) CacheBackend() cache.Config {
	cc := cache.DefaultConfig()
	cc.Type = c.Cache.Type
	cc.URL = c.Cache.RedisURL
	cc.Password = c.Cache.Password
	cc.DB = c.Cache.DB
	cc.PoolSize = c.Cache.PoolSize
	cc.DefaultTTL = c.Cache.TTL
	cc.Prefix = c.Cache.Prefix
	cc.MaxItems = c.Cache.MaxItems
	cc.MaxMemory = c.Cache.MaxMemory
	return cc
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
