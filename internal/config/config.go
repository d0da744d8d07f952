package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends for the active slide
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds all server configuration loaded from the environment
type Config struct {
	Server  ServerConfig  `envPrefix:"SERVER_"`
	TLS     TLSConfig     `envPrefix:"TLS_"`
	Storage StorageConfig `envPrefix:"STORAGE_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	Auth    AuthConfig    `envPrefix:"AUTH_"`
}

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8080"`
}

type TLSConfig struct {
	Enabled    bool   `env:"ENABLED" envDefault:"false"`
	CertFile   string `env:"CERT_FILE" envDefault:"./certs/server.crt"`
	KeyFile    string `env:"KEY_FILE" envDefault:"./certs/server.key"`
	MinVersion string `env:"MIN_VERSION" envDefault:"1.2"`
}

type StorageConfig struct {
	// DBPath is the sqlite database holding projector records
	DBPath string `env:"DB_PATH" envDefault:"./data/projector.db"`
	// DataPath is where the file backend keeps active_slide.json
	DataPath string `env:"DATA_PATH" envDefault:"./data"`
	// Backend selects where the active slide lives: "file" or "redis"
	Backend string `env:"BACKEND" envDefault:"file"`
}

type RedisConfig struct {
	URL     string `env:"URL" envDefault:"redis://localhost:6379/0"`
	Key     string `env:"KEY" envDefault:"projector:active_slide"`
	Channel string `env:"CHANNEL" envDefault:"projector:broadcast"`
}

type AuthConfig struct {
	// Secret signs actor tokens (HS256)
	Secret string        `env:"SECRET" envDefault:"projector-dev-secret"`
	Issuer string        `env:"ISSUER" envDefault:"projector-server"`
	Leeway time.Duration `env:"LEEWAY" envDefault:"30s"`
}

// LoadConfig parses configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the env parser cannot
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("AUTH_SECRET must not be empty")
	}
	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("TLS enabled but certificate or key file missing")
	}
	return nil
}
