package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	Environment    string   `env:"ENVIRONMENT" envDefault:"development"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	JWTSecret      string   `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	Peer           PeerConfig
	Tracking       TrackingConfig
	Redis          RedisConfig

	// publicURLDefaulted is set when PUBLIC_URL was derived from Port.
	publicURLDefaulted bool
}

type PeerConfig struct {
	// DisplayName falls back to the host name when empty.
	DisplayName      string        `env:"DISPLAY_NAME"`
	ServiceType      string        `env:"SERVICE_TYPE" envDefault:"ar-multi-sample"`
	PublicURL        string        `env:"PUBLIC_URL"`
	DiscoveryBackend string        `env:"DISCOVERY_BACKEND" envDefault:"redis"`
	AdvertiseTTL     time.Duration `env:"ADVERTISE_TTL" envDefault:"30s"`
}

type TrackingConfig struct {
	// ScanInterval paces the simulated room scan; zero disables it.
	ScanInterval time.Duration `env:"SCAN_INTERVAL" envDefault:"500ms"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Peer.DisplayName == "" {
		name, err := os.Hostname()
		if err != nil || name == "" {
			name = "arshare-device"
		}
		cfg.Peer.DisplayName = name
	}

	if cfg.Peer.PublicURL == "" {
		cfg.Peer.PublicURL = defaultPublicURL(cfg.Port)
		cfg.publicURLDefaulted = true
	}

	switch cfg.Peer.DiscoveryBackend {
	case "redis", "memory":
	default:
		return nil, fmt.Errorf("unknown discovery backend %q", cfg.Peer.DiscoveryBackend)
	}

	return &cfg, nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaultPublicURL(port string) string {
	return "ws://localhost:" + port
}

// SetPort changes the listen port. A public URL derived from the old port
// follows it; an explicit PUBLIC_URL is kept.
func (c *Config) SetPort(port string) {
	c.Port = port
	if c.publicURLDefaulted {
		c.Peer.PublicURL = defaultPublicURL(port)
	}
}
