package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the whole application configuration.
type Config struct {
	Service   Service   `yaml:"service"`
	UDPServer UDPServer `yaml:"udp_server"`
	Admin     Admin     `yaml:"admin"`
	Inventory Inventory `yaml:"inventory"`
}

type Service struct {
	Name string `yaml:"name" validate:"required"`
	Env  string `yaml:"env" validate:"required"`
}

// UDPServer configures the datagram listener.
type UDPServer struct {
	Addr         string        `yaml:"addr" validate:"required"`
	BufferSize   int           `yaml:"buffer_size" validate:"gt=0"`
	Workers      int           `yaml:"workers" validate:"gt=0"`
	DrainTimeout time.Duration `yaml:"drain_timeout" validate:"gt=0"`
}

// Admin configures the HTTP listener serving /metrics and /health.
type Admin struct {
	Addr string `yaml:"addr" validate:"required"`
}

// Inventory names the startup catalog feed.
type Inventory struct {
	FeedPath string `yaml:"feed_path" validate:"required"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validate %s: %w", path, err)
	}

	return &cfg, nil
}

// MustLoad is Load for main: any error aborts startup.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
