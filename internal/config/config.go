package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug   bool    `yaml:"debug" env:"DEBUG"`
	Backend Backend `yaml:"backend"`
	Session Session `yaml:"session"`
	State   State   `yaml:"state"`
	Catalog Catalog `yaml:"catalog"`
	Tasks   Tasks   `yaml:"tasks"`
}

type Backend struct {
	BaseURL   string        `yaml:"base_url" env:"BACKEND_URL" env-default:"http://localhost:8000"`
	Timeout   time.Duration `yaml:"timeout" env-default:"10s"`
	RateRps   float64       `yaml:"rate_rps" env-default:"20"`
	RateBurst int           `yaml:"rate_burst" env-default:"5"`
}

type Session struct {
	DefaultTokenTTL time.Duration `yaml:"default_token_ttl" env-default:"30m"`
	RevalidateEvery time.Duration `yaml:"revalidate_every" env-default:"5m"`
}

type State struct {
	Dir string `yaml:"dir" env:"STATE_DIR" env-default:".cinescope"`
}

type Catalog struct {
	PageSize     int `yaml:"page_size" env-default:"20"`
	RelatedLimit int `yaml:"related_limit" env-default:"2"`
}

type Tasks struct {
	Workers   int `yaml:"workers" env-default:"2"`
	QueueSize int `yaml:"queue_size" env-default:"16"`
}

// MustLoad reads configuration from the given YAML file, falling back
// to environment variables when no path is supplied. A local .env file
// is loaded first if present.
func MustLoad(configPath string) *Config {
	_ = godotenv.Load()
	var cfg Config
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			panic(err)
		}
		return &cfg
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic(fmt.Errorf("config file %s not found", configPath))
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic(err)
	}
	return &cfg
}
