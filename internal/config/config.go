package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigin  string `env:"CORS_ORIGIN" envDefault:"*"`

	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"15s"`

	// Price simulator knobs.
	PriceUpdateInterval time.Duration `env:"PRICE_UPDATE_INTERVAL" envDefault:"5m"`
	PriceMaxChangePct   float64       `env:"PRICE_MAX_CHANGE_PCT" envDefault:"10"`
	PriceFloor          string        `env:"PRICE_FLOOR" envDefault:"1.00"`

	// Order event stream. Empty brokers disables publishing.
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:""`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"orders"`
}

func Load() (Config, error) {
	var cfg Config
	return cfg, env.Parse(&cfg)
}
