package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Tracking TrackingConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type TrackingConfig struct {
	WSDLURL            string        `env:"TRACKING_WSDL_URL,     default=https://ws.chronopost.fr/tracking-cxf/TrackingServiceWS?wsdl"`
	Timeout            time.Duration `env:"TRACKING_TIMEOUT,      default=10s"`
	ContractTTL        time.Duration `env:"TRACKING_WSDL_TTL,     default=1h"`
	DispatchWorkers    int           `env:"DISPATCH_WORKERS,      default=4"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE, default=0"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=tracking_service"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=5s"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Development reports whether the service runs with developer defaults
// (pretty console logs).
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through the given lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}
