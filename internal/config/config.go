package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	ServerAddress      string   `env:"SERVER_ADDRESS" envDefault:"0.0.0.0:8080"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"DEBUG"`
	CancellationFee    float64  `env:"CANCELLATION_FEE" envDefault:"5.00"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	PostgresConfig
	AuthConfig
	RedisConfig
	RateLimitConfig
	AMQPConfig
}

func NewConfig() (*Config, error) {
	config := &Config{}

	err := env.Parse(config)
	if err != nil {
		return config, fmt.Errorf("config.NewConfig: %w", err)
	}

	if config.CancellationFee < 0 {
		return config, fmt.Errorf("config.NewConfig: CANCELLATION_FEE must not be negative, got %v", config.CancellationFee)
	}
	if config.JWTSecret == "" {
		return config, fmt.Errorf("config.NewConfig: JWT_SECRET is required")
	}
	return config, nil
}

type PostgresConfig struct {
	Conn            string `env:"POSTGRES_CONN" envDefault:"postgres://roadside:roadside@db:5432/roadside?sslmode=disable"`
	AutoMigrateUp   string `env:"AUTO_MIGRATE_UP" envDefault:"true"`
	AutoMigrateDown string `env:"AUTO_MIGRATE_DOWN" envDefault:"false"`
	MigrationsURL   string `env:"MIGRATIONS_URL" envDefault:"file://internal/repository/db/migrations"`
}

func NewPostgresConfig() (*PostgresConfig, error) {
	config := &PostgresConfig{}

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewPostgresConfig: %w", err)
	}
	return config, err
}

// AuthConfig holds the shared secret of the identity provider that signs bearer tokens.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	SignInURL string `env:"SIGN_IN_URL" envDefault:"/signin"`
}

type RedisConfig struct {
	RedisAddr     string `env:"REDIS_ADDR" envDefault:""`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

type RateLimitConfig struct {
	RateLimitEnabled  bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitCapacity int     `env:"RATE_LIMIT_CAPACITY" envDefault:"5"`
	RateLimitRefill   float64 `env:"RATE_LIMIT_REFILL_PER_SEC" envDefault:"0.1"`
}

type AMQPConfig struct {
	AMQPURL   string `env:"AMQP_URL" envDefault:""`
	AMQPQueue string `env:"AMQP_QUEUE" envDefault:"request.cancelled"`
}
