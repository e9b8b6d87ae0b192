package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	StaticPath     string        `mapstructure:"static_path"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	Redis          RedisConfig   `mapstructure:"redis"`
	RateLimit      RateLimit     `mapstructure:"rate_limit"`
}

// RedisConfig selects the rate-limiter backend. An empty Addr keeps
// everything in process memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimit caps join/permission attempts per connection to slow down
// password guessing.
type RateLimit struct {
	Attempts int           `mapstructure:"attempts"`
	Interval time.Duration `mapstructure:"interval"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./public")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("jwt_secret", "change-me-in-production")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rate_limit.attempts", 10)
	v.SetDefault("rate_limit.interval", "1m")

	// A missing config file is fine, defaults cover every key.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
