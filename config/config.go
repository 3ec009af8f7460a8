package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	Redis     RedisConfig     `yaml:"redis"`
	Delays    DelayConfig     `yaml:"delays"`
	Payment   PaymentConfig   `yaml:"payment"`
	Mail      MailConfig      `yaml:"mail"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
}

type AppConfig struct {
	Name       string `yaml:"name"`
	Port       int    `yaml:"port"`
	CorsOrigin string `yaml:"cors_origin"`
	// RequestTimeout bounds login, payment and ledger requests. Work still
	// pending when it passes is abandoned.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type SessionConfig struct {
	// Driver is "sql" or "redis".
	Driver    string        `yaml:"driver"`
	TTL       time.Duration `yaml:"ttl"`
	JWTSecret string        `yaml:"jwt_secret"`
	// JWKSURL, when set, verifies tokens against a remote key set instead of
	// JWTSecret.
	JWKSURL string `yaml:"jwks_url"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type DelayConfig struct {
	Catalog time.Duration `yaml:"catalog"`
	Login   time.Duration `yaml:"login"`
	Payment time.Duration `yaml:"payment"`
}

type PaymentConfig struct {
	// FailureRate is the share of simulated charges the gateway declines.
	FailureRate      float64       `yaml:"failure_rate"`
	BreakerFailures  uint32        `yaml:"breaker_failures"`
	BreakerOpenFor   time.Duration `yaml:"breaker_open_for"`
	BreakerHalfOpenN uint32        `yaml:"breaker_half_open_requests"`
}

type MailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type RateLimitConfig struct {
	LoginRPS   float64 `yaml:"login_rps"`
	LoginBurst int     `yaml:"login_burst"`
}

// Default returns a configuration that runs locally with no file present.
// The delays match the demo's simulated latencies.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:           "HOTELGRAM",
			Port:           3000,
			CorsOrigin:     "http://127.0.0.1:5173",
			RequestTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "./hotelgram.db"},
		Session: SessionConfig{
			Driver:    "sql",
			TTL:       24 * time.Hour,
			JWTSecret: "secret",
		},
		Redis: RedisConfig{Address: "localhost:6379", PoolSize: 10},
		Delays: DelayConfig{
			Catalog: 1200 * time.Millisecond,
			Login:   1200 * time.Millisecond,
			Payment: 2000 * time.Millisecond,
		},
		Payment: PaymentConfig{
			BreakerFailures:  5,
			BreakerOpenFor:   30 * time.Second,
			BreakerHalfOpenN: 1,
		},
		Mail: MailConfig{Port: 587, From: "bookings@hotelgram.app"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		RateLimit: RateLimitConfig{LoginRPS: 1, LoginBurst: 5},
	}
}

// Load reads configPath over the defaults. A missing .env or config file is
// not an error; ${VAR} references in the file are expanded from the
// environment.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	config := Default()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(expandedData, config); err != nil {
		return nil, err
	}

	return config, nil
}
