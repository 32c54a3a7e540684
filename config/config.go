package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           int           `mapstructure:"port" envconfig:"SERVER_PORT"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes" envconfig:"SERVER_MAX_HEADER_BYTES"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"DB_HOST"`
	Port     int    `mapstructure:"port" envconfig:"DB_PORT"`
	User     string `mapstructure:"user" envconfig:"DB_USER"`
	Password string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret" envconfig:"JWT_SECRET"`
	RefreshSecret      string `mapstructure:"refresh_secret" envconfig:"JWT_REFRESH_SECRET"`
	ExpiryHours        int    `mapstructure:"expiry_hours" envconfig:"JWT_EXPIRY_HOURS"`
	RefreshExpiryHours int    `mapstructure:"refresh_expiry_hours" envconfig:"JWT_REFRESH_EXPIRY_HOURS"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"REDIS_URL"`
	MaxRetries   int           `mapstructure:"max_retries" envconfig:"REDIS_MAX_RETRIES"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" envconfig:"REDIS_RETRY_BACKOFF"`
	PoolSize     int           `mapstructure:"pool_size" envconfig:"REDIS_POOL_SIZE"`
	MinIdleConns int           `mapstructure:"min_idle_conns" envconfig:"REDIS_MIN_IDLE_CONNS"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port     int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	Username string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from" envconfig:"SMTP_FROM"`
	BaseURL  string `mapstructure:"base_url" envconfig:"SMTP_BASE_URL"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" envconfig:"RATE_LIMIT_RPS"`
	Burst             int     `mapstructure:"burst" envconfig:"RATE_LIMIT_BURST"`
}

type BillingConfig struct {
	ConsultationFee float64 `mapstructure:"consultation_fee" envconfig:"BILLING_CONSULTATION_FEE"`
}

type OutboxConfig struct {
	BatchSize    int           `mapstructure:"batch_size" envconfig:"OUTBOX_BATCH_SIZE"`
	PollInterval time.Duration `mapstructure:"poll_interval" envconfig:"OUTBOX_POLL_INTERVAL"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Billing   BillingConfig   `mapstructure:"billing"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
}

// LoadConfig reads config.yaml via viper, then applies HOSPITAL_-prefixed
// environment overrides so deployments can stay file-less.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	var config Config
	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine when everything comes from the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("HOSPITAL", &config); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = 1 << 20
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.JWT.ExpiryHours == 0 {
		cfg.JWT.ExpiryHours = 24
	}
	if cfg.JWT.RefreshExpiryHours == 0 {
		cfg.JWT.RefreshExpiryHours = 168
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 100
		cfg.RateLimit.Burst = 200
	}
	if cfg.Billing.ConsultationFee == 0 {
		cfg.Billing.ConsultationFee = 500
	}
	if cfg.Outbox.BatchSize == 0 {
		cfg.Outbox.BatchSize = 100
	}
	if cfg.Outbox.PollInterval == 0 {
		cfg.Outbox.PollInterval = 2 * time.Second
	}
}
