package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Env  string `mapstructure:"env"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres or memory
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Retries  int    `mapstructure:"retries"`
}

type RedisConfig struct {
	Addr            string `mapstructure:"addr"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db"`
	Prefix          string `mapstructure:"prefix"`
	GroupTTLSeconds int    `mapstructure:"group_ttl_seconds"`
}

type KafkaConfig struct {
	Brokers             []string `mapstructure:"brokers"`
	TopicMessageCreated string   `mapstructure:"topic_message_created"`
}

type PaginationConfig struct {
	// DefaultFirst is applied when a query carries no connection input.
	DefaultFirst int `mapstructure:"default_first"`
	MaxPageSize  int `mapstructure:"max_page_size"`
}

type HTTPConfig struct {
	RateLimitPerMin     int `mapstructure:"rate_limit_per_min"`
	RateLimitBurst      int `mapstructure:"rate_limit_burst"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
}

type WSConfig struct {
	PingIntervalSeconds  int   `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int   `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64 `mapstructure:"max_message_size_bytes"`
}

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	WS         WSConfig         `mapstructure:"ws"`

	// derived
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	GroupTTL      time.Duration
	PingInterval  time.Duration
	WriteDeadline time.Duration
}

func (c *Config) Development() bool { return strings.EqualFold(c.App.Env, "development") }

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.App.Port) }

// Load reads path (optional; a missing file is not an error), then .env, then
// APP_* environment variables, e.g. APP_DATABASE_HOST.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}

	cfg.ReadTimeout = time.Duration(cfg.HTTP.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.HTTP.WriteTimeoutSeconds) * time.Second
	cfg.GroupTTL = time.Duration(cfg.Redis.GroupTTLSeconds) * time.Second
	cfg.PingInterval = time.Duration(cfg.WS.PingIntervalSeconds) * time.Second
	cfg.WriteDeadline = time.Duration(cfg.WS.WriteDeadlineSeconds) * time.Second

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("app.port", 8080)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "groupchat")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.retries", 5)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "groupchat:")
	v.SetDefault("redis.group_ttl_seconds", 300)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_message_created", "message.created")

	v.SetDefault("pagination.default_first", 1)
	v.SetDefault("pagination.max_page_size", 1000)

	v.SetDefault("http.rate_limit_per_min", 600)
	v.SetDefault("http.rate_limit_burst", 20)
	v.SetDefault("http.read_timeout_seconds", 15)
	v.SetDefault("http.write_timeout_seconds", 15)

	v.SetDefault("ws.ping_interval_seconds", 54)
	v.SetDefault("ws.write_deadline_seconds", 10)
	v.SetDefault("ws.max_message_size_bytes", 1024)
}

func validate(cfg *Config) error {
	if cfg.App.Port <= 0 {
		return errors.New("app.port missing or invalid")
	}
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return errors.New("database.host and database.name required for postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid database.driver %q (use postgres or memory)", cfg.Database.Driver)
	}
	if cfg.Pagination.DefaultFirst < 1 {
		return errors.New("pagination.default_first must be positive")
	}
	if cfg.Pagination.MaxPageSize < 0 {
		return errors.New("pagination.max_page_size must be non-negative")
	}
	if cfg.Pagination.MaxPageSize > 0 && cfg.Pagination.DefaultFirst > cfg.Pagination.MaxPageSize {
		return errors.New("pagination.default_first exceeds pagination.max_page_size")
	}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.TopicMessageCreated == "" {
		return errors.New("kafka.topic_message_created missing")
	}
	return nil
}
