package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const EnvPrefix = "WORKSPACE"

type Config struct {
	Mode         string          `mapstructure:"mode"`
	Port         int             `mapstructure:"port"`
	StaticPath   string          `mapstructure:"static_path"`
	ReadLimit    int64           `mapstructure:"read_limit"`
	PingPeriod   time.Duration   `mapstructure:"ping_period"`
	PongWait     time.Duration   `mapstructure:"pong_wait"`
	WriteWait    time.Duration   `mapstructure:"write_wait"`
	SendBuffer   int             `mapstructure:"send_buffer"`
	Secret       string          `mapstructure:"secret"`
	LogLevel     string          `mapstructure:"log_level"`
	Backpressure string          `mapstructure:"backpressure"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	Store        StoreConfig     `mapstructure:"store"`
}

// RateLimitConfig caps events per connection and interval. Presence,
// chat and drawing share Events; file edits count against EditEvents.
type RateLimitConfig struct {
	Events     int           `mapstructure:"events"`
	EditEvents int           `mapstructure:"edit_events"`
	Interval   time.Duration `mapstructure:"interval"`
}

type StoreConfig struct {
	Driver  string        `mapstructure:"driver"`
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
	S3      S3Config      `mapstructure:"s3"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
}

// Load reads config/config.<CONFIG_ENV>.yaml and WORKSPACE_* overrides.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile is Load with an explicit file. A missing file is not an error.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("static", cfg.StaticPath).Str("store", cfg.Store.Driver).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("backpressure", "kick")
	v.SetDefault("rate_limit.events", 60)
	v.SetDefault("rate_limit.edit_events", 120)
	v.SetDefault("rate_limit.interval", "1s")
	v.SetDefault("store.driver", "none")
	v.SetDefault("store.dir", "./data")
	v.SetDefault("store.timeout", "5s")
	// Bare defaults so AutomaticEnv can reach the nested keys.
	v.SetDefault("store.s3.bucket", "")
	v.SetDefault("store.s3.region", "us-east-1")
	v.SetDefault("store.s3.endpoint", "")
	v.SetDefault("store.s3.access_key_id", "")
	v.SetDefault("store.s3.secret_access_key", "")
	v.SetDefault("store.s3.prefix", "")
}

func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("config: port %d out of range", c.Port)
	case c.ReadLimit <= 0:
		return fmt.Errorf("config: read_limit must be positive")
	case c.SendBuffer <= 0:
		return fmt.Errorf("config: send_buffer must be positive")
	case c.PingPeriod <= 0 || c.PongWait <= c.PingPeriod:
		return fmt.Errorf("config: ping_period %s must be positive and below pong_wait %s", c.PingPeriod, c.PongWait)
	case c.WriteWait <= 0:
		return fmt.Errorf("config: write_wait must be positive")
	case c.RateLimit.Events < 0 || c.RateLimit.EditEvents < 0:
		return fmt.Errorf("config: rate_limit events must not be negative")
	case (c.RateLimit.Events > 0 || c.RateLimit.EditEvents > 0) && c.RateLimit.Interval <= 0:
		return fmt.Errorf("config: rate_limit.interval must be positive")
	}
	switch c.Backpressure {
	case "kick", "drop":
	default:
		return fmt.Errorf("config: unknown backpressure policy %q", c.Backpressure)
	}
	switch c.Store.Driver {
	case "none", "":
	case "fs":
		if c.Store.Dir == "" {
			return fmt.Errorf("config: store.dir is required for the fs driver")
		}
	case "s3":
		if c.Store.S3.Bucket == "" {
			return fmt.Errorf("config: store.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	return nil
}
