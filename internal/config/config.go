// Package config loads service configuration from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the runtime configuration of the recruiting service.
type Config struct {
	Port             int           `mapstructure:"port"`
	DatabaseURL      string        `mapstructure:"database_url"`
	GeminiAPIKey     string        `mapstructure:"gemini_api_key"`
	PublicBaseURL    string        `mapstructure:"public_base_url"`
	ScreeningTimeout time.Duration `mapstructure:"screening_timeout"`
	RateLimitEnabled bool          `mapstructure:"rate_limit_enabled"`
	Models           ModelConfig   `mapstructure:"models"`
	Log              LogConfig     `mapstructure:"log"`
	JWT              JWTConfig     `mapstructure:"jwt"`
	Redis            RedisConfig   `mapstructure:"redis"`
	SMTP             SMTPConfig    `mapstructure:"smtp"`
}

// LogConfig selects the logger encoding and level.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// ModelConfig overrides the Gemini model used per task. Empty fields keep
// the built-in choice.
type ModelConfig struct {
	Extraction   string `mapstructure:"extraction"`
	Evaluation   string `mapstructure:"evaluation"`
	JDGeneration string `mapstructure:"jd_generation"`
}

// RedisConfig configures the optional extraction cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// SMTPConfig configures outbound mail. An empty Host routes mail to the log.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

var envBindings = map[string]string{
	"port":                 "PORT",
	"database_url":         "DATABASE_URL",
	"gemini_api_key":       "GEMINI_API_KEY",
	"public_base_url":      "PUBLIC_BASE_URL",
	"screening_timeout":    "SCREENING_TIMEOUT",
	"rate_limit_enabled":   "RATE_LIMIT_ENABLED",
	"models.extraction":    "GEMINI_EXTRACTION_MODEL",
	"models.evaluation":    "GEMINI_EVALUATION_MODEL",
	"models.jd_generation": "GEMINI_JD_MODEL",
	"log.json":             "LOG_JSON",
	"log.debug":            "LOG_DEBUG",
	"jwt.secret":           "JWT_SECRET",
	"jwt.expiration_hours": "JWT_EXPIRATION_HOURS",
	"redis.addr":           "REDIS_ADDR",
	"redis.password":       "REDIS_PASSWORD",
	"redis.db":             "REDIS_DB",
	"redis.ttl":            "REDIS_TTL",
	"smtp.host":            "SMTP_HOST",
	"smtp.port":            "SMTP_PORT",
	"smtp.username":        "SMTP_USERNAME",
	"smtp.password":        "SMTP_PASSWORD",
	"smtp.from":            "SMTP_FROM",
}

// Load reads configuration from path (if non-empty) and the environment.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("public_base_url", "http://localhost:8080")
	v.SetDefault("screening_timeout", 10*time.Minute)
	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("smtp.port", 587)
}

// Validate checks the values needed to serve requests. requireDatabase is
// false when the in-memory store is used.
func (c *Config) Validate(requireDatabase bool) error {
	var errs []error
	if requireDatabase && c.DatabaseURL == "" {
		errs = append(errs, errors.New("config error: DATABASE_URL is required"))
	}
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("config error: GEMINI_API_KEY is required"))
	}
	if err := c.JWT.normalize(); err != nil {
		errs = append(errs, fmt.Errorf("config error: %w", err))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config error: port must be between 1 and 65535, got %d", c.Port))
	}
	if c.ScreeningTimeout <= 0 {
		errs = append(errs, errors.New("config error: screening_timeout must be positive"))
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		errs = append(errs, errors.New("config error: SMTP_FROM is required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}
