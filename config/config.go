package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Reminder  ReminderConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port        string
	Env         string
	LogLevel    string
	Timezone    string
	SeedCatalog bool
	// CORSOrigins lists the allowed browser origins; "*" allows any
	CORSOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// ReminderConfig controls reminder computation and the dispatch workers
type ReminderConfig struct {
	MorningHour     int
	QueueSize       int
	Workers         int
	DispatchTimeout time.Duration
	PollInterval    time.Duration
}

// StoreConfig controls the per-session appointment stores
type StoreConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_LOG_LEVEL", "info")
	v.SetDefault("APP_TIMEZONE", "UTC")
	v.SetDefault("APP_SEED_CATALOG", true)
	v.SetDefault("APP_CORS_ORIGINS", "*")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REMINDER_MORNING_HOUR", 9)
	v.SetDefault("REMINDER_QUEUE_SIZE", 256)
	v.SetDefault("REMINDER_WORKERS", 2)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
}

// LoadConfig reads .env (when present) and the process environment
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	config := &Config{
		App: AppConfig{
			Port:        v.GetString("APP_PORT"),
			Env:         v.GetString("APP_ENV"),
			LogLevel:    v.GetString("APP_LOG_LEVEL"),
			Timezone:    v.GetString("APP_TIMEZONE"),
			SeedCatalog: v.GetBool("APP_SEED_CATALOG"),
			CORSOrigins: splitList(v.GetString("APP_CORS_ORIGINS")),
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: durationOr(v, "JWT_ACCESS_EXPIRY", 15*time.Minute),
		},
		Reminder: ReminderConfig{
			MorningHour:     v.GetInt("REMINDER_MORNING_HOUR"),
			QueueSize:       v.GetInt("REMINDER_QUEUE_SIZE"),
			Workers:         v.GetInt("REMINDER_WORKERS"),
			DispatchTimeout: durationOr(v, "REMINDER_DISPATCH_TIMEOUT", 5*time.Second),
			PollInterval:    durationOr(v, "REMINDER_POLL_INTERVAL", 30*time.Second),
		},
		Store: StoreConfig{
			IdleTTL:       durationOr(v, "STORE_IDLE_TTL", 30*time.Minute),
			SweepInterval: durationOr(v, "STORE_SWEEP_INTERVAL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if config.Reminder.MorningHour < 0 || config.Reminder.MorningHour > 23 {
		return nil, fmt.Errorf("REMINDER_MORNING_HOUR must be between 0 and 23, got %d", config.Reminder.MorningHour)
	}
	if _, err := config.App.Location(); err != nil {
		return nil, err
	}

	return config, nil
}

// Location resolves the configured timezone
func (c AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// splitList turns a comma separated value into trimmed, non-empty items
func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
