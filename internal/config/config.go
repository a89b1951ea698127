package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env         string      `mapstructure:"env"` // current application environment (local, dev, prod etc)
	Server      Server      `mapstructure:"server"`
	DB          DB          `mapstructure:"database"`
	Redis       Redis       `mapstructure:"redis"`
	Scoring     Scoring     `mapstructure:"scoring"`
	Leaderboard Leaderboard `mapstructure:"leaderboard"`
	Telegram    Telegram    `mapstructure:"telegram"`
}

// Server contains HTTP server parameters.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DB contains database-related configuration parameters. An empty URL is
// allowed: the service then falls back to the in-memory store.
type DB struct {
	URL             string        `mapstructure:"-"`                 // connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// Redis contains leaderboard cache parameters. An empty address disables
// the cache.
type Redis struct {
	Addr     string        `mapstructure:"-"`
	Password string        `mapstructure:"-"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Scoring contains the score deltas and the title threshold table.
type Scoring struct {
	LikeDelta       int         `mapstructure:"like_delta"`
	DislikeDelta    int         `mapstructure:"dislike_delta"`
	SubmissionBonus int         `mapstructure:"submission_bonus"`
	Titles          []TitleBand `mapstructure:"titles"`
}

// TitleBand is one row of the title threshold table.
type TitleBand struct {
	MinScore int    `mapstructure:"min_score"`
	Label    string `mapstructure:"label"`
}

// Leaderboard contains ranking parameters.
type Leaderboard struct {
	DefaultLimit    int    `mapstructure:"default_limit"`
	MaxLimit        int    `mapstructure:"max_limit"`
	RefreshSchedule string `mapstructure:"refresh_schedule"` // cron spec for cache rebuilds
}

// Telegram contains the optional promotion announcement settings.
type Telegram struct {
	APIToken string `mapstructure:"-"` // loaded from environment, empty disables announcements
	ChatID   int64  `mapstructure:"chat_id"`
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("database.migrations_dir", "migrations")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", "30s")
	v.SetDefault("scoring.like_delta", 10)
	v.SetDefault("scoring.dislike_delta", 2)
	v.SetDefault("scoring.submission_bonus", 20)
	v.SetDefault("leaderboard.default_limit", 20)
	v.SetDefault("leaderboard.max_limit", 100)
	v.SetDefault("leaderboard.refresh_schedule", "@every 1m")
	v.SetDefault("telegram.chat_id", 0)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables. All of them are
	// optional: without a database the in-memory store is used, without
	// redis the leaderboard cache is skipped, without a telegram token
	// promotion announcements are disabled.
	cfg.DB.URL = v.GetString("database_url")
	cfg.Redis.Addr = v.GetString("redis_addr")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Telegram.APIToken = v.GetString("telegram_api_token")

	if len(cfg.Scoring.Titles) == 0 {
		cfg.Scoring.Titles = DefaultTitles()
	}

	return &cfg, nil
}

// DefaultTitles returns the platform's historical title thresholds.
func DefaultTitles() []TitleBand {
	return []TitleBand{
		{MinScore: 0, Label: "novice"},
		{MinScore: 1001, Label: "pro"},
		{MinScore: 3001, Label: "plug"},
		{MinScore: 7001, Label: "champion"},
		{MinScore: 15001, Label: "legend"},
	}
}
