package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	LogLevel  string `yaml:"log_level" default:"info"`
	LogFormat string `yaml:"log_format" default:"console" validate:"oneof=console json"`

	Data struct {
		Provider       string        `yaml:"provider" default:"yahoo" validate:"oneof=yahoo twelvedata"`
		TwelveAPIKey   string        `yaml:"twelve_api_key"`
		YahooBaseURL   string        `yaml:"yahoo_base_url" default:"https://query1.finance.yahoo.com"`
		TwelveBaseURL  string        `yaml:"twelve_base_url" default:"https://api.twelvedata.com"`
		PredictPeriod  string        `yaml:"predict_period" default:"1y"`
		TrainPeriod    string        `yaml:"train_period" default:"2y"`
		Interval       string        `yaml:"interval" default:"1d"`
		RequestTimeout time.Duration `yaml:"request_timeout" default:"30s" validate:"gt=0"`
		RequestsPerSec int           `yaml:"requests_per_sec" default:"5" validate:"gt=0"`
		MaxRetryTime   time.Duration `yaml:"max_retry_time" default:"30s"`
	} `yaml:"data"`

	Cache struct {
		TTL       time.Duration `yaml:"ttl" default:"5m"`
		RedisAddr string        `yaml:"redis_addr"`
		RedisPass string        `yaml:"redis_password"`
		RedisDB   int           `yaml:"redis_db"`
	} `yaml:"cache"`

	Model struct {
		ArtifactDir   string   `yaml:"artifact_dir" default:"artifacts"`
		FeatureSet    string   `yaml:"feature_set" default:"technical" validate:"oneof=technical rolling"`
		TrainSymbols  []string `yaml:"train_symbols" default:"[\"INFY.NS\"]"`
		TestSize      float64  `yaml:"test_size" default:"0.2" validate:"gt=0,lt=1"`
		Seed          int64    `yaml:"seed" default:"42"`
		Regularize    float64  `yaml:"l2" default:"1.0" validate:"gte=0"`
		MaxIterations int      `yaml:"max_iterations" default:"100" validate:"gt=0"`
	} `yaml:"model"`

	Output struct {
		Dir string `yaml:"dir" default:"."`
	} `yaml:"output"`

	Bot struct {
		Token          string        `yaml:"token"`
		MaxConcurrent  int           `yaml:"max_concurrent" default:"16" validate:"gt=0"`
		CommandTimeout time.Duration `yaml:"command_timeout" default:"60s" validate:"gt=0"`
		UpdateTimeout  int           `yaml:"update_timeout" default:"60"`
	} `yaml:"bot"`

	Watchlist struct {
		Cron    string   `yaml:"cron"`
		ChatID  int64    `yaml:"chat_id"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"watchlist"`

	Journal struct {
		Driver string `yaml:"driver" validate:"omitempty,oneof=postgres sqlite"`
		DSN    string `yaml:"dsn"`
	} `yaml:"journal"`

	MetricsAddr string `yaml:"metrics_addr"`
}

// ErrMissingBotToken is returned by RequireBotToken when no token is configured
var ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN not set in environment")

// Load initializes configuration from .env, an optional YAML file and the environment
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	return LoadFile(getEnvWithDefault("CONFIG_PATH", "config.yaml"))
}

// LoadFile fills defaults, overlays path (missing file is not an error) and
// the environment, then validates the result. Explicit zero values win over defaults.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.Data.Provider == "twelvedata" && c.Data.TwelveAPIKey == "" {
		return fmt.Errorf("validate config: TWELVE_API_KEY is required for the twelvedata provider")
	}
	if c.Journal.Driver != "" && c.Journal.DSN == "" {
		return fmt.Errorf("validate config: journal dsn is required for driver %q", c.Journal.Driver)
	}
	return nil
}

// RequireBotToken fails when the chat bot has no token to start with
func (c *Config) RequireBotToken() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return ErrMissingBotToken
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")

	setString(&cfg.Data.Provider, "DATA_PROVIDER")
	setString(&cfg.Data.TwelveAPIKey, "TWELVE_API_KEY")
	setString(&cfg.Data.YahooBaseURL, "YAHOO_BASE_URL")
	setString(&cfg.Data.TwelveBaseURL, "TWELVE_BASE_URL")
	setString(&cfg.Data.PredictPeriod, "PREDICT_PERIOD")
	setString(&cfg.Data.TrainPeriod, "TRAIN_PERIOD")
	setString(&cfg.Data.Interval, "INTERVAL")
	setDuration(&cfg.Data.RequestTimeout, "REQUEST_TIMEOUT")
	setInt(&cfg.Data.RequestsPerSec, "REQUESTS_PER_SEC")

	setDuration(&cfg.Cache.TTL, "CACHE_TTL")
	setString(&cfg.Cache.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Cache.RedisPass, "REDIS_PASSWORD")
	setInt(&cfg.Cache.RedisDB, "REDIS_DB")

	setString(&cfg.Model.ArtifactDir, "ARTIFACT_DIR")
	setString(&cfg.Model.FeatureSet, "FEATURE_SET")
	setList(&cfg.Model.TrainSymbols, "TRAIN_SYMBOLS")

	setString(&cfg.Output.Dir, "OUTPUT_DIR")

	setString(&cfg.Bot.Token, "TELEGRAM_BOT_TOKEN")
	setInt(&cfg.Bot.MaxConcurrent, "BOT_MAX_CONCURRENT")
	setDuration(&cfg.Bot.CommandTimeout, "BOT_COMMAND_TIMEOUT")

	setString(&cfg.Watchlist.Cron, "WATCHLIST_CRON")
	setList(&cfg.Watchlist.Symbols, "WATCHLIST_SYMBOLS")
	if v := os.Getenv("WATCHLIST_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Watchlist.ChatID = id
		}
	}

	setString(&cfg.Journal.Driver, "JOURNAL_DRIVER")
	setString(&cfg.Journal.DSN, "JOURNAL_DSN")

	setString(&cfg.MetricsAddr, "METRICS_ADDR")
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			*dst = intValue
		}
	}
}

// setDuration accepts Go durations ("45s") or bare seconds ("45")
func setDuration(dst *time.Duration, key string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	if d, err := time.ParseDuration(value); err == nil {
		*dst = d
		return
	}
	if secs, err := strconv.Atoi(value); err == nil {
		*dst = time.Duration(secs) * time.Second
	}
}

func setList(dst *[]string, key string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
