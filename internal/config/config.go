package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FXInsight/internal/fairvalue"
	"FXInsight/internal/forecast"
	"FXInsight/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Market struct {
		Pair              string        `yaml:"pair"`
		LookbackDays      int           `yaml:"lookback_days"`
		MinObservations   int           `yaml:"min_observations"`
		CacheTTL          time.Duration `yaml:"cache_ttl"`
		FlatFallbackPrice float64       `yaml:"flat_fallback_price"`
		Peers             []Peer        `yaml:"peers"`
	} `yaml:"market"`
	Sources struct {
		Yahoo struct {
			Enabled *bool  `yaml:"enabled"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"yahoo"`
		AlphaVantage struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"alphavantage"`
	} `yaml:"sources"`
	Synthetic struct {
		Enabled   *bool   `yaml:"enabled"`
		Anchor    float64 `yaml:"anchor"`
		Sigma     float64 `yaml:"sigma"`
		Reversion float64 `yaml:"reversion"`
		Seed      uint64  `yaml:"seed"`
	} `yaml:"synthetic"`
	Forecast struct {
		Policy            string  `yaml:"policy"`
		Horizon           int     `yaml:"horizon"`
		Noise             float64 `yaml:"noise"`
		DriftRate         float64 `yaml:"drift_rate"`
		Ceiling           float64 `yaml:"ceiling"`
		CeilingRetain     float64 `yaml:"ceiling_retain"`
		MaxDailyMove      float64 `yaml:"max_daily_move"`
		ConsolidationDays int     `yaml:"consolidation_days"`
	} `yaml:"forecast"`
	FairValue struct {
		Default string            `yaml:"default"`
		Models  []fairvalue.Model `yaml:"models"`
	} `yaml:"fair_value"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		ReportCron  string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Peer is an auxiliary pair and its last-known value.
type Peer struct {
	Pair     string  `yaml:"pair"`
	Fallback float64 `yaml:"fallback"`
}

// Load reads .env (if present), then the YAML file, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FX_PAIR"); v != "" {
		c.Market.Pair = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.Sources.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Market.CacheTTL = d
		}
	}
	if v := os.Getenv("SYNTHETIC_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Synthetic.Enabled = &b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Market.Pair == "" {
		c.Market.Pair = "USD/KRW"
	}
	if c.Market.LookbackDays == 0 {
		c.Market.LookbackDays = 3 * 365
	}
	if c.Market.MinObservations == 0 {
		c.Market.MinObservations = 10
	}
	if c.Market.CacheTTL == 0 {
		c.Market.CacheTTL = time.Hour
	}
	if c.Market.FlatFallbackPrice == 0 {
		c.Market.FlatFallbackPrice = 1400
	}
	if c.Sources.Yahoo.Enabled == nil {
		enabled := true
		c.Sources.Yahoo.Enabled = &enabled
	}
	if c.Synthetic.Enabled == nil {
		enabled := true
		c.Synthetic.Enabled = &enabled
	}
	if c.Synthetic.Anchor == 0 {
		c.Synthetic.Anchor = 1400
	}
	if c.Synthetic.Sigma == 0 {
		c.Synthetic.Sigma = 5
	}
	if c.Synthetic.Reversion == 0 {
		c.Synthetic.Reversion = 0.05
	}
	if c.Forecast.Policy == "" {
		c.Forecast.Policy = string(forecast.Linear)
	}
	if c.Forecast.Horizon == 0 {
		c.Forecast.Horizon = 14
	}
	if c.Forecast.ConsolidationDays == 0 {
		c.Forecast.ConsolidationDays = -1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 0 * * * *"
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 30 16 * * 1-5"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	if _, err := model.ParsePair(c.Market.Pair); err != nil {
		return fmt.Errorf("market.pair: %w", err)
	}
	for _, p := range c.Market.Peers {
		if _, err := model.ParsePair(p.Pair); err != nil {
			return fmt.Errorf("market.peers: %w", err)
		}
	}
	if c.Market.LookbackDays <= 0 {
		return fmt.Errorf("market.lookback_days must be positive")
	}
	if c.Market.MinObservations <= 0 {
		return fmt.Errorf("market.min_observations must be positive")
	}
	if c.Forecast.Horizon <= 0 || c.Forecast.Horizon > forecast.MaxHorizon {
		return fmt.Errorf("forecast.horizon must be between 1 and %d", forecast.MaxHorizon)
	}
	if _, err := forecast.ParsePolicy(c.Forecast.Policy); err != nil {
		return fmt.Errorf("forecast.policy: %w", err)
	}
	if !*c.Sources.Yahoo.Enabled && c.Sources.AlphaVantage.APIKey == "" && !*c.Synthetic.Enabled {
		return fmt.Errorf("no data source configured: enable yahoo, set an alphavantage api key or enable synthetic")
	}
	for _, m := range c.FairValue.Models {
		if err := m.Check(); err != nil {
			return fmt.Errorf("fair_value.models: %w", err)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether reports should be pushed.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// ForecastOptions translates the forecast section into generator options.
func (c *Config) ForecastOptions() []forecast.Option {
	opts := []forecast.Option{forecast.WithConsolidationDays(c.Forecast.ConsolidationDays)}
	if c.Forecast.Noise > 0 {
		opts = append(opts, forecast.WithNoise(c.Forecast.Noise))
	}
	if c.Forecast.DriftRate > 0 {
		opts = append(opts, forecast.WithDriftRate(c.Forecast.DriftRate))
	}
	if c.Forecast.Ceiling > 0 {
		retain := c.Forecast.CeilingRetain
		if retain == 0 {
			retain = forecast.DefaultCeilingRetain
		}
		opts = append(opts, forecast.WithCeiling(c.Forecast.Ceiling, retain))
	}
	if c.Forecast.MaxDailyMove > 0 {
		opts = append(opts, forecast.WithMaxDailyMove(c.Forecast.MaxDailyMove))
	}
	return opts
}
