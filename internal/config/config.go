package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"BiasBoard/internal/model"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"log"`
	Data struct {
		YahooBaseURL string        `yaml:"yahoo_base_url"`
		AlphaBaseURL string        `yaml:"alpha_base_url"`
		AlphaAPIKey  string        `yaml:"alpha_api_key"`
		CacheTTL     time.Duration `yaml:"cache_ttl"`
	} `yaml:"data"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		Timezone    string `yaml:"timezone"`
	} `yaml:"schedule"`
	Symbols []model.SymbolInfo `yaml:"symbols"`
	Proxy   string             `yaml:"proxy"`
}

// DefaultSymbols is the fixed tracked set: three US indices plus two commodities.
func DefaultSymbols() []model.SymbolInfo {
	return []model.SymbolInfo{
		{Key: "NASDAQ", YahooTicker: "^NDX", Name: "NASDAQ 100"},
		{Key: "SP500", YahooTicker: "^GSPC", Name: "S&P 500"},
		{Key: "DOW", YahooTicker: "^DJI", Name: "Dow Jones"},
		{Key: "CRUDE", YahooTicker: "CL=F", Name: "Crude Oil"},
		{Key: "GOLD", YahooTicker: "GC=F", Name: "Gold"},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
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

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.Data.AlphaAPIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Data.YahooBaseURL == "" {
		cfg.Data.YahooBaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Data.AlphaBaseURL == "" {
		cfg.Data.AlphaBaseURL = "https://www.alphavantage.co"
	}
	if cfg.Data.CacheTTL == 0 {
		cfg.Data.CacheTTL = 60 * time.Second
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 1 23 * * *"
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "Europe/London"
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = DefaultSymbols()
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Data.CacheTTL < 0 {
		return fmt.Errorf("data.cache_ttl must not be negative")
	}
	for _, s := range c.Symbols {
		if s.Key == "" {
			return fmt.Errorf("symbols: key is required")
		}
		if s.YahooTicker == "" && s.AlphaFunction == "" {
			return fmt.Errorf("symbol %s: yahoo_ticker or alpha_function is required", s.Key)
		}
		if s.AlphaFunction != "" && c.Data.AlphaAPIKey == "" {
			return fmt.Errorf("symbol %s: alpha_function set but data.alpha_api_key is empty", s.Key)
		}
	}
	return nil
}
