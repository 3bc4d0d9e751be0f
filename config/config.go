package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultSymbols is the tracked ticker list used when STOCK_SYMBOLS is not
// set. Edit this list to change which stocks are synchronized.
var DefaultSymbols = []string{
	"AAPL",  // Apple
	"GOOGL", // Google
	"MSFT",  // Microsoft
	"TSLA",  // Tesla
	"AMZN",  // Amazon
	"META",  // Meta
	"NVDA",  // NVIDIA
	"NFLX",  // Netflix
}

// Config holds the full application configuration loaded from environment
// variables or a .env file.
//
// It is constructed once by Load() at startup and passed down explicitly;
// nothing in the application reads the environment after that.
//
// Example ENV equivalent:
//
//	ALPHA_VANTAGE_API_KEY=demo
//	NOTION_TOKEN=secret_xxx
//	PAGE_ID=200b57d2b3868050a94ac87c6704d57c
//	DATABASE_ID=200b57d2b3868022b198d81144167217
//	STOCK_SYMBOLS=AAPL,MSFT
type Config struct {
	AlphaVantage AlphaVantageConfig // Market data provider settings
	Notion       NotionConfig       // Workspace API settings
	Symbols      []string           // Tracked tickers, in sync order
	FetchDelay   time.Duration      // Pause between consecutive quote fetches
	HTTPTimeout  time.Duration      // Per-request timeout for all outbound calls
	MaxRetries   int                // Extra fetch attempts for network/rate-limit errors (0 = none)
}

// AlphaVantageConfig defines access to the quote provider.
type AlphaVantageConfig struct {
	APIKey string // Pre-issued API key (required)
	URL    string // Query endpoint base URL
}

// NotionConfig defines access to the target workspace.
//
// Fields:
//   - Token: pre-issued integration token (required).
//   - BaseURL: API root (e.g., "https://api.notion.com/v1").
//   - PageID: target page for page mode.
//   - DatabaseID: target database for database mode.
type NotionConfig struct {
	Token      string
	BaseURL    string
	PageID     string
	DatabaseID string
}

// Load builds the Config by reading from a .env file or directly from
// environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Returns:
//   - Config: the populated configuration.
//   - error: a descriptive error listing missing required variables, if any.
func Load() (Config, error) {
	v := viper.New()

	// Default values
	v.SetDefault("ALPHA_VANTAGE_URL", "https://www.alphavantage.co/query")
	v.SetDefault("NOTION_API_URL", "https://api.notion.com/v1")
	v.SetDefault("PAGE_ID", "200b57d2b3868050a94ac87c6704d57c")
	v.SetDefault("DATABASE_ID", "200b57d2b3868022b198d81144167217")
	v.SetDefault("FETCH_DELAY_SECONDS", 12)
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 15)
	v.SetDefault("FETCH_MAX_RETRIES", 0)

	// Optionally read from .env if present (common in local dev)
	v.SetConfigFile(".env")
	_ = v.ReadInConfig() // ignore error if no .env

	// Read environment variables automatically
	v.AutomaticEnv()

	cfg := Config{
		AlphaVantage: AlphaVantageConfig{
			APIKey: v.GetString("ALPHA_VANTAGE_API_KEY"),
			URL:    v.GetString("ALPHA_VANTAGE_URL"),
		},
		Notion: NotionConfig{
			Token:      v.GetString("NOTION_TOKEN"),
			BaseURL:    v.GetString("NOTION_API_URL"),
			PageID:     v.GetString("PAGE_ID"),
			DatabaseID: v.GetString("DATABASE_ID"),
		},
		Symbols:     ParseSymbols(v.GetString("STOCK_SYMBOLS")),
		FetchDelay:  time.Duration(v.GetInt("FETCH_DELAY_SECONDS")) * time.Second,
		HTTPTimeout: time.Duration(v.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,
		MaxRetries:  v.GetInt("FETCH_MAX_RETRIES"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate ensures required credentials are present.
//
// Per-symbol failures during a run are tolerated, but there is no point
// starting without credentials, so these are the only fatal checks.
func (c Config) validate() error {
	var missing []string

	if c.AlphaVantage.APIKey == "" {
		missing = append(missing, "ALPHA_VANTAGE_API_KEY")
	}
	if c.Notion.Token == "" {
		missing = append(missing, "NOTION_TOKEN")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ParseSymbols parses a CSV symbol list, uppercasing and trimming entries.
// An empty input falls back to DefaultSymbols.
func ParseSymbols(s string) []string {
	if strings.TrimSpace(s) == "" {
		return append([]string(nil), DefaultSymbols...)
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
