package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/guttosm/stocksync/config"
	"github.com/guttosm/stocksync/internal/logger"
	"github.com/guttosm/stocksync/internal/notion"
	"github.com/guttosm/stocksync/internal/quotes"
	"github.com/guttosm/stocksync/internal/sink"
	"github.com/guttosm/stocksync/internal/updater"
)

// main is the entry point of the stocksync application.
//
// Modes (selected via --mode flag):
//   - page:     Rewrites the target Notion page's content blocks with the
//     fetched quotes.
//   - database: Upserts one row per tracked symbol in the target Notion
//     database.
//
// Flags:
//   - --mode:    Execution mode ("page" or "database"). Default: "page".
//   - --symbols: Comma-separated tickers; overrides STOCK_SYMBOLS.
//   - --delay:   Seconds between quote fetches. Defaults to config
//     (FETCH_DELAY_SECONDS).
//
// The process exits nonzero only when required credentials are missing or
// the mode is unknown; per-symbol failures are reported in the summary and
// still exit 0.
func main() {
	ctx := context.Background()

	// Initialize JSON logger
	logger.Init()

	// Load configuration from environment or .env file
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("config error")
	}

	// Parse CLI flags (override config defaults if provided)
	mode := flag.String("mode", "page", "Mode: page or database")
	symbolsCSV := flag.String("symbols", "", "Comma-separated tickers (overrides STOCK_SYMBOLS)")
	delay := flag.Int("delay", int(cfg.FetchDelay.Seconds()), "Seconds between quote fetches")
	flag.Parse()

	symbols := cfg.Symbols
	if *symbolsCSV != "" {
		symbols = config.ParseSymbols(*symbolsCSV)
	}
	if len(symbols) == 0 {
		logger.L().Fatal().Msg("no symbols to track")
	}

	// One HTTP client with a bounded per-request timeout for both APIs.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	fetcher := quotes.NewClient(quotes.Config{
		APIKey:     cfg.AlphaVantage.APIKey,
		URL:        cfg.AlphaVantage.URL,
		MaxRetries: cfg.MaxRetries,
	}, httpClient)

	notionClient := notion.NewClient(cfg.Notion.Token, cfg.Notion.BaseURL, httpClient)

	target, err := newSink(*mode, notionClient, cfg.Notion)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("invalid mode")
	}
	logger.L().Info().Str("mode", *mode).Msg("starting sync")

	u := updater.New(fetcher, target, time.Duration(*delay)*time.Second)
	u.Run(ctx, symbols)
}

// newSink selects the output target for the run.
//
// Parameters:
//   - mode:   "page" (rewrite page content) or "database" (upsert rows).
//   - client: the shared Notion client.
//   - nc:     workspace settings carrying the target identifiers.
//
// Returns:
//   - sink.Sink: the selected sink.
//   - error: when mode names neither variant.
func newSink(mode string, client *notion.Client, nc config.NotionConfig) (sink.Sink, error) {
	switch mode {
	case "page":
		return sink.NewPageSink(client, nc.PageID), nil
	case "database":
		return sink.NewDatabaseSink(client, nc.DatabaseID), nil
	default:
		return nil, fmt.Errorf("unknown mode %q (want page or database)", mode)
	}
}
