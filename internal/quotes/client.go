// Package quotes implements the Alpha Vantage GLOBAL_QUOTE client.
//
// A fetch either yields a fully populated models.Quote or fails with one of
// the sentinel errors below; partial records are never returned. The single
// tolerated degradation is a non-numeric change-percent field, which becomes
// 0.0 instead of failing the record.
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/guttosm/stocksync/internal/domain/models"
)

// Sentinel errors classifying why a fetch produced no record.
var (
	// ErrNetwork covers transport failures and non-2xx responses.
	ErrNetwork = errors.New("network error")
	// ErrAPI means the provider returned an explicit "Error Message" payload.
	ErrAPI = errors.New("provider error")
	// ErrRateLimited means the provider returned a "Note" payload, which it
	// uses to signal that the per-minute call ceiling was hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrNoData means the response carried no quote payload for the symbol.
	ErrNoData = errors.New("no quote data")
	// ErrParse means a numeric field in the payload could not be parsed.
	ErrParse = errors.New("parse error")
)

// Config defines access to the provider.
type Config struct {
	APIKey string
	URL    string // e.g., "https://www.alphavantage.co/query"
	// MaxRetries is the number of extra attempts for ErrNetwork/ErrRateLimited
	// failures, with exponential backoff. 0 disables retrying.
	MaxRetries int
}

// Client fetches quotes for single symbols.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

// NewClient creates a Client using the given HTTP client (which carries the
// per-request timeout).
func NewClient(cfg Config, hc *http.Client) *Client {
	if cfg.URL == "" {
		cfg.URL = "https://www.alphavantage.co/query"
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg, http: hc, now: time.Now}
}

// Fetch retrieves the latest quote for one symbol.
//
// Parameters:
//   - ctx:    context for cancellation/timeouts.
//   - symbol: non-empty ticker; matching is case-insensitive.
//
// Returns:
//   - models.Quote: the normalized record (zero value on error).
//   - error: nil, or a wrapped sentinel (ErrNetwork, ErrAPI, ErrRateLimited,
//     ErrNoData, ErrParse).
func (c *Client) Fetch(ctx context.Context, symbol string) (models.Quote, error) {
	if strings.TrimSpace(symbol) == "" {
		return models.Quote{}, fmt.Errorf("empty symbol")
	}

	if c.cfg.MaxRetries <= 0 {
		return c.fetchOnce(ctx, symbol)
	}

	// Bounded retry applies only to transient classes; everything else is
	// permanent and returned on the first attempt.
	var q models.Quote
	op := func() error {
		var err error
		q, err = c.fetchOnce(ctx, symbol)
		if err != nil && !errors.Is(err, ErrNetwork) && !errors.Is(err, ErrRateLimited) {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.cfg.MaxRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return models.Quote{}, err
	}
	return q, nil
}

// globalQuoteResponse mirrors the provider's envelope. The quote payload is
// keyed by numbered field labels ("01. symbol" ... "10. change percent").
type globalQuoteResponse struct {
	GlobalQuote  map[string]string `json:"Global Quote"`
	ErrorMessage string            `json:"Error Message"`
	Note         string            `json:"Note"`
}

func (c *Client) fetchOnce(ctx context.Context, symbol string) (models.Quote, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%s: build request: %w", symbol, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%s: %w: %v", symbol, ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return models.Quote{}, fmt.Errorf("%s: %w: status %d: %s", symbol, ErrNetwork, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var body globalQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Quote{}, fmt.Errorf("%s: %w: decode body: %v", symbol, ErrParse, err)
	}

	switch {
	case body.ErrorMessage != "":
		return models.Quote{}, fmt.Errorf("%s: %w: %s", symbol, ErrAPI, body.ErrorMessage)
	case body.Note != "":
		return models.Quote{}, fmt.Errorf("%s: %w: %s", symbol, ErrRateLimited, body.Note)
	case len(body.GlobalQuote) == 0:
		return models.Quote{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	return c.normalize(symbol, body.GlobalQuote)
}

// normalize maps the numbered-label payload into a Quote.
//
// Rounding follows the observed provider-agnostic policy: price, previous
// close, change, and change percent are rounded to 2 places; open/high/low
// are kept as provided. Missing fields default to "0".
func (c *Client) normalize(symbol string, q map[string]string) (models.Quote, error) {
	currentPrice, err := parsePrice(q, "05. price")
	if err != nil {
		return models.Quote{}, fmt.Errorf("%s: %w", symbol, err)
	}
	previousClose, err := parsePrice(q, "08. previous close")
	if err != nil {
		return models.Quote{}, fmt.Errorf("%s: %w", symbol, err)
	}
	change, err := parsePrice(q, "09. change")
	if err != nil {
		return models.Quote{}, fmt.Errorf("%s: %w", symbol, err)
	}
	openPrice, err := parsePrice(q, "02. open")
	if err != nil {
		return models.Quote{}, fmt.Errorf("%s: %w", symbol, err)
	}
	highPrice, err := parsePrice(q, "03. high")
	if err != nil {
		return models.Quote{}, fmt.Errorf("%s: %w", symbol, err)
	}
	lowPrice, err := parsePrice(q, "04. low")
	if err != nil {
		return models.Quote{}, fmt.Errorf("%s: %w", symbol, err)
	}

	// Volume arrives as a float-formatted string; truncate to integer.
	volFloat, err := parsePrice(q, "06. volume")
	if err != nil {
		return models.Quote{}, fmt.Errorf("%s: %w", symbol, err)
	}

	// Change percent is the one tolerated parse failure: strip the trailing
	// "%" and default to 0.0 when the remainder is not numeric.
	percent := 0.0
	raw := strings.TrimSuffix(strings.TrimSpace(field(q, "10. change percent")), "%")
	if f, perr := strconv.ParseFloat(raw, 64); perr == nil {
		percent = f
	}

	sym := q["01. symbol"]
	if sym == "" {
		sym = strings.ToUpper(symbol)
	}

	return models.Quote{
		Symbol:           sym,
		CurrentPrice:     round2(currentPrice),
		PreviousClose:    round2(previousClose),
		PriceChange:      round2(change),
		PercentChange:    round2(percent),
		OpenPrice:        openPrice,
		HighPrice:        highPrice,
		LowPrice:         lowPrice,
		Volume:           int64(volFloat),
		LatestTradingDay: q["07. latest trading day"],
		LastUpdated:      c.now().UTC(),
	}, nil
}

// field returns the labeled value, defaulting to "0" when absent or empty.
func field(q map[string]string, key string) string {
	if v := q[key]; v != "" {
		return v
	}
	return "0"
}

func parsePrice(q map[string]string, key string) (float64, error) {
	v := field(q, key)
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q: %q", ErrParse, key, v)
	}
	return f, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
