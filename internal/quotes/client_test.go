package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fullQuote returns a complete GLOBAL_QUOTE payload for AAPL.
func fullQuote() map[string]string {
	return map[string]string{
		"01. symbol":             "AAPL",
		"02. open":               "189.1234",
		"03. high":               "193.1000",
		"04. low":                "188.0500",
		"05. price":              "192.327",
		"06. volume":             "48123456.0",
		"07. latest trading day": "2025-09-12",
		"08. previous close":     "191.0749",
		"09. change":             "1.2551",
		"10. change percent":     "0.6568%",
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{APIKey: "test-key", URL: srv.URL}, srv.Client())
	return c, srv
}

func serveQuote(quote map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"Global Quote": quote})
	}
}

func TestFetch_Normalization(t *testing.T) {
	c, _ := newTestClient(t, serveQuote(fullQuote()))

	q, err := c.Fetch(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Symbol != "AAPL" {
		t.Fatalf("symbol: got %q", q.Symbol)
	}
	// Price, previous close, change, and percent are rounded to 2 places.
	if q.CurrentPrice != 192.33 {
		t.Fatalf("current price: got %v", q.CurrentPrice)
	}
	if q.PreviousClose != 191.07 {
		t.Fatalf("previous close: got %v", q.PreviousClose)
	}
	if q.PriceChange != 1.26 {
		t.Fatalf("price change: got %v", q.PriceChange)
	}
	if q.PercentChange != 0.66 {
		t.Fatalf("percent change: got %v", q.PercentChange)
	}
	// Open/high/low are kept as provided.
	if q.OpenPrice != 189.1234 {
		t.Fatalf("open price: got %v", q.OpenPrice)
	}
	// Volume is parsed as float and truncated.
	if q.Volume != 48123456 {
		t.Fatalf("volume: got %v", q.Volume)
	}
	if q.LatestTradingDay != "2025-09-12" {
		t.Fatalf("trading day: got %q", q.LatestTradingDay)
	}
	if q.LastUpdated.IsZero() || q.LastUpdated.Location() != time.UTC {
		t.Fatalf("last updated not stamped in UTC: %v", q.LastUpdated)
	}
}

func TestFetch_RequestShape(t *testing.T) {
	var got *http.Request
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		serveQuote(fullQuote())(w, r)
	})

	if _, err := c.Fetch(context.Background(), "AAPL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	qs := got.URL.Query()
	if qs.Get("function") != "GLOBAL_QUOTE" || qs.Get("symbol") != "AAPL" || qs.Get("apikey") != "test-key" {
		t.Fatalf("unexpected query: %v", got.URL.RawQuery)
	}
}

func TestFetch_PercentParseDegradesToZero(t *testing.T) {
	quote := fullQuote()
	quote["10. change percent"] = "n/a"
	c, _ := newTestClient(t, serveQuote(quote))

	q, err := c.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("percent parse failure must not fail the record: %v", err)
	}
	if q.PercentChange != 0.0 {
		t.Fatalf("percent change: got %v, want 0.0", q.PercentChange)
	}
}

func TestFetch_MissingFieldsDefaultToZero(t *testing.T) {
	quote := fullQuote()
	delete(quote, "08. previous close")
	delete(quote, "06. volume")
	delete(quote, "07. latest trading day")
	c, _ := newTestClient(t, serveQuote(quote))

	q, err := c.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.PreviousClose != 0 || q.Volume != 0 {
		t.Fatalf("missing fields must default to zero: %+v", q)
	}
	if q.LatestTradingDay != "" {
		t.Fatalf("trading day: got %q, want empty", q.LatestTradingDay)
	}
}

func TestFetch_ErrorClassification(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "provider error message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"Error Message": "Invalid API call."})
			},
			want: ErrAPI,
		},
		{
			name: "rate limit note",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"Note": "Thank you for using Alpha Vantage!"})
			},
			want: ErrRateLimited,
		},
		{
			name: "empty payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"Global Quote": map[string]string{}})
			},
			want: ErrNoData,
		},
		{
			name: "no quote object",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{})
			},
			want: ErrNoData,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: ErrNetwork,
		},
		{
			name: "unparseable price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				quote := fullQuote()
				quote["05. price"] = "not-a-number"
				serveQuote(quote)(w, r)
			},
			want: ErrParse,
		},
		{
			name: "unparseable volume",
			handler: func(w http.ResponseWriter, r *http.Request) {
				quote := fullQuote()
				quote["06. volume"] = "lots"
				serveQuote(quote)(w, r)
			},
			want: ErrParse,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, tc.handler)
			_, err := c.Fetch(context.Background(), "AAPL")
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(serveQuote(fullQuote()))
	c := NewClient(Config{APIKey: "k", URL: srv.URL}, srv.Client())
	srv.Close() // connection refused from here on

	_, err := c.Fetch(context.Background(), "AAPL")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("got %v, want ErrNetwork", err)
	}
}

func TestFetch_EmptySymbol(t *testing.T) {
	c, _ := newTestClient(t, serveQuote(fullQuote()))
	if _, err := c.Fetch(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty symbol")
	}
}

func TestFetch_RetryOnNetworkError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		serveQuote(fullQuote())(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Config{APIKey: "k", URL: srv.URL, MaxRetries: 2}, srv.Client())
	q, err := c.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls: got %d, want 2", calls)
	}
	if q.Symbol != "AAPL" {
		t.Fatalf("symbol: got %q", q.Symbol)
	}
}

func TestFetch_NoRetryOnPermanentError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]string{"Error Message": "Invalid API call."})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Config{APIKey: "k", URL: srv.URL, MaxRetries: 3}, srv.Client())
	_, err := c.Fetch(context.Background(), "AAPL")
	if !errors.Is(err, ErrAPI) {
		t.Fatalf("got %v, want ErrAPI", err)
	}
	if calls != 1 {
		t.Fatalf("calls: got %d, want 1 (no retry for provider errors)", calls)
	}
}
