package models

import "time"

// Quote is the normalized snapshot of one ticker's latest trade data,
// built from an Alpha Vantage GLOBAL_QUOTE response.
//
// A Quote is always fully populated: the fetcher either produces every
// field (with zero defaults for fields the provider omitted) or fails
// without producing a record at all. The single exception is
// PercentChange, which degrades to 0.0 when the provider sends a
// non-numeric value.
type Quote struct {
	Symbol           string    // Uppercase ticker (e.g., "AAPL")
	CurrentPrice     float64   // Latest trade price, rounded to 2 places
	PreviousClose    float64   // Prior session close, rounded to 2 places
	PriceChange      float64   // Absolute change vs previous close, rounded to 2 places
	PercentChange    float64   // Change in percent, rounded to 2 places; 0.0 on parse failure
	OpenPrice        float64   // Session open, as provided
	HighPrice        float64   // Session high, as provided
	LowPrice         float64   // Session low, as provided
	Volume           int64     // Shares traded, truncated to integer
	LatestTradingDay string    // Provider-supplied date string, may be empty
	LastUpdated      time.Time // UTC timestamp stamped at fetch time
}
