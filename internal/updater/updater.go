// Package updater runs one synchronization pass: fetch every tracked
// symbol in order, pacing calls to stay under the provider's rate ceiling,
// then hand the accumulated batch to the sink in a single write.
package updater

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/guttosm/stocksync/internal/domain/models"
	"github.com/guttosm/stocksync/internal/logger"
	"github.com/guttosm/stocksync/internal/sink"
)

// Fetcher retrieves the latest quote for one symbol.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (models.Quote, error)
}

// Summary reports how many symbol fetches succeeded and failed in one run.
// The sink write outcome is logged but never changes these counts.
type Summary struct {
	Succeeded int
	Failed    int
}

// Updater orchestrates one run over a symbol list.
//
// Fetching is strictly sequential: the provider's free tier allows 5 calls
// per minute, so calls are spaced by a fixed delay rather than parallelized.
type Updater struct {
	fetcher Fetcher
	sink    sink.Sink
	delay   time.Duration

	// sleep is a seam so tests don't wait out the pacing delay.
	sleep func(time.Duration)
}

// New creates an Updater. delay is the pause between consecutive fetches;
// it is not applied after the final symbol.
func New(fetcher Fetcher, s sink.Sink, delay time.Duration) *Updater {
	return &Updater{fetcher: fetcher, sink: s, delay: delay, sleep: time.Sleep}
}

// Run processes the symbols in listed order and returns the fetch summary.
//
// A failed fetch is logged, counted, and skipped; it never aborts the run.
// The sink is invoked exactly once with the full batch, and only when at
// least one fetch succeeded.
func (u *Updater) Run(ctx context.Context, symbols []string) Summary {
	log := logger.WithRun(uuid.NewString())
	log.Info().Int("symbols", len(symbols)).Msg("sync start")
	start := time.Now()

	var sum Summary
	batch := make([]models.Quote, 0, len(symbols))

	for i, symbol := range symbols {
		log.Info().Str("symbol", symbol).Int("idx", i+1).Int("total", len(symbols)).Msg("fetching quote")

		q, err := u.fetcher.Fetch(ctx, symbol)
		if err != nil {
			sum.Failed++
			log.Error().Str("symbol", symbol).Err(err).Msg("fetch failed")
		} else {
			sum.Succeeded++
			batch = append(batch, q)
			log.Info().
				Str("symbol", q.Symbol).
				Float64("price", q.CurrentPrice).
				Float64("change", q.PriceChange).
				Int64("volume", q.Volume).
				Msg("quote fetched")
		}

		if i < len(symbols)-1 && u.delay > 0 {
			log.Debug().Dur("delay", u.delay).Msg("pacing before next fetch")
			u.sleep(u.delay)
		}
	}

	if len(batch) > 0 {
		if err := u.sink.Write(ctx, batch); err != nil {
			log.Error().Err(err).Msg("sink write failed")
		}
	} else {
		log.Warn().Msg("no quotes fetched; skipping sink write")
	}

	log.Info().
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("sync complete")
	return sum
}
