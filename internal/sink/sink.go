// Package sink writes batches of quote records to the target workspace.
// Two implementations exist: PageSink rewrites a page's content blocks,
// DatabaseSink upserts rows in a database. The orchestrator selects one at
// construction time and calls it once per run.
package sink

import (
	"context"

	"github.com/guttosm/stocksync/internal/domain/models"
)

// Sink writes one ordered batch of quote records.
//
// Implementations report a single error for the whole batch; partial
// per-record failures (DatabaseSink) are folded into that error after every
// record has been attempted.
type Sink interface {
	Write(ctx context.Context, records []models.Quote) error
}
