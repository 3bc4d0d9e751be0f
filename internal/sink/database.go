package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guttosm/stocksync/internal/domain/models"
	"github.com/guttosm/stocksync/internal/logger"
	"github.com/guttosm/stocksync/internal/notion"
)

// symbolProperty is the database column holding the ticker; it keys the
// create-vs-update decision.
const symbolProperty = "Symbol"

// databaseAPI is the slice of the Notion client the database sink needs.
type databaseAPI interface {
	QueryDatabase(ctx context.Context, databaseID string) ([]notion.Page, error)
	CreatePage(ctx context.Context, databaseID string, props notion.Properties) error
	UpdatePage(ctx context.Context, pageID string, props notion.Properties) error
}

// DatabaseSink upserts quote records as rows of a database: rows whose
// Symbol matches an incoming record (case-insensitively) are updated in
// place, everything else is created fresh.
type DatabaseSink struct {
	api        databaseAPI
	databaseID string
}

// NewDatabaseSink creates a DatabaseSink targeting the given database.
func NewDatabaseSink(api databaseAPI, databaseID string) *DatabaseSink {
	return &DatabaseSink{api: api, databaseID: databaseID}
}

// Write upserts every record in the batch.
//
// Each record's outcome is independent: a failed create/update is logged
// and counted, and the remaining records are still attempted. The returned
// error summarizes the failed count (nil when all records succeeded).
func (s *DatabaseSink) Write(ctx context.Context, records []models.Quote) error {
	existing := s.existingRows(ctx)

	failed := 0
	for _, q := range records {
		props := rowProperties(q)

		var err error
		if pageID, ok := existing[strings.ToUpper(q.Symbol)]; ok {
			// Identity fields are immutable on update: the Name title set at
			// creation is left untouched.
			if err = s.api.UpdatePage(ctx, pageID, props); err == nil {
				logger.L().Info().Str("symbol", q.Symbol).Str("page_id", pageID).Msg("row updated")
			}
		} else {
			props["Name"] = notion.TitleProperty(q.Symbol + " Stock Quote")
			if err = s.api.CreatePage(ctx, s.databaseID, props); err == nil {
				logger.L().Info().Str("symbol", q.Symbol).Msg("row created")
			}
		}

		if err != nil {
			failed++
			logger.L().Error().Str("symbol", q.Symbol).Err(err).Msg("upsert failed")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d upserts failed", failed, len(records))
	}
	return nil
}

// existingRows queries the database once and maps each row's uppercased
// symbol to its page id. Rows whose Symbol property is absent or carries no
// text are skipped. A failed query degrades to an empty map, which makes
// every record a create.
func (s *DatabaseSink) existingRows(ctx context.Context) map[string]string {
	rows, err := s.api.QueryDatabase(ctx, s.databaseID)
	if err != nil {
		logger.L().Warn().Err(err).Msg("could not query existing rows")
		return map[string]string{}
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		sym := row.Properties[symbolProperty].PlainText()
		if sym == "" {
			continue
		}
		out[strings.ToUpper(sym)] = row.ID
	}
	return out
}

// rowProperties builds the typed property payload shared by create and
// update calls. The Name title is added separately on create only.
func rowProperties(q models.Quote) notion.Properties {
	return notion.Properties{
		symbolProperty:   notion.RichTextProperty(q.Symbol),
		"Current Price":  notion.NumberProperty(q.CurrentPrice),
		"Previous Close": notion.NumberProperty(q.PreviousClose),
		"Price Change":   notion.NumberProperty(q.PriceChange),
		"Percent Change": notion.NumberProperty(q.PercentChange),
		"Volume":         notion.NumberProperty(float64(q.Volume)),
		"Open Price":     notion.NumberProperty(q.OpenPrice),
		"High Price":     notion.NumberProperty(q.HighPrice),
		"Low Price":      notion.NumberProperty(q.LowPrice),
		"Trading Day":    notion.RichTextProperty(q.LatestTradingDay),
		"Last Updated":   notion.DateProperty(q.LastUpdated.Format(time.RFC3339)),
	}
}
