package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/guttosm/stocksync/internal/domain/models"
	"github.com/guttosm/stocksync/internal/logger"
	"github.com/guttosm/stocksync/internal/notion"
)

// clearPause is the wait after deleting existing blocks, to avoid a
// read-after-delete race in the workspace API.
const clearPause = time.Second

// pageAPI is the slice of the Notion client the page sink needs.
type pageAPI interface {
	ListBlockChildren(ctx context.Context, blockID string) ([]notion.Block, error)
	DeleteBlock(ctx context.Context, blockID string) error
	AppendBlockChildren(ctx context.Context, blockID string, children []notion.Block) error
}

// PageSink rewrites one page's content with the rendered quote batch:
// clear existing blocks, pause briefly, then append the full new block
// sequence in a single call.
type PageSink struct {
	api    pageAPI
	pageID string

	// test seams
	pause func(time.Duration)
	now   func() time.Time
}

// NewPageSink creates a PageSink targeting the given page.
func NewPageSink(api pageAPI, pageID string) *PageSink {
	return &PageSink{api: api, pageID: pageID, pause: time.Sleep, now: time.Now}
}

// Write renders the batch onto the page.
//
// The clear step is best-effort: a failure there is logged and the append
// proceeds anyway (content will pile up under the old blocks until a later
// run clears successfully). A failure of the append itself fails the batch.
func (s *PageSink) Write(ctx context.Context, records []models.Quote) error {
	s.clear(ctx)
	s.pause(clearPause)

	blocks := renderBlocks(records, s.now())
	if err := s.api.AppendBlockChildren(ctx, s.pageID, blocks); err != nil {
		return fmt.Errorf("write page content: %w", err)
	}

	logger.L().Info().Int("records", len(records)).Int("blocks", len(blocks)).Msg("page updated")
	return nil
}

// clear deletes the page's existing child blocks. Every failure is tolerated.
func (s *PageSink) clear(ctx context.Context) {
	blocks, err := s.api.ListBlockChildren(ctx, s.pageID)
	if err != nil {
		logger.L().Warn().Err(err).Msg("could not list page content for clearing")
		return
	}

	for _, b := range blocks {
		if err := s.api.DeleteBlock(ctx, b.ID); err != nil {
			logger.L().Warn().Str("block_id", b.ID).Err(err).Msg("could not delete block")
		}
	}
	logger.L().Debug().Int("blocks", len(blocks)).Msg("cleared existing page content")
}

// renderBlocks builds the ordered block sequence for a batch: one title
// heading stamped with the local time, then per record a header heading, a
// detail paragraph, and a divider, then one footer paragraph.
func renderBlocks(records []models.Quote, now time.Time) []notion.Block {
	blocks := make([]notion.Block, 0, len(records)*3+2)

	blocks = append(blocks, notion.NewHeading1(
		fmt.Sprintf("📈 Stock Portfolio Update - %s", now.Format("2006-01-02 15:04:05")),
	))

	for _, q := range records {
		blocks = append(blocks,
			notion.NewHeading2(fmt.Sprintf("%s %s - $%.2f", trendGlyph(q.PriceChange), q.Symbol, q.CurrentPrice)),
			notion.NewParagraph(detailText(q)),
			notion.NewDivider(),
		)
	}

	blocks = append(blocks, notion.NewParagraph(
		"🤖 Updated automatically by stocksync | ⚡ Powered by Alpha Vantage API",
	))
	return blocks
}

// detailText formats one record's detail paragraph.
func detailText(q models.Quote) string {
	return fmt.Sprintf(
		"💰 Current Price: $%.2f\n"+
			"📊 Change: $%.2f (%+.2f%%)\n"+
			"📈 High: $%.2f | 📉 Low: $%.2f\n"+
			"🏁 Open: $%.2f | 🔒 Previous Close: $%.2f\n"+
			"📦 Volume: %s\n"+
			"📅 Trading Day: %s",
		q.CurrentPrice,
		q.PriceChange, q.PercentChange,
		q.HighPrice, q.LowPrice,
		q.OpenPrice, q.PreviousClose,
		humanize.Comma(q.Volume),
		q.LatestTradingDay,
	)
}

// trendGlyph maps the price change sign to the direction indicator.
func trendGlyph(change float64) string {
	switch {
	case change > 0:
		return "📈"
	case change < 0:
		return "📉"
	default:
		return "➡️"
	}
}
