package market

import "context"

// Source supplies quotes and daily bar series for a symbol. Implementations
// wrap a brokerage or exchange REST API; the deterministic in-memory
// implementation lives in gateway/paper.
type Source interface {
	// GetQuote returns the current price snapshot. Valid only at query time.
	GetQuote(ctx context.Context, symbol string) (Quote, error)

	// GetSeries returns up to count daily bars, most-recent-first. The first
	// bar may be the in-progress bar for the current session.
	GetSeries(ctx context.Context, symbol string, count int) (Series, error)
}
