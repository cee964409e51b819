package port

import (
	"context"

	"tickalert/internal/domain/model"
)

// SymbolSource lists the tradable universe for the given exchange codes
type SymbolSource interface {
	LoadSymbols(ctx context.Context, exchanges []string) ([]model.Symbol, error)
}

// TradeHandler receives decoded trades from the streaming client, in frame order.
// Implementations must not block on external I/O.
type TradeHandler interface {
	OnTrade(ctx context.Context, t model.TradeEvent)
}

// NewsFetcher returns up to a small fixed number of items, most recent first.
// It never fails: upstream errors yield an empty slice.
type NewsFetcher interface {
	FetchNews(ctx context.Context, symbol string) []model.NewsItem
}
