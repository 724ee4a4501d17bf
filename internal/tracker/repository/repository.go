package repository

import (
	"context"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/dto"
)

// ExtractionRepository turns a week's raw recommendation text into
// (recommender, stock) pairs via the external AI collaborator. Failures
// degrade to an error and never to partially corrupt pairs.
type ExtractionRepository interface {
	ExtractRecommendations(ctx context.Context, rawText string) ([]dto.RecommendationPair, error)
}

// CodeLookupRepository resolves a stock display name to an exchange-listed
// instrument. Returns entity.ErrCodeNotFound when the name has no match and
// entity.ErrTransient-wrapped errors on service hiccups.
type CodeLookupRepository interface {
	Search(ctx context.Context, stockName string) (*dto.StockMatch, error)
}

// PriceRepository fetches the weekly open and close for one instrument.
// Returns entity.ErrNoPriceData when the instrument has no trading data in
// the week and entity.ErrTransient-wrapped errors on service hiccups.
type PriceRepository interface {
	GetWeeklyPrice(ctx context.Context, market, code string, week entity.Week) (*dto.WeeklyPrice, error)
}

// FeedRepository pulls recommendation post bodies from configured RSS
// sources as an alternative raw-text ingestion path.
type FeedRepository interface {
	FetchPosts(ctx context.Context) ([]string, error)
}
