package service

import (
	"context"
	"encoding/json"
	"sort"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/config"
	"golang-stock-recommender/internal/tracker/storage"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/utils"
)

// scoreDecimals fixes the rounding of derived statistics.
const scoreDecimals = 4

// Composite score weights: normalized average return, win rate, and a
// confidence term that damps thin track records toward neutral.
const (
	weightAvgReturn  = 0.5
	weightWinRate    = 0.3
	weightConfidence = 0.2
)

// StatsAggregator folds all PRICED recommendations into per-recommender
// track records. Recomputation is wholesale and deterministic: the stats
// table is a materialized view, never a source of truth.
type StatsAggregator struct {
	storage storage.Storage
	cfg     *config.Config
	logger  *logger.Logger
}

// NewStatsAggregator creates a new StatsAggregator.
func NewStatsAggregator(store storage.Storage, cfg *config.Config, log *logger.Logger) *StatsAggregator {
	return &StatsAggregator{storage: store, cfg: cfg, logger: log}
}

// Recompute rebuilds every recommender's stats from scratch and saves them
// wholesale. Non-PRICED records are simply excluded; they can never fail
// the aggregation. Returns the number of recommenders scored.
func (a *StatsAggregator) Recompute(ctx context.Context) (int, error) {
	records, err := a.storage.Query(ctx, storage.Filter{
		Statuses: []entity.Status{entity.StatusPriced},
	})
	if err != nil {
		return 0, err
	}

	stats := a.Compute(records)
	if err := a.storage.SaveRecommenderStats(ctx, stats); err != nil {
		return 0, err
	}

	a.logger.Info("Recommender stats recomputed",
		logger.IntField("recommenders", len(stats)),
		logger.IntField("priced_records", len(records)))
	return len(stats), nil
}

// Compute derives the stats for the given PRICED records. The result is a
// pure function of the record multiset: input order never matters.
func (a *StatsAggregator) Compute(records []entity.Recommendation) []entity.RecommenderStats {
	type bucket struct {
		returns []float64
		byWeek  map[string][]float64
	}
	buckets := map[string]*bucket{}

	for i := range records {
		rec := &records[i]
		if rec.Status != entity.StatusPriced || rec.PctChange == nil {
			continue
		}
		b, ok := buckets[rec.Recommender]
		if !ok {
			b = &bucket{byWeek: map[string][]float64{}}
			buckets[rec.Recommender] = b
		}
		b.returns = append(b.returns, *rec.PctChange)
		b.byWeek[rec.WeekID] = append(b.byWeek[rec.WeekID], *rec.PctChange)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	stats := make([]entity.RecommenderStats, 0, len(names))
	for _, name := range names {
		b := buckets[name]

		sum := 0.0
		winCount := 0
		for _, r := range b.returns {
			sum += r
			if r > 0 {
				winCount++
			}
		}
		n := len(b.returns)
		winRate := float64(winCount) / float64(n)
		avgReturn := sum / float64(n)
		score := a.compositeScore(avgReturn, winRate, n)

		stats = append(stats, entity.RecommenderStats{
			Name:           name,
			SampleCount:    n,
			WinCount:       winCount,
			WinRate:        utils.RoundDecimals(winRate, scoreDecimals),
			AvgReturn:      utils.RoundDecimals(avgReturn, scoreDecimals),
			CompositeScore: score,
			Rating:         entity.RatingForScore(score),
			WeeklyReturns:  weeklyBreakdown(b.byWeek),
		})
	}

	// Leaderboard order; ties broken by name so the output is stable.
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].CompositeScore != stats[j].CompositeScore {
			return stats[i].CompositeScore > stats[j].CompositeScore
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// compositeScore blends the normalized average return, the win rate and a
// confidence term. The average return is clamped before normalization so a
// single extreme week cannot dominate the ranking.
func (a *StatsAggregator) compositeScore(avgReturn, winRate float64, sampleCount int) float64 {
	clamp := a.cfg.Scoring.ReturnClamp
	clamped := avgReturn
	if clamped > clamp {
		clamped = clamp
	}
	if clamped < -clamp {
		clamped = -clamp
	}
	normalized := (clamped + clamp) / (2 * clamp)

	confidence := float64(sampleCount) / float64(a.cfg.Scoring.MinSampleThreshold)
	if confidence > 1 {
		confidence = 1
	}

	score := normalized*weightAvgReturn + winRate*weightWinRate + confidence*weightConfidence
	return utils.RoundDecimals(score, scoreDecimals)
}

func weeklyBreakdown(byWeek map[string][]float64) []byte {
	weekIDs := make([]string, 0, len(byWeek))
	for id := range byWeek {
		weekIDs = append(weekIDs, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(weekIDs)))

	breakdown := make([]entity.WeeklyReturn, 0, len(weekIDs))
	for _, id := range weekIDs {
		returns := byWeek[id]
		sum := 0.0
		for _, r := range returns {
			sum += r
		}
		breakdown = append(breakdown, entity.WeeklyReturn{
			WeekID:     id,
			AvgReturn:  utils.RoundDecimals(sum/float64(len(returns)), scoreDecimals),
			StockCount: len(returns),
		})
	}

	raw, _ := json.Marshal(breakdown)
	return raw
}
