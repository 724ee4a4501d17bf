package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/config"
)

func scoringConfig() *config.Config {
	return &config.Config{
		Scoring: config.Scoring{MinSampleThreshold: 10, ReturnClamp: 0.2},
	}
}

func pricedRec(weekID, recommender string, pct float64) entity.Recommendation {
	p := pct
	return entity.Recommendation{
		WeekID:      weekID,
		Recommender: recommender,
		StockName:   fmt.Sprintf("stock-%s-%.4f", recommender, pct),
		Market:      "SH",
		Code:        "600000",
		PctChange:   &p,
		Status:      entity.StatusPriced,
	}
}

func TestComputeStatsBasics(t *testing.T) {
	aggregator := NewStatsAggregator(newFakeStorage(), scoringConfig(), newTestLogger(t))

	records := []entity.Recommendation{
		pricedRec("2024-W17", "老张", 0.05),
		pricedRec("2024-W17", "老张", -0.02),
		pricedRec("2024-W18", "老张", 0.10),
	}
	stats := aggregator.Compute(records)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, "老张", s.Name)
	assert.Equal(t, 3, s.SampleCount)
	assert.Equal(t, 2, s.WinCount)
	assert.Equal(t, 0.6667, s.WinRate)
	assert.Equal(t, 0.0433, s.AvgReturn)
	// normalized avg (0.0433+0.2)/0.4, win rate 2/3, confidence 3/10.
	assert.Equal(t, 0.5642, s.CompositeScore)
	assert.Equal(t, entity.RatingB, s.Rating)

	var breakdown []entity.WeeklyReturn
	require.NoError(t, json.Unmarshal(s.WeeklyReturns, &breakdown))
	require.Len(t, breakdown, 2)
	assert.Equal(t, "2024-W18", breakdown[0].WeekID)
	assert.Equal(t, 0.1, breakdown[0].AvgReturn)
	assert.Equal(t, 1, breakdown[0].StockCount)
	assert.Equal(t, "2024-W17", breakdown[1].WeekID)
	assert.Equal(t, 2, breakdown[1].StockCount)
}

func TestComputeStatsThinRecordIsDamped(t *testing.T) {
	aggregator := NewStatsAggregator(newFakeStorage(), scoringConfig(), newTestLogger(t))

	thin := []entity.Recommendation{
		pricedRec("2024-W17", "新人", 0.05),
		pricedRec("2024-W17", "新人", -0.02),
		pricedRec("2024-W18", "新人", 0.10),
	}
	// Same return profile, but over enough picks to reach full confidence.
	var seasoned []entity.Recommendation
	for i := 0; i < 4; i++ {
		seasoned = append(seasoned,
			pricedRec(fmt.Sprintf("2024-W%02d", 10+i*3), "老将", 0.05),
			pricedRec(fmt.Sprintf("2024-W%02d", 11+i*3), "老将", -0.02),
			pricedRec(fmt.Sprintf("2024-W%02d", 12+i*3), "老将", 0.10),
		)
	}

	stats := aggregator.Compute(append(thin, seasoned...))
	require.Len(t, stats, 2)
	assert.Equal(t, "老将", stats[0].Name)
	assert.Equal(t, "新人", stats[1].Name)
	assert.Greater(t, stats[0].CompositeScore, stats[1].CompositeScore,
		"identical returns with fewer samples must score lower")
}

func TestComputeStatsClampBoundsExtremeReturns(t *testing.T) {
	aggregator := NewStatsAggregator(newFakeStorage(), scoringConfig(), newTestLogger(t))

	moonshot := aggregator.Compute([]entity.Recommendation{pricedRec("2024-W17", "a", 5.0)})
	steady := aggregator.Compute([]entity.Recommendation{pricedRec("2024-W17", "a", 0.2)})

	// Anything at or above the clamp normalizes to the same ceiling.
	assert.Equal(t, steady[0].CompositeScore, moonshot[0].CompositeScore)
}

func TestComputeStatsIsOrderIndependent(t *testing.T) {
	aggregator := NewStatsAggregator(newFakeStorage(), scoringConfig(), newTestLogger(t))

	var records []entity.Recommendation
	for i := 0; i < 20; i++ {
		records = append(records, pricedRec(
			fmt.Sprintf("2024-W%02d", 1+i%5),
			fmt.Sprintf("recommender-%d", i%4),
			float64(i%7-3)/100,
		))
	}

	baseline := aggregator.Compute(records)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]entity.Recommendation, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, baseline, aggregator.Compute(shuffled))
	}
}

func TestRecomputeIgnoresNonPricedRecords(t *testing.T) {
	store := newFakeStorage()
	store.seed(
		pricedRec("2024-W17", "老张", 0.05),
		entity.Recommendation{WeekID: "2024-W17", Recommender: "老张", StockName: "未解析", Status: entity.StatusCodePending},
		entity.Recommendation{WeekID: "2024-W17", Recommender: "老李", StockName: "失败了", Status: entity.StatusFailed, FailReason: entity.FailReasonCodeNotFound},
	)

	aggregator := NewStatsAggregator(store, scoringConfig(), newTestLogger(t))
	count, err := aggregator.Recompute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stats, err := store.GetRecommenderStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "老张", stats[0].Name)
	assert.Equal(t, 1, stats[0].SampleCount)
}
