package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Rating buckets recommenders by composite score.
const (
	RatingS = "S"
	RatingA = "A"
	RatingB = "B"
	RatingC = "C"
	RatingD = "D"
)

// RecommenderStats is the materialized track record of one recommender.
// It is recomputed wholesale from PRICED recommendations on every
// aggregator run and is safe to discard and rebuild at any time.
type RecommenderStats struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"not null;uniqueIndex" json:"name"`
	SampleCount    int            `json:"sample_count"`
	WinCount       int            `json:"win_count"`
	WinRate        float64        `json:"win_rate"`
	AvgReturn      float64        `json:"avg_return"`
	CompositeScore float64        `json:"composite_score"`
	Rating         string         `gorm:"size:1" json:"rating"`
	WeeklyReturns  datatypes.JSON `json:"weekly_returns"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// WeeklyReturn is one entry of the per-week breakdown stored in
// RecommenderStats.WeeklyReturns.
type WeeklyReturn struct {
	WeekID     string  `json:"week_id"`
	AvgReturn  float64 `json:"avg_return"`
	StockCount int     `json:"stock_count"`
}

// RatingForScore maps a composite score in [0,1] to a letter rating.
func RatingForScore(score float64) string {
	switch {
	case score >= 0.80:
		return RatingS
	case score >= 0.65:
		return RatingA
	case score >= 0.45:
		return RatingB
	case score >= 0.25:
		return RatingC
	default:
		return RatingD
	}
}
