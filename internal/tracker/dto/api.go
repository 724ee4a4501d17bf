package dto

import "golang-stock-recommender/internal/entity"

// SubmitRawTextRequest is the admin payload for submitting a week's raw
// recommendation text.
type SubmitRawTextRequest struct {
	RawText string `json:"raw_text"`
}

// StageResult summarizes one pipeline stage sweep.
type StageResult struct {
	Stage     string `json:"stage"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// PipelineRunResult is the outcome of a full orchestrator run for a week.
type PipelineRunResult struct {
	WeekID string        `json:"week_id"`
	Stages []StageResult `json:"stages"`
}

// RankingResponse is the public week ranking: priced picks sorted by
// percent change descending, unpriced picks trailing.
type RankingResponse struct {
	WeekID    string                  `json:"week_id"`
	WeekStart string                  `json:"week_start"`
	WeekEnd   string                  `json:"week_end"`
	Stocks    []entity.Recommendation `json:"stocks"`
	Ratings   map[string]string       `json:"recommender_ratings"`
}

// RecommenderStatsResponse wraps the recommender leaderboard.
type RecommenderStatsResponse struct {
	Recommenders []entity.RecommenderStats `json:"recommenders"`
}

// WeekInfo is one entry of the week list.
type WeekInfo struct {
	WeekID string `json:"week_id"`
	Year   int    `json:"year"`
	Week   int    `json:"week"`
}

// CurrentWeekResponse reports the ISO week of the current date.
type CurrentWeekResponse struct {
	WeekID string `json:"week_id"`
	Year   int    `json:"year"`
	Week   int    `json:"week"`
}

// IngestFeedsResult summarizes one feed ingestion sweep.
type IngestFeedsResult struct {
	WeekID   string `json:"week_id"`
	Items    int    `json:"items"`
	Appended int    `json:"appended"`
}
