package service

import (
	"context"
	"sort"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/internal/tracker/repository"
	"golang-stock-recommender/internal/tracker/storage"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/utils"
)

// ReportingService serves the read side: week rankings, the recommender
// leaderboard, and week bookkeeping.
type ReportingService struct {
	storage storage.Storage
	lookup  repository.CodeLookupRepository
	logger  *logger.Logger
	now     func() time.Time
}

// NewReportingService creates a new ReportingService.
func NewReportingService(store storage.Storage, lookup repository.CodeLookupRepository, log *logger.Logger) *ReportingService {
	return &ReportingService{
		storage: store,
		lookup:  lookup,
		logger:  log,
		now:     utils.TimeNowCST,
	}
}

// WeekRanking returns the week's picks sorted by percent change descending,
// with unpriced picks trailing, plus the current recommender ratings.
func (s *ReportingService) WeekRanking(ctx context.Context, weekID string) (*dto.RankingResponse, error) {
	week, err := entity.ParseWeekID(weekID)
	if err != nil {
		return nil, err
	}

	records, err := s.storage.Query(ctx, storage.Filter{WeekID: weekID})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if (a.PctChange != nil) != (b.PctChange != nil) {
			return a.PctChange != nil
		}
		if a.PctChange != nil && b.PctChange != nil && *a.PctChange != *b.PctChange {
			return *a.PctChange > *b.PctChange
		}
		return a.Recommender < b.Recommender
	})

	stats, err := s.storage.GetRecommenderStats(ctx)
	if err != nil {
		return nil, err
	}
	ratings := make(map[string]string, len(stats))
	for i := range stats {
		ratings[stats[i].Name] = entity.RatingForScore(stats[i].CompositeScore)
	}

	return &dto.RankingResponse{
		WeekID:    weekID,
		WeekStart: week.Monday().Format("2006-01-02"),
		WeekEnd:   week.Friday().Format("2006-01-02"),
		Stocks:    records,
		Ratings:   ratings,
	}, nil
}

// RecommenderStats returns the leaderboard ordered by composite score.
func (s *ReportingService) RecommenderStats(ctx context.Context) (*dto.RecommenderStatsResponse, error) {
	stats, err := s.storage.GetRecommenderStats(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.RecommenderStatsResponse{Recommenders: stats}, nil
}

// ListWeeks returns every week id known to storage, newest first.
func (s *ReportingService) ListWeeks(ctx context.Context) ([]dto.WeekInfo, error) {
	weekIDs, err := s.storage.ListWeeks(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]dto.WeekInfo, 0, len(weekIDs))
	for _, id := range weekIDs {
		week, err := entity.ParseWeekID(id)
		if err != nil {
			s.logger.Warn("Skipping malformed stored week id", logger.StringField("week_id", id))
			continue
		}
		infos = append(infos, dto.WeekInfo{WeekID: id, Year: week.Year, Week: week.Week})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].WeekID > infos[j].WeekID })
	return infos, nil
}

// DeleteWeek removes a week's raw text and records.
func (s *ReportingService) DeleteWeek(ctx context.Context, weekID string) error {
	if _, err := entity.ParseWeekID(weekID); err != nil {
		return err
	}
	return s.storage.DeleteWeek(ctx, weekID)
}

// CurrentWeek reports the ISO week of the current date.
func (s *ReportingService) CurrentWeek() *dto.CurrentWeekResponse {
	week := entity.WeekOf(s.now())
	return &dto.CurrentWeekResponse{WeekID: week.String(), Year: week.Year, Week: week.Week}
}

// SearchStock resolves a stock name or code to its market and code.
func (s *ReportingService) SearchStock(ctx context.Context, name string) (*dto.StockMatch, error) {
	return s.lookup.Search(ctx, name)
}
