package service

import (
	"context"
	"strings"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/internal/tracker/repository"
	"golang-stock-recommender/internal/tracker/storage"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/utils"
)

// FeedIngestionService pulls posts from the configured RSS feeds and
// appends them to the current week's raw text, where the extraction stage
// picks them up on the next run.
type FeedIngestionService struct {
	storage storage.Storage
	feeds   repository.FeedRepository
	logger  *logger.Logger
	now     func() time.Time
}

// NewFeedIngestionService creates a new FeedIngestionService.
func NewFeedIngestionService(store storage.Storage, feeds repository.FeedRepository, log *logger.Logger) *FeedIngestionService {
	return &FeedIngestionService{
		storage: store,
		feeds:   feeds,
		logger:  log,
		now:     utils.TimeNowCST,
	}
}

// IngestCurrentWeek fetches feed posts and appends the new ones to the
// current week's raw text. A post already contained in the stored text is
// skipped, so repeated sweeps within a week do not duplicate input.
func (s *FeedIngestionService) IngestCurrentWeek(ctx context.Context) (*dto.IngestFeedsResult, error) {
	week := entity.WeekOf(s.now())
	result := &dto.IngestFeedsResult{WeekID: week.String()}

	posts, err := s.feeds.FetchPosts(ctx)
	if err != nil {
		return nil, err
	}
	result.Items = len(posts)
	if len(posts) == 0 {
		return result, nil
	}

	existing, err := s.storage.GetRawText(ctx, week.String())
	if err != nil {
		return nil, err
	}

	var builder strings.Builder
	builder.WriteString(existing)
	for _, post := range posts {
		if post == "" || strings.Contains(existing, post) {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(post)
		result.Appended++
	}

	if result.Appended == 0 {
		return result, nil
	}
	if err := s.storage.SaveRawText(ctx, week.String(), builder.String()); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Appended feed posts to week raw text",
		logger.StringField("week_id", week.String()),
		logger.IntField("appended", result.Appended))
	return result, nil
}
