package storage

import (
	"context"
	"errors"
	"fmt"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/pkg/logger"

	"gorm.io/gorm"
)

// documentStorage persists records as independent row-level upserts in
// Postgres. Unlike the Excel backend it tolerates limited concurrent stage
// execution because every update is keyed by record identity.
type documentStorage struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewDocumentStorage creates the database-backed storage.
func NewDocumentStorage(db *gorm.DB, log *logger.Logger) Storage {
	return &documentStorage{db: db, logger: log}
}

func (s *documentStorage) findExisting(ctx context.Context, rec *entity.Recommendation) (*entity.Recommendation, error) {
	var existing entity.Recommendation

	// A resolved identity matches on the instrument code first: the resolver
	// may have corrected the display name since extraction.
	if rec.Resolved() {
		err := s.db.WithContext(ctx).
			Where("week_id = ? AND recommender = ? AND market = ? AND code = ?",
				rec.WeekID, rec.Recommender, rec.Market, rec.Code).
			First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	// Match the corrected name or the originally extracted spelling, so a
	// re-ingested pair still lands on the record the resolver renamed.
	err := s.db.WithContext(ctx).
		Where("week_id = ? AND recommender = ? AND (stock_name = ? OR extracted_name = ?)",
			rec.WeekID, rec.Recommender, rec.StockName, rec.StockName).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &existing, nil
}

func (s *documentStorage) Upsert(ctx context.Context, rec *entity.Recommendation, force bool) (*entity.Recommendation, error) {
	existing, err := s.findExisting(ctx, rec)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if upsertConflicts(existing, rec) && !force {
			return nil, fmt.Errorf("%w: %s is %s", entity.ErrConflict, existing.IdentityKey(), existing.Status)
		}
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	}

	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return nil, err
	}
	stored := *rec
	return &stored, nil
}

func (s *documentStorage) Query(ctx context.Context, f Filter) ([]entity.Recommendation, error) {
	q := s.db.WithContext(ctx).Model(&entity.Recommendation{})
	if f.WeekID != "" {
		q = q.Where("week_id = ?", f.WeekID)
	}
	if f.Recommender != "" {
		q = q.Where("recommender = ?", f.Recommender)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}

	var recs []entity.Recommendation
	// Stable-but-unspecified ordering: primary key keeps re-runs comparable.
	if err := q.Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *documentStorage) BulkUpdate(ctx context.Context, recs []entity.Recommendation) (*BulkResult, error) {
	result := &BulkResult{}
	for i := range recs {
		rec := recs[i]
		if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
			result.Errors = append(result.Errors, BulkError{Key: rec.IdentityKey(), Err: err})
			continue
		}
		result.Updated++
	}
	if len(result.Errors) > 0 {
		s.logger.Warn("Bulk update completed with record errors",
			logger.IntField("updated", result.Updated),
			logger.IntField("errors", len(result.Errors)))
	}
	return result, nil
}

func (s *documentStorage) DeleteRecords(ctx context.Context, weekID string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("week_id = ? AND id IN ?", weekID, ids).
		Delete(&entity.Recommendation{}).Error
}

func (s *documentStorage) SaveRawText(ctx context.Context, weekID, rawText string) error {
	var existing entity.WeekRawText
	err := s.db.WithContext(ctx).Where("week_id = ?", weekID).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return s.db.WithContext(ctx).Create(&entity.WeekRawText{WeekID: weekID, RawText: rawText}).Error
	}
	existing.RawText = rawText
	return s.db.WithContext(ctx).Save(&existing).Error
}

func (s *documentStorage) GetRawText(ctx context.Context, weekID string) (string, error) {
	var row entity.WeekRawText
	err := s.db.WithContext(ctx).Where("week_id = ?", weekID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return row.RawText, nil
}

func (s *documentStorage) ListWeeks(ctx context.Context) ([]string, error) {
	var weeks []string
	err := s.db.WithContext(ctx).Model(&entity.WeekRawText{}).
		Distinct("week_id").Order("week_id DESC").Pluck("week_id", &weeks).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(weeks))
	for _, w := range weeks {
		seen[w] = true
	}
	var recWeeks []string
	err = s.db.WithContext(ctx).Model(&entity.Recommendation{}).
		Distinct("week_id").Order("week_id DESC").Pluck("week_id", &recWeeks).Error
	if err != nil {
		return nil, err
	}
	for _, w := range recWeeks {
		if !seen[w] {
			weeks = append(weeks, w)
		}
	}
	return weeks, nil
}

func (s *documentStorage) DeleteWeek(ctx context.Context, weekID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("week_id = ?", weekID).Delete(&entity.Recommendation{}).Error; err != nil {
			return err
		}
		return tx.Where("week_id = ?", weekID).Delete(&entity.WeekRawText{}).Error
	})
}

func (s *documentStorage) SaveRecommenderStats(ctx context.Context, stats []entity.RecommenderStats) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entity.RecommenderStats{}).Error; err != nil {
			return err
		}
		if len(stats) == 0 {
			return nil
		}
		for i := range stats {
			stats[i].ID = 0
		}
		return tx.Create(&stats).Error
	})
}

func (s *documentStorage) GetRecommenderStats(ctx context.Context) ([]entity.RecommenderStats, error) {
	var stats []entity.RecommenderStats
	if err := s.db.WithContext(ctx).Order("composite_score DESC").Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
