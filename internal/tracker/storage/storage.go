package storage

import (
	"context"

	"golang-stock-recommender/internal/entity"
)

// Filter narrows a Query. Zero-valued fields match everything.
type Filter struct {
	WeekID      string
	Recommender string
	Statuses    []entity.Status
}

// Matches reports whether a record satisfies the filter.
func (f Filter) Matches(rec *entity.Recommendation) bool {
	if f.WeekID != "" && rec.WeekID != f.WeekID {
		return false
	}
	if f.Recommender != "" && rec.Recommender != f.Recommender {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if rec.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// BulkError captures the failure of a single record inside a batch write.
type BulkError struct {
	Key string `json:"key"`
	Err error  `json:"error"`
}

// BulkResult reports the outcome of a best-effort batch write. Callers must
// tolerate partial success; failed records keep their pre-write state.
type BulkResult struct {
	Updated int
	Errors  []BulkError
}

// Storage is the uniform persistence surface over recommendation records.
// Both backends satisfy the same, deliberately weak contract: batch writes
// are best-effort with per-record error capture, and query ordering is
// stable but unspecified beyond what callers sort themselves.
type Storage interface {
	// Upsert inserts or replaces by identity key and returns the stored
	// record with backend-assigned fields populated. It fails with
	// entity.ErrConflict when the identity collides with a record in an
	// incompatible status, unless force is set.
	Upsert(ctx context.Context, rec *entity.Recommendation, force bool) (*entity.Recommendation, error)

	// Query returns the records matching the filter.
	Query(ctx context.Context, f Filter) ([]entity.Recommendation, error)

	// BulkUpdate writes a batch of already-identified records.
	BulkUpdate(ctx context.Context, recs []entity.Recommendation) (*BulkResult, error)

	// DeleteRecords removes individual records from a week by ID. Used by
	// the resolver to merge records that resolved to the same instrument.
	DeleteRecords(ctx context.Context, weekID string, ids []uint) error

	SaveRawText(ctx context.Context, weekID, rawText string) error
	GetRawText(ctx context.Context, weekID string) (string, error)

	ListWeeks(ctx context.Context) ([]string, error)
	DeleteWeek(ctx context.Context, weekID string) error

	// SaveRecommenderStats replaces the derived stats wholesale.
	SaveRecommenderStats(ctx context.Context, stats []entity.RecommenderStats) error
	GetRecommenderStats(ctx context.Context) ([]entity.RecommenderStats, error)
}

// upsertConflicts implements the shared conflict rule: an existing record
// may only be replaced by one whose status is a valid lifecycle step away.
func upsertConflicts(existing, incoming *entity.Recommendation) bool {
	return !existing.Status.CanTransition(incoming.Status)
}
