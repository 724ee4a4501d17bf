package service

import (
	"context"
	"errors"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/internal/tracker/repository"
	"golang-stock-recommender/internal/tracker/storage"
	"golang-stock-recommender/pkg/logger"

	"github.com/patrickmn/go-cache"
)

// notFoundMarker is memoized for names the lookup rejected so repeated
// names within one run are not re-queried.
type notFoundMarker struct{}

// CodeResolver fills in the (market, code) identity of CODE_PENDING
// records through the external lookup collaborator.
type CodeResolver struct {
	storage storage.Storage
	lookup  repository.CodeLookupRepository
	logger  *logger.Logger
}

// NewCodeResolver creates a new CodeResolver.
func NewCodeResolver(store storage.Storage, lookup repository.CodeLookupRepository, log *logger.Logger) *CodeResolver {
	return &CodeResolver{storage: store, lookup: lookup, logger: log}
}

// ResolveWeek sweeps the week's CODE_PENDING records. Lookup results are
// memoized per stock name for the duration of this sweep only; the memo is
// discarded afterwards to avoid staleness across runs. Records hit by
// transient lookup failures are left untouched for a later retry pass.
func (r *CodeResolver) ResolveWeek(ctx context.Context, weekID string) (dto.StageResult, error) {
	result := dto.StageResult{Stage: "resolve"}

	records, err := r.storage.Query(ctx, storage.Filter{
		WeekID:   weekID,
		Statuses: []entity.Status{entity.StatusCodePending},
	})
	if err != nil {
		return result, err
	}

	// Instruments already claimed within the week, per recommender. Two
	// extracted spellings of the same stock both resolve to one code; the
	// second record is merged away instead of becoming a duplicate pick.
	claimed, err := r.claimedInstruments(ctx, weekID)
	if err != nil {
		return result, err
	}

	memo := cache.New(cache.NoExpiration, 10*time.Minute)
	var updates []entity.Recommendation
	var merged []uint

	for i := range records {
		rec := records[i]
		result.Processed++

		// Already carrying a full identity: just advance the status.
		if rec.Resolved() {
			rec.Status = entity.StatusCodeResolved
			updates = append(updates, rec)
			result.Succeeded++
			continue
		}

		match, err := r.search(ctx, memo, rec.StockName)
		switch {
		case err == nil:
			if err := rec.SetInstrument(match.Market, match.Code); err != nil {
				r.logger.Error("Lookup returned partial identity",
					logger.ErrorField(err), logger.StringField("stock_name", rec.StockName))
				result.Failed++
				continue
			}
			key := claimKey(&rec)
			if owner, ok := claimed[key]; ok && owner != rec.ID {
				r.logger.Info("Merging duplicate recommendation",
					logger.StringField("stock_name", rec.StockName),
					logger.StringField("instrument", rec.Market+"."+rec.Code),
					logger.StringField("recommender", rec.Recommender))
				merged = append(merged, rec.ID)
				result.Skipped++
				continue
			}
			claimed[key] = rec.ID
			// The lookup echoes the listed display name; use it to correct
			// extraction spelling.
			if match.Name != "" && match.Name != rec.StockName {
				r.logger.Info("Correcting stock name",
					logger.StringField("from", rec.StockName),
					logger.StringField("to", match.Name))
				rec.StockName = match.Name
			}
			rec.Status = entity.StatusCodeResolved
			rec.FailReason = ""
			updates = append(updates, rec)
			result.Succeeded++

		case errors.Is(err, entity.ErrCodeNotFound):
			rec.Fail(entity.FailReasonCodeNotFound)
			updates = append(updates, rec)
			result.Failed++

		case entity.IsTransient(err):
			// No state change; the record stays CODE_PENDING.
			r.logger.Warn("Transient lookup failure, leaving record for retry",
				logger.ErrorField(err), logger.StringField("stock_name", rec.StockName))
			result.Skipped++

		default:
			r.logger.Error("Lookup failed",
				logger.ErrorField(err), logger.StringField("stock_name", rec.StockName))
			result.Skipped++
		}
	}

	// Deletions go first: a corrected name in the update batch may be the
	// very name the merged duplicate still occupies.
	if len(merged) > 0 {
		if err := r.storage.DeleteRecords(ctx, weekID, merged); err != nil {
			return result, err
		}
	}
	if len(updates) > 0 {
		bulk, err := r.storage.BulkUpdate(ctx, updates)
		if err != nil {
			return result, err
		}
		result.Failed += len(bulk.Errors)
	}
	return result, nil
}

// claimedInstruments indexes the week's already-resolved records by
// recommender and instrument so newly resolved records can detect synonym
// duplicates.
func (r *CodeResolver) claimedInstruments(ctx context.Context, weekID string) (map[string]uint, error) {
	records, err := r.storage.Query(ctx, storage.Filter{WeekID: weekID})
	if err != nil {
		return nil, err
	}
	claimed := map[string]uint{}
	for i := range records {
		if records[i].Resolved() {
			claimed[claimKey(&records[i])] = records[i].ID
		}
	}
	return claimed, nil
}

func claimKey(rec *entity.Recommendation) string {
	return rec.Recommender + "|" + rec.Market + "." + rec.Code
}

func (r *CodeResolver) search(ctx context.Context, memo *cache.Cache, stockName string) (*dto.StockMatch, error) {
	if cached, ok := memo.Get(stockName); ok {
		if _, notFound := cached.(notFoundMarker); notFound {
			return nil, entity.ErrCodeNotFound
		}
		return cached.(*dto.StockMatch), nil
	}

	match, err := r.lookup.Search(ctx, stockName)
	if err != nil {
		if errors.Is(err, entity.ErrCodeNotFound) {
			memo.Set(stockName, notFoundMarker{}, cache.DefaultExpiration)
		}
		// Transient failures are not memoized.
		return nil, err
	}
	memo.Set(stockName, match, cache.DefaultExpiration)
	return match, nil
}
