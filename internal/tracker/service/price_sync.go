package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/internal/tracker/repository"
	"golang-stock-recommender/internal/tracker/storage"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/utils"
)

// pctChangeDecimals fixes the rounding of derived percent changes so
// recomputation is reproducible.
const pctChangeDecimals = 4

// PriceSyncEngine fetches weekly open/close prices for resolved records
// whose evaluation week has elapsed and derives their percent change.
type PriceSyncEngine struct {
	storage storage.Storage
	prices  repository.PriceRepository
	logger  *logger.Logger
	now     func() time.Time
}

// NewPriceSyncEngine creates a new PriceSyncEngine.
func NewPriceSyncEngine(store storage.Storage, prices repository.PriceRepository, log *logger.Logger) *PriceSyncEngine {
	return &PriceSyncEngine{
		storage: store,
		prices:  prices,
		logger:  log,
		now:     utils.TimeNowCST,
	}
}

// SyncWeek prices the week's eligible records. A week that has not elapsed
// yet is left completely untouched: that is an expected not-yet-due state,
// not a failure. One price fetch serves every record sharing the same
// (market, code, week) tuple.
func (e *PriceSyncEngine) SyncWeek(ctx context.Context, weekID string) (dto.StageResult, error) {
	result := dto.StageResult{Stage: "price_sync"}

	week, err := entity.ParseWeekID(weekID)
	if err != nil {
		return result, err
	}

	records, err := e.storage.Query(ctx, storage.Filter{
		WeekID:   weekID,
		Statuses: []entity.Status{entity.StatusCodeResolved, entity.StatusPricePending},
	})
	if err != nil {
		return result, err
	}
	if len(records) == 0 {
		return result, nil
	}

	if !week.Elapsed(e.now()) {
		e.logger.Info("Week not yet elapsed, skipping price sync",
			logger.StringField("week_id", weekID))
		result.Skipped = len(records)
		return result, nil
	}

	// Group records by instrument so each tuple is fetched exactly once.
	type group struct {
		market, code string
		indexes      []int
	}
	groups := map[string]*group{}
	var order []string
	for i := range records {
		if !records[i].Resolved() {
			// Defensive: resolver never leaves a partial identity behind.
			result.Skipped++
			continue
		}
		key := records[i].Market + "." + records[i].Code
		g, ok := groups[key]
		if !ok {
			g = &group{market: records[i].Market, code: records[i].Code}
			groups[key] = g
			order = append(order, key)
		}
		g.indexes = append(g.indexes, i)
	}

	var updates []entity.Recommendation
	for _, key := range order {
		g := groups[key]
		result.Processed += len(g.indexes)

		price, err := e.prices.GetWeeklyPrice(ctx, g.market, g.code, week)
		switch {
		case err == nil:
			pct := utils.RoundDecimals((price.Close-price.Open)/price.Open, pctChangeDecimals)
			for _, i := range g.indexes {
				rec := records[i]
				rec.OpenPrice = utils.ToPointer(price.Open)
				rec.ClosePrice = utils.ToPointer(price.Close)
				rec.PctChange = utils.ToPointer(pct)
				rec.Status = entity.StatusPriced
				rec.FailReason = ""
				updates = append(updates, rec)
				result.Succeeded++
			}

		case errors.Is(err, entity.ErrNoPriceData):
			for _, i := range g.indexes {
				rec := records[i]
				rec.Fail(entity.FailReasonNoPriceData)
				updates = append(updates, rec)
				result.Failed++
			}

		case entity.IsTransient(err):
			// Leave the records in PRICE_PENDING (or CODE_RESOLVED) so a
			// later sweep retries; nothing half-updated is persisted.
			e.logger.Warn("Transient price fetch failure, leaving records for retry",
				logger.ErrorField(err),
				logger.StringField("instrument", fmt.Sprintf("%s.%s", g.market, g.code)))
			for _, i := range g.indexes {
				if records[i].Status == entity.StatusCodeResolved {
					rec := records[i]
					rec.Status = entity.StatusPricePending
					updates = append(updates, rec)
				}
			}
			result.Skipped += len(g.indexes)

		default:
			e.logger.Error("Price fetch failed",
				logger.ErrorField(err),
				logger.StringField("instrument", fmt.Sprintf("%s.%s", g.market, g.code)))
			result.Skipped += len(g.indexes)
		}
	}

	if len(updates) > 0 {
		bulk, err := e.storage.BulkUpdate(ctx, updates)
		if err != nil {
			return result, err
		}
		result.Failed += len(bulk.Errors)
	}
	return result, nil
}
