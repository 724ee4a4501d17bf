package service

import (
	"context"
	"fmt"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/config"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/internal/tracker/repository"
	"golang-stock-recommender/internal/tracker/storage"
	"golang-stock-recommender/pkg/common"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/telegram"
	"golang-stock-recommender/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 10 * time.Minute

// runLocks is the slice of the Redis API the orchestrator uses for the run
// lease and last-run bookkeeping. *redis.Client satisfies it.
type runLocks interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Orchestrator sequences the pipeline stages for one week's batch:
// extract -> resolve -> sync -> aggregate. Every stage starts by querying
// storage for records still eligible for it, which is what makes the
// pipeline idempotent and resumable after a crash at any step. Stages never
// call each other; they only meet in storage.
type Orchestrator struct {
	cfg        *config.Config
	storage    storage.Storage
	extractor  repository.ExtractionRepository
	resolver   *CodeResolver
	priceSync  *PriceSyncEngine
	aggregator *StatsAggregator
	reporting  *ReportingService
	redis      runLocks
	notifier   telegram.Notifier
	logger     *logger.Logger
}

// NewOrchestrator creates a new Orchestrator. The notifier may be nil when
// run reports are disabled.
func NewOrchestrator(
	cfg *config.Config,
	store storage.Storage,
	extractor repository.ExtractionRepository,
	resolver *CodeResolver,
	priceSync *PriceSyncEngine,
	aggregator *StatsAggregator,
	reporting *ReportingService,
	redisClient runLocks,
	notifier telegram.Notifier,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		storage:    store,
		extractor:  extractor,
		resolver:   resolver,
		priceSync:  priceSync,
		aggregator: aggregator,
		reporting:  reporting,
		redis:      redisClient,
		notifier:   notifier,
		logger:     log,
	}
}

// SubmitRawText stores a week's raw recommendation text without parsing it.
func (o *Orchestrator) SubmitRawText(ctx context.Context, weekID, rawText string) error {
	if _, err := entity.ParseWeekID(weekID); err != nil {
		return err
	}
	return o.storage.SaveRawText(ctx, weekID, rawText)
}

// ParseWeek runs the extraction stage: the week's raw text becomes one
// CODE_PENDING record per (recommender, stock) pair. Pairs whose identity
// already exists in storage are skipped, so re-running is a no-op.
func (o *Orchestrator) ParseWeek(ctx context.Context, weekID string) (dto.StageResult, error) {
	result := dto.StageResult{Stage: "extract"}

	if _, err := entity.ParseWeekID(weekID); err != nil {
		return result, err
	}

	rawText, err := o.storage.GetRawText(ctx, weekID)
	if err != nil {
		return result, err
	}
	if rawText == "" {
		return result, fmt.Errorf("no raw text submitted for week %s", weekID)
	}

	pairs, err := o.extractor.ExtractRecommendations(ctx, rawText)
	if err != nil {
		return result, err
	}

	existing, err := o.storage.Query(ctx, storage.Filter{WeekID: weekID})
	if err != nil {
		return result, err
	}
	// Already-ingested pairs are recognized under every alias a record has
	// carried: its current name, its originally extracted name, and its
	// resolved code. Matching IdentityKey alone would re-ingest records the
	// resolver renamed.
	seen := make(map[string]bool, len(existing))
	for i := range existing {
		for _, alias := range existing[i].IdentityAliases() {
			seen[alias] = true
		}
	}

	for _, pair := range pairs {
		result.Processed++
		rec := entity.Recommendation{
			WeekID:        weekID,
			Recommender:   pair.Recommender,
			StockName:     pair.StockName,
			ExtractedName: pair.StockName,
			RawText:       pair.Original,
			Status:        entity.StatusCodePending,
		}
		if seen[rec.IdentityKey()] {
			result.Skipped++
			continue
		}
		if _, err := o.storage.Upsert(ctx, &rec, false); err != nil {
			o.logger.Error("Failed to upsert extracted record",
				logger.ErrorField(err), logger.StringField("key", rec.IdentityKey()))
			result.Failed++
			continue
		}
		for _, alias := range rec.IdentityAliases() {
			seen[alias] = true
		}
		result.Succeeded++
	}
	return result, nil
}

// ResolveWeek runs the code resolution stage.
func (o *Orchestrator) ResolveWeek(ctx context.Context, weekID string) (dto.StageResult, error) {
	if _, err := entity.ParseWeekID(weekID); err != nil {
		return dto.StageResult{Stage: "resolve"}, err
	}
	return o.resolver.ResolveWeek(ctx, weekID)
}

// SyncWeek runs the price synchronization stage.
func (o *Orchestrator) SyncWeek(ctx context.Context, weekID string) (dto.StageResult, error) {
	return o.priceSync.SyncWeek(ctx, weekID)
}

// RefreshStats runs the aggregation stage across all weeks.
func (o *Orchestrator) RefreshStats(ctx context.Context) (dto.StageResult, error) {
	result := dto.StageResult{Stage: "aggregate"}
	count, err := o.aggregator.Recompute(ctx)
	if err != nil {
		return result, err
	}
	result.Processed = count
	result.Succeeded = count
	return result, nil
}

// RetryFailed moves the week's FAILED records back to their originating
// states so the next sweeps pick them up again.
func (o *Orchestrator) RetryFailed(ctx context.Context, weekID string) (dto.StageResult, error) {
	result := dto.StageResult{Stage: "retry_failed"}

	records, err := o.storage.Query(ctx, storage.Filter{
		WeekID:   weekID,
		Statuses: []entity.Status{entity.StatusFailed},
	})
	if err != nil {
		return result, err
	}

	var updates []entity.Recommendation
	for i := range records {
		rec := records[i]
		result.Processed++
		rec.Status = rec.RetryStatus()
		rec.FailReason = ""
		updates = append(updates, rec)
		result.Succeeded++
	}

	if len(updates) > 0 {
		bulk, err := o.storage.BulkUpdate(ctx, updates)
		if err != nil {
			return result, err
		}
		result.Failed = len(bulk.Errors)
	}
	return result, nil
}

// Run executes the full pipeline for one week under the run lease. Stage
// errors are reported but do not abort the remaining stages: each stage
// only ever acts on records eligible for it, so a half-failed run is
// finished by simply running again.
func (o *Orchestrator) Run(ctx context.Context, weekID string) (*dto.PipelineRunResult, error) {
	if _, err := entity.ParseWeekID(weekID); err != nil {
		return nil, err
	}

	unlock, err := o.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o.logger.Info("Pipeline run starting", logger.StringField("week_id", weekID))
	run := &dto.PipelineRunResult{WeekID: weekID}

	stages := []func(context.Context) (dto.StageResult, error){
		func(ctx context.Context) (dto.StageResult, error) { return o.ParseWeek(ctx, weekID) },
		func(ctx context.Context) (dto.StageResult, error) { return o.ResolveWeek(ctx, weekID) },
		func(ctx context.Context) (dto.StageResult, error) { return o.SyncWeek(ctx, weekID) },
		func(ctx context.Context) (dto.StageResult, error) { return o.RefreshStats(ctx) },
	}

	for _, stage := range stages {
		if !utils.ShouldContinue(ctx, o.logger) {
			break
		}
		stageResult, err := stage(ctx)
		if err != nil {
			o.logger.Error("Pipeline stage failed",
				logger.StringField("stage", stageResult.Stage),
				logger.StringField("week_id", weekID),
				logger.ErrorField(err))
		}
		run.Stages = append(run.Stages, stageResult)
	}

	o.redis.Set(ctx, fmt.Sprintf(common.RedisKeyLastRun, weekID), utils.TimeNowCST().Unix(), 0)
	o.logger.Info("Pipeline run finished", logger.StringField("week_id", weekID))

	if o.notifier != nil {
		if err := o.notifier.SendMessage(telegram.FormatPipelineRunResult(run)); err != nil {
			o.logger.Warn("Failed to send run report", logger.ErrorField(err))
		}
		if o.reporting != nil {
			ranking, err := o.reporting.WeekRanking(ctx, weekID)
			if err != nil {
				o.logger.Warn("Failed to build ranking report", logger.ErrorField(err))
			} else if err := o.notifier.SendMessage(telegram.FormatWeeklyRankingForTelegram(ranking)); err != nil {
				o.logger.Warn("Failed to send ranking report", logger.ErrorField(err))
			}
		}
	}
	return run, nil
}

// acquireLock takes the Redis lease that serializes orchestrator runs. The
// Excel backend is single-writer; the lease enforces that globally.
func (o *Orchestrator) acquireLock(ctx context.Context) (func(), error) {
	ttl := defaultLockTTL
	if o.cfg.Pipeline.LockTTL != "" {
		parsed, err := time.ParseDuration(o.cfg.Pipeline.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid pipeline lock_ttl: %w", err)
		}
		ttl = parsed
	}

	ok, err := o.redis.SetNX(ctx, common.RedisKeyPipelineLock, utils.TimeNowCST().Unix(), ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to acquire pipeline lock: %v", entity.ErrTransient, err)
	}
	if !ok {
		return nil, entity.ErrRunActive
	}
	return func() {
		if err := o.redis.Del(context.Background(), common.RedisKeyPipelineLock).Err(); err != nil {
			o.logger.Warn("Failed to release pipeline lock", logger.ErrorField(err))
		}
	}, nil
}
