package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/internal/tracker/storage"
	"golang-stock-recommender/pkg/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

// fakeStorage is an in-memory Storage used by the service tests.
type fakeStorage struct {
	mu       sync.Mutex
	nextID   uint
	records  map[uint]entity.Recommendation
	rawTexts map[string]string
	stats    []entity.RecommenderStats
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		nextID:   1,
		records:  map[uint]entity.Recommendation{},
		rawTexts: map[string]string{},
	}
}

func (s *fakeStorage) seed(recs ...entity.Recommendation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		rec.ID = s.nextID
		s.nextID++
		s.records[rec.ID] = rec
	}
}

func aliasOverlap(a, b *entity.Recommendation) bool {
	for _, x := range a.IdentityAliases() {
		for _, y := range b.IdentityAliases() {
			if x == y {
				return true
			}
		}
	}
	return false
}

func (s *fakeStorage) Upsert(_ context.Context, rec *entity.Recommendation, force bool) (*entity.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.records {
		if !aliasOverlap(&existing, rec) {
			continue
		}
		if !force && !existing.Status.CanTransition(rec.Status) {
			return nil, fmt.Errorf("%w: %s", entity.ErrConflict, rec.IdentityKey())
		}
		stored := *rec
		stored.ID = id
		s.records[id] = stored
		return &stored, nil
	}

	stored := *rec
	stored.ID = s.nextID
	s.nextID++
	s.records[stored.ID] = stored
	return &stored, nil
}

func (s *fakeStorage) Query(_ context.Context, f storage.Filter) ([]entity.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.Recommendation
	for id := uint(1); id < s.nextID; id++ {
		rec, ok := s.records[id]
		if ok && f.Matches(&rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStorage) BulkUpdate(_ context.Context, recs []entity.Recommendation) (*storage.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &storage.BulkResult{}
	for _, rec := range recs {
		if _, ok := s.records[rec.ID]; !ok {
			result.Errors = append(result.Errors, storage.BulkError{
				Key: rec.IdentityKey(), Err: fmt.Errorf("record %d not found", rec.ID),
			})
			continue
		}
		s.records[rec.ID] = rec
		result.Updated++
	}
	return result, nil
}

func (s *fakeStorage) DeleteRecords(_ context.Context, weekID string, ids []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if rec, ok := s.records[id]; ok && rec.WeekID == weekID {
			delete(s.records, id)
		}
	}
	return nil
}

func (s *fakeStorage) SaveRawText(_ context.Context, weekID, rawText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawTexts[weekID] = rawText
	return nil
}

func (s *fakeStorage) GetRawText(_ context.Context, weekID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rawTexts[weekID], nil
}

func (s *fakeStorage) ListWeeks(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	var weeks []string
	for weekID := range s.rawTexts {
		if !seen[weekID] {
			seen[weekID] = true
			weeks = append(weeks, weekID)
		}
	}
	for _, rec := range s.records {
		if !seen[rec.WeekID] {
			seen[rec.WeekID] = true
			weeks = append(weeks, rec.WeekID)
		}
	}
	return weeks, nil
}

func (s *fakeStorage) DeleteWeek(_ context.Context, weekID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rawTexts, weekID)
	for id, rec := range s.records {
		if rec.WeekID == weekID {
			delete(s.records, id)
		}
	}
	return nil
}

func (s *fakeStorage) SaveRecommenderStats(_ context.Context, stats []entity.RecommenderStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	return nil
}

func (s *fakeStorage) GetRecommenderStats(_ context.Context) ([]entity.RecommenderStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, nil
}

// fakeLookup counts lookups per name and serves canned matches.
type fakeLookup struct {
	mu      sync.Mutex
	matches map[string]*dto.StockMatch
	errs    map[string]error
	calls   map[string]int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		matches: map[string]*dto.StockMatch{},
		errs:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (l *fakeLookup) Search(_ context.Context, stockName string) (*dto.StockMatch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls[stockName]++
	if err, ok := l.errs[stockName]; ok {
		return nil, err
	}
	if match, ok := l.matches[stockName]; ok {
		return match, nil
	}
	return nil, entity.ErrCodeNotFound
}

// fakePrices counts fetches per instrument and serves canned prices.
type fakePrices struct {
	mu     sync.Mutex
	prices map[string]*dto.WeeklyPrice
	errs   map[string]error
	calls  map[string]int
}

func newFakePrices() *fakePrices {
	return &fakePrices{
		prices: map[string]*dto.WeeklyPrice{},
		errs:   map[string]error{},
		calls:  map[string]int{},
	}
}

func (p *fakePrices) GetWeeklyPrice(_ context.Context, market, code string, _ entity.Week) (*dto.WeeklyPrice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := market + "." + code
	p.calls[key]++
	if err, ok := p.errs[key]; ok {
		return nil, err
	}
	if price, ok := p.prices[key]; ok {
		return price, nil
	}
	return nil, entity.ErrNoPriceData
}

// fakeExtractor returns canned pairs for any raw text.
type fakeExtractor struct {
	pairs []dto.RecommendationPair
	err   error
	calls int
}

func (e *fakeExtractor) ExtractRecommendations(_ context.Context, _ string) ([]dto.RecommendationPair, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.pairs, nil
}

// fakeRedis is an in-memory runLocks double.
type fakeRedis struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]bool{}}
}

func (r *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) *redis.BoolCmd {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.keys[key] {
		return redis.NewBoolResult(false, nil)
	}
	r.keys[key] = true
	return redis.NewBoolResult(true, nil)
}

func (r *fakeRedis) Set(_ context.Context, key string, _ interface{}, _ time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys[key] = true
	return redis.NewStatusResult("OK", nil)
}

func (r *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for _, key := range keys {
		if r.keys[key] {
			delete(r.keys, key)
			deleted++
		}
	}
	return redis.NewIntResult(deleted, nil)
}

func (r *fakeRedis) held(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[key]
}
