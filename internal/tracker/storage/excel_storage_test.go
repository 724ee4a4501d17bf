package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/utils"
)

func newTestExcelStorage(t *testing.T) Storage {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	store, err := NewExcelStorage(filepath.Join(t.TempDir(), "recommendations.xlsx"), log)
	require.NoError(t, err)
	return store
}

func TestExcelUpsertAndQueryRoundTrip(t *testing.T) {
	store := newTestExcelStorage(t)
	ctx := context.Background()

	rec := entity.Recommendation{
		WeekID:      "2024-W17",
		Recommender: "老张",
		StockName:   "贵州茅台",
		RawText:     "老张：下周看好贵州茅台",
		Status:      entity.StatusCodePending,
	}
	stored, err := store.Upsert(ctx, &rec, false)
	require.NoError(t, err)
	assert.NotZero(t, stored.ID)

	got, err := store.Query(ctx, Filter{WeekID: "2024-W17"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "老张", got[0].Recommender)
	assert.Equal(t, "贵州茅台", got[0].StockName)
	assert.Equal(t, entity.StatusCodePending, got[0].Status)
	assert.Equal(t, "老张：下周看好贵州茅台", got[0].RawText)
	assert.Nil(t, got[0].PctChange)
}

func TestExcelUpsertReplacesByIdentity(t *testing.T) {
	store := newTestExcelStorage(t)
	ctx := context.Background()

	rec := entity.Recommendation{
		WeekID: "2024-W17", Recommender: "老张", StockName: "贵州茅台",
		Status: entity.StatusCodePending,
	}
	_, err := store.Upsert(ctx, &rec, false)
	require.NoError(t, err)

	updated := rec
	require.NoError(t, updated.SetInstrument("SH", "600519"))
	updated.Status = entity.StatusCodeResolved
	_, err = store.Upsert(ctx, &updated, false)
	require.NoError(t, err)

	got, err := store.Query(ctx, Filter{WeekID: "2024-W17"})
	require.NoError(t, err)
	require.Len(t, got, 1, "same identity must replace, not duplicate")
	assert.Equal(t, entity.StatusCodeResolved, got[0].Status)
	assert.Equal(t, "600519", got[0].Code)
}

func TestExcelUpsertConflict(t *testing.T) {
	store := newTestExcelStorage(t)
	ctx := context.Background()

	priced := entity.Recommendation{
		WeekID: "2024-W17", Recommender: "老张", StockName: "贵州茅台",
		Market: "SH", Code: "600519",
		OpenPrice: utils.ToPointer(100.0), ClosePrice: utils.ToPointer(105.0),
		PctChange: utils.ToPointer(0.05),
		Status:    entity.StatusPriced,
	}
	_, err := store.Upsert(ctx, &priced, false)
	require.NoError(t, err)

	// Re-drafting a terminal record is a conflict without force.
	draft := entity.Recommendation{
		WeekID: "2024-W17", Recommender: "老张", StockName: "贵州茅台",
		Status: entity.StatusCodePending,
	}
	_, err = store.Upsert(ctx, &draft, false)
	assert.ErrorIs(t, err, entity.ErrConflict)

	_, err = store.Upsert(ctx, &draft, true)
	assert.NoError(t, err, "force must override the conflict")
}

func TestExcelBulkUpdate(t *testing.T) {
	store := newTestExcelStorage(t)
	ctx := context.Background()

	for _, name := range []string{"贵州茅台", "平安银行"} {
		_, err := store.Upsert(ctx, &entity.Recommendation{
			WeekID: "2024-W17", Recommender: "老张", StockName: name,
			Status: entity.StatusCodePending,
		}, false)
		require.NoError(t, err)
	}

	recs, err := store.Query(ctx, Filter{WeekID: "2024-W17"})
	require.NoError(t, err)
	for i := range recs {
		recs[i].Status = entity.StatusCodeResolved
		require.NoError(t, recs[i].SetInstrument("SH", "60051"+string(rune('0'+i))))
	}
	// One record that does not exist in the sheet.
	recs = append(recs, entity.Recommendation{
		ID: 99, WeekID: "2024-W17", Recommender: "无名氏", StockName: "未知",
		Status: entity.StatusCodeResolved, Market: "SZ", Code: "000001",
	})

	result, err := store.BulkUpdate(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Key, "无名氏")

	got, err := store.Query(ctx, Filter{WeekID: "2024-W17", Statuses: []entity.Status{entity.StatusCodeResolved}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestExcelUpsertMatchesExtractedName(t *testing.T) {
	store := newTestExcelStorage(t)
	ctx := context.Background()

	rec := entity.Recommendation{
		WeekID: "2024-W17", Recommender: "老张",
		StockName: "茅台", ExtractedName: "茅台",
		Status: entity.StatusCodePending,
	}
	_, err := store.Upsert(ctx, &rec, false)
	require.NoError(t, err)

	// Resolution corrects the display name, keeping the extracted one.
	recs, err := store.Query(ctx, Filter{WeekID: "2024-W17"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	recs[0].StockName = "贵州茅台"
	require.NoError(t, recs[0].SetInstrument("SH", "600519"))
	recs[0].Status = entity.StatusCodeResolved
	_, err = store.BulkUpdate(ctx, recs)
	require.NoError(t, err)

	// Re-ingesting the original spelling hits the renamed record instead
	// of creating a duplicate.
	dup := entity.Recommendation{
		WeekID: "2024-W17", Recommender: "老张",
		StockName: "茅台", ExtractedName: "茅台",
		Status: entity.StatusCodePending,
	}
	_, err = store.Upsert(ctx, &dup, false)
	require.ErrorIs(t, err, entity.ErrConflict)

	got, err := store.Query(ctx, Filter{WeekID: "2024-W17"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "贵州茅台", got[0].StockName)
	assert.Equal(t, "茅台", got[0].ExtractedName)
}

func TestExcelDeleteRecords(t *testing.T) {
	store := newTestExcelStorage(t)
	ctx := context.Background()

	for _, name := range []string{"贵州茅台", "平安银行"} {
		_, err := store.Upsert(ctx, &entity.Recommendation{
			WeekID: "2024-W17", Recommender: "老张", StockName: name,
			Status: entity.StatusCodePending,
		}, false)
		require.NoError(t, err)
	}

	recs, err := store.Query(ctx, Filter{WeekID: "2024-W17"})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	require.NoError(t, store.DeleteRecords(ctx, "2024-W17", []uint{recs[0].ID}))

	got, err := store.Query(ctx, Filter{WeekID: "2024-W17"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "平安银行", got[0].StockName)
}

func TestExcelRawTextRoundTrip(t *testing.T) {
	store := newTestExcelStorage(t)
	ctx := context.Background()

	got, err := store.GetRawText(ctx, "2024-W17")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.SaveRawText(ctx, "2024-W17", "第一版"))
	require.NoError(t, store.SaveRawText(ctx, "2024-W18", "别的周"))
	require.NoError(t, store.SaveRawText(ctx, "2024-W17", "覆盖后的文本"))

	got, err = store.GetRawText(ctx, "2024-W17")
	require.NoError(t, err)
	assert.Equal(t, "覆盖后的文本", got)

	got, err = store.GetRawText(ctx, "2024-W18")
	require.NoError(t, err)
	assert.Equal(t, "别的周", got)
}

func TestExcelListAndDeleteWeeks(t *testing.T) {
	store := newTestExcelStorage(t)
	ctx := context.Background()

	for _, weekID := range []string{"2024-W17", "2024-W18"} {
		_, err := store.Upsert(ctx, &entity.Recommendation{
			WeekID: weekID, Recommender: "老张", StockName: "贵州茅台",
			Status: entity.StatusCodePending,
		}, false)
		require.NoError(t, err)
	}

	weeks, err := store.ListWeeks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-W18", "2024-W17"}, weeks)

	require.NoError(t, store.DeleteWeek(ctx, "2024-W17"))

	weeks, err = store.ListWeeks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-W18"}, weeks)

	got, err := store.Query(ctx, Filter{WeekID: "2024-W17"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExcelRecommenderStatsRoundTrip(t *testing.T) {
	store := newTestExcelStorage(t)
	ctx := context.Background()

	stats := []entity.RecommenderStats{
		{
			Name: "老张", SampleCount: 12, WinCount: 8,
			WinRate: 0.6667, AvgReturn: 0.0231, CompositeScore: 0.7125,
			Rating: entity.RatingA, WeeklyReturns: []byte(`[{"week_id":"2024-W17","avg_return":0.05,"stock_count":3}]`),
		},
		{
			Name: "老李", SampleCount: 3, WinCount: 1,
			WinRate: 0.3333, AvgReturn: -0.0125, CompositeScore: 0.3943,
			Rating: entity.RatingC,
		},
	}
	require.NoError(t, store.SaveRecommenderStats(ctx, stats))

	got, err := store.GetRecommenderStats(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "老张", got[0].Name)
	assert.Equal(t, 12, got[0].SampleCount)
	assert.Equal(t, 0.7125, got[0].CompositeScore)
	assert.Equal(t, entity.RatingA, got[0].Rating)
	assert.JSONEq(t, `[{"week_id":"2024-W17","avg_return":0.05,"stock_count":3}]`, string(got[0].WeeklyReturns))
	assert.Equal(t, "老李", got[1].Name)

	// Saving again replaces wholesale.
	require.NoError(t, store.SaveRecommenderStats(ctx, stats[:1]))
	got, err = store.GetRecommenderStats(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
