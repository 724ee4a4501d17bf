package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/internal/tracker/storage"
	"golang-stock-recommender/pkg/utils"
)

// 2024-W17 closes Friday 2024-04-26 15:00 CST.
func afterW17Close() time.Time {
	return time.Date(2024, 4, 27, 10, 0, 0, 0, utils.LocationCST())
}

func beforeW17Close() time.Time {
	return time.Date(2024, 4, 24, 10, 0, 0, 0, utils.LocationCST())
}

func resolvedRec(recommender, name, market, code string) entity.Recommendation {
	return entity.Recommendation{
		WeekID:      "2024-W17",
		Recommender: recommender,
		StockName:   name,
		Market:      market,
		Code:        code,
		Status:      entity.StatusCodeResolved,
	}
}

func TestSyncWeekDerivesPctChange(t *testing.T) {
	store := newFakeStorage()
	store.seed(resolvedRec("老张", "贵州茅台", "SH", "600519"))
	prices := newFakePrices()
	prices.prices["SH.600519"] = &dto.WeeklyPrice{Open: 100, Close: 105}

	engine := NewPriceSyncEngine(store, prices, newTestLogger(t))
	engine.now = afterW17Close

	result, err := engine.SyncWeek(context.Background(), "2024-W17")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	records, _ := store.Query(context.Background(), storage.Filter{WeekID: "2024-W17"})
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, entity.StatusPriced, rec.Status)
	require.NotNil(t, rec.PctChange)
	assert.Equal(t, 0.05, *rec.PctChange)
	assert.Equal(t, 100.0, *rec.OpenPrice)
	assert.Equal(t, 105.0, *rec.ClosePrice)
}

func TestSyncWeekRoundsPctChangeToFourDecimals(t *testing.T) {
	store := newFakeStorage()
	store.seed(resolvedRec("老张", "贵州茅台", "SH", "600519"))
	prices := newFakePrices()
	prices.prices["SH.600519"] = &dto.WeeklyPrice{Open: 3, Close: 4}

	engine := NewPriceSyncEngine(store, prices, newTestLogger(t))
	engine.now = afterW17Close

	_, err := engine.SyncWeek(context.Background(), "2024-W17")
	require.NoError(t, err)

	records, _ := store.Query(context.Background(), storage.Filter{WeekID: "2024-W17"})
	require.NotNil(t, records[0].PctChange)
	assert.Equal(t, 0.3333, *records[0].PctChange)
}

func TestSyncWeekNotElapsedTouchesNothing(t *testing.T) {
	store := newFakeStorage()
	store.seed(resolvedRec("老张", "贵州茅台", "SH", "600519"))
	prices := newFakePrices()
	prices.prices["SH.600519"] = &dto.WeeklyPrice{Open: 100, Close: 105}

	engine := NewPriceSyncEngine(store, prices, newTestLogger(t))
	engine.now = beforeW17Close

	// Rerunning before the close stays a no-op every time.
	for i := 0; i < 3; i++ {
		result, err := engine.SyncWeek(context.Background(), "2024-W17")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Zero(t, result.Processed)
	}

	assert.Zero(t, prices.calls["SH.600519"])
	records, _ := store.Query(context.Background(), storage.Filter{WeekID: "2024-W17"})
	assert.Equal(t, entity.StatusCodeResolved, records[0].Status)
}

func TestSyncWeekFetchesEachInstrumentOnce(t *testing.T) {
	store := newFakeStorage()
	store.seed(
		resolvedRec("老张", "贵州茅台", "SH", "600519"),
		resolvedRec("老李", "贵州茅台", "SH", "600519"),
		resolvedRec("老王", "贵州茅台", "SH", "600519"),
		resolvedRec("老张", "平安银行", "SZ", "000001"),
	)
	prices := newFakePrices()
	prices.prices["SH.600519"] = &dto.WeeklyPrice{Open: 100, Close: 101}
	prices.prices["SZ.000001"] = &dto.WeeklyPrice{Open: 10, Close: 9}

	engine := NewPriceSyncEngine(store, prices, newTestLogger(t))
	engine.now = afterW17Close

	result, err := engine.SyncWeek(context.Background(), "2024-W17")
	require.NoError(t, err)
	assert.Equal(t, 4, result.Succeeded)
	assert.Equal(t, 1, prices.calls["SH.600519"])
	assert.Equal(t, 1, prices.calls["SZ.000001"])
}

func TestSyncWeekNoPriceDataFailsRecords(t *testing.T) {
	store := newFakeStorage()
	store.seed(resolvedRec("老张", "某退市股", "SZ", "000002"))
	engine := NewPriceSyncEngine(store, newFakePrices(), newTestLogger(t))
	engine.now = afterW17Close

	result, err := engine.SyncWeek(context.Background(), "2024-W17")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	records, _ := store.Query(context.Background(), storage.Filter{WeekID: "2024-W17"})
	assert.Equal(t, entity.StatusFailed, records[0].Status)
	assert.Equal(t, entity.FailReasonNoPriceData, records[0].FailReason)
	assert.Nil(t, records[0].PctChange)
}

func TestSyncWeekTransientAdvancesToPricePending(t *testing.T) {
	store := newFakeStorage()
	store.seed(resolvedRec("老张", "贵州茅台", "SH", "600519"))
	prices := newFakePrices()
	prices.errs["SH.600519"] = fmt.Errorf("%w: 503", entity.ErrTransient)

	engine := NewPriceSyncEngine(store, prices, newTestLogger(t))
	engine.now = afterW17Close

	result, err := engine.SyncWeek(context.Background(), "2024-W17")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)

	records, _ := store.Query(context.Background(), storage.Filter{WeekID: "2024-W17"})
	rec := records[0]
	assert.Equal(t, entity.StatusPricePending, rec.Status)
	assert.Nil(t, rec.OpenPrice)
	assert.Nil(t, rec.PctChange)

	// Next sweep picks the record up again and finishes the job.
	prices.errs = map[string]error{}
	prices.prices["SH.600519"] = &dto.WeeklyPrice{Open: 100, Close: 110}
	rerun, err := engine.SyncWeek(context.Background(), "2024-W17")
	require.NoError(t, err)
	assert.Equal(t, 1, rerun.Succeeded)

	records, _ = store.Query(context.Background(), storage.Filter{WeekID: "2024-W17"})
	assert.Equal(t, entity.StatusPriced, records[0].Status)
}
