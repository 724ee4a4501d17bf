package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{name: "draft to code pending", from: StatusDraft, to: StatusCodePending, want: true},
		{name: "code pending to resolved", from: StatusCodePending, to: StatusCodeResolved, want: true},
		{name: "resolved to price pending", from: StatusCodeResolved, to: StatusPricePending, want: true},
		{name: "price pending to priced", from: StatusPricePending, to: StatusPriced, want: true},
		{name: "any to failed", from: StatusCodePending, to: StatusFailed, want: true},
		{name: "failed retry to code pending", from: StatusFailed, to: StatusCodePending, want: true},
		{name: "self transition is a no-op", from: StatusCodeResolved, to: StatusCodeResolved, want: true},
		{name: "no skipping ahead", from: StatusCodePending, to: StatusPriced, want: false},
		{name: "no moving backwards", from: StatusPriced, to: StatusDraft, want: false},
		{name: "priced is terminal", from: StatusPriced, to: StatusFailed, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestIdentityKey(t *testing.T) {
	unresolved := Recommendation{WeekID: "2024-W17", Recommender: "老张", StockName: "贵州茅台"}
	assert.Equal(t, "老张|贵州茅台|2024-W17", unresolved.IdentityKey())

	resolved := unresolved
	require.NoError(t, resolved.SetInstrument("SH", "600519"))
	assert.Equal(t, "老张|SH.600519|2024-W17", resolved.IdentityKey())
}

func TestSetInstrumentRejectsPartialIdentity(t *testing.T) {
	var rec Recommendation

	assert.Error(t, rec.SetInstrument("SH", ""))
	assert.Error(t, rec.SetInstrument("", "600519"))
	assert.Empty(t, rec.Market)
	assert.Empty(t, rec.Code)

	require.NoError(t, rec.SetInstrument("SZ", "000001"))
	assert.True(t, rec.Resolved())
}

func TestRetryStatus(t *testing.T) {
	pct := 0.05

	tests := []struct {
		name string
		rec  Recommendation
		want Status
	}{
		{
			name: "nothing populated resumes from draft",
			rec:  Recommendation{Status: StatusFailed},
			want: StatusDraft,
		},
		{
			name: "name only resumes from code pending",
			rec:  Recommendation{Status: StatusFailed, StockName: "平安银行"},
			want: StatusCodePending,
		},
		{
			name: "resolved identity resumes from code resolved",
			rec:  Recommendation{Status: StatusFailed, StockName: "平安银行", Market: "SZ", Code: "000001"},
			want: StatusCodeResolved,
		},
		{
			name: "priced record stays priced",
			rec:  Recommendation{Status: StatusFailed, StockName: "平安银行", Market: "SZ", Code: "000001", PctChange: &pct},
			want: StatusPriced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.RetryStatus())
		})
	}
}

func TestRatingForScore(t *testing.T) {
	assert.Equal(t, RatingS, RatingForScore(0.85))
	assert.Equal(t, RatingA, RatingForScore(0.70))
	assert.Equal(t, RatingB, RatingForScore(0.50))
	assert.Equal(t, RatingC, RatingForScore(0.30))
	assert.Equal(t, RatingD, RatingForScore(0.10))
	assert.Equal(t, RatingS, RatingForScore(0.80))
}
