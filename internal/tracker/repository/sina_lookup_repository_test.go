package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-stock-recommender/internal/tracker/config"
	"golang-stock-recommender/pkg/logger"
)

func newLookupForTest(t *testing.T) *sinaLookupRepository {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	cfg := &config.Config{}
	cfg.Sina.MaxRequestPerMinute = 60
	return NewSinaLookupRepository(cfg, log, nil).(*sinaLookupRepository)
}

func TestMarketFromCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{code: "600519", want: "SH"},
		{code: "688981", want: "SH"},
		{code: "000001", want: "SZ"},
		{code: "300750", want: "SZ"},
		{code: "830799", want: "BJ"},
		{code: "430047", want: "BJ"},
		{code: "920002", want: "BJ"},
		{code: "123456", want: "SZ"}, // unknown prefix defaults to SZ
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, marketFromCode(tt.code))
		})
	}
}

func TestSearchResolvesBareCodeLocally(t *testing.T) {
	lookup := newLookupForTest(t)

	match, err := lookup.Search(context.Background(), "600519")
	require.NoError(t, err)
	assert.Equal(t, "SH", match.Market)
	assert.Equal(t, "600519", match.Code)
}

func TestParseSuggestResponse(t *testing.T) {
	lookup := newLookupForTest(t)

	tests := []struct {
		name       string
		content    string
		wantMarket string
		wantCode   string
		wantNil    bool
	}{
		{
			name:       "A share entry",
			content:    `var suggestdata_123="贵州茅台,11,600519,sh600519,贵州茅台,,贵州茅台,99,1,"`,
			wantMarket: "SH",
			wantCode:   "600519",
		},
		{
			name:       "Shenzhen listing",
			content:    `var suggestdata_123="平安银行,11,000001,sz000001,平安银行,,平安银行,99,1,"`,
			wantMarket: "SZ",
			wantCode:   "000001",
		},
		{
			name:       "HK listing",
			content:    `var suggestdata_123="腾讯控股,31,00700,00700,腾讯控股,,腾讯控股,99,1,"`,
			wantMarket: "HK",
			wantCode:   "00700",
		},
		{
			name:       "first usable entry of several wins",
			content:    `var suggestdata_123="指数,99,000300,cs000300,沪深300,,沪深300,99,1,;贵州茅台,11,600519,sh600519,贵州茅台,,贵州茅台,99,1,"`,
			wantMarket: "SH",
			wantCode:   "600519",
		},
		{
			name:    "empty payload",
			content: `var suggestdata_123=""`,
			wantNil: true,
		},
		{
			name:    "no quoted payload at all",
			content: `var suggestdata_123=`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := lookup.parseSuggestResponse("query", tt.content)
			if tt.wantNil {
				assert.Nil(t, match)
				return
			}
			require.NotNil(t, match)
			assert.Equal(t, tt.wantMarket, match.Market)
			assert.Equal(t, tt.wantCode, match.Code)
		})
	}
}
