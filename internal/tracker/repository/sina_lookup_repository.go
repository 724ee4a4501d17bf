package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/config"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/pkg/decoder"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/utils"

	"golang.org/x/time/rate"
)

// Sina suggest market type codes: 11 = A share, 31 = HK.
const (
	sinaMarketTypeAShare = "11"
	sinaMarketTypeHK     = "31"
)

var (
	aShareCodePattern = regexp.MustCompile(`^\d{6}$`)
	hkCodePattern     = regexp.MustCompile(`^\d{5}$`)
	suggestDataRegexp = regexp.MustCompile(`="([^"]*)"`)
)

// sinaLookupRepository resolves stock names to (market, code) pairs through
// the Sina suggest endpoint.
type sinaLookupRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	httpClient     *http.Client
	decoder        *decoder.GBKDecoder
	requestLimiter *rate.Limiter
}

// NewSinaLookupRepository creates a new instance of sinaLookupRepository.
func NewSinaLookupRepository(cfg *config.Config, log *logger.Logger, gbk *decoder.GBKDecoder) CodeLookupRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Sina.MaxRequestPerMinute)
	return &sinaLookupRepository{
		cfg:    cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		decoder:        gbk,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

// Search resolves a stock name. Bare 6-digit A-share codes are resolved
// locally from their prefix without an external call.
func (r *sinaLookupRepository) Search(ctx context.Context, stockName string) (*dto.StockMatch, error) {
	if aShareCodePattern.MatchString(stockName) {
		return &dto.StockMatch{Market: marketFromCode(stockName), Code: stockName}, nil
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/suggest/key=%s&name=suggestdata_%d",
		r.cfg.Sina.SuggestBaseURL, url.QueryEscape(stockName), utils.TimeNowCST().UnixMilli())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggest request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Referer", "http://finance.sina.com.cn/")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: suggest request failed: %v", entity.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: suggest returned status %d", entity.ErrTransient, resp.StatusCode)
	}

	// The suggest endpoint serves GBK.
	content, err := r.decoder.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode suggest response: %w", err)
	}

	match := r.parseSuggestResponse(stockName, content)
	if match == nil {
		r.logger.Debug("No suggest match", logger.StringField("stock_name", stockName))
		return nil, fmt.Errorf("%w: %s", entity.ErrCodeNotFound, stockName)
	}
	return match, nil
}

// parseSuggestResponse extracts the first usable instrument from the
// suggest payload. Entries are semicolon separated; fields are
// name,marketType,code,prefixedCode,shortName,...
func (r *sinaLookupRepository) parseSuggestResponse(stockName, content string) *dto.StockMatch {
	m := suggestDataRegexp.FindStringSubmatch(content)
	if m == nil || m[1] == "" {
		return nil
	}

	for _, item := range strings.Split(m[1], ";") {
		parts := strings.Split(item, ",")
		if len(parts) <= 4 {
			continue
		}
		name := parts[0]
		marketType := parts[1]
		code := parts[2]
		prefixedCode := parts[3]

		if marketType == sinaMarketTypeHK && hkCodePattern.MatchString(code) {
			r.logger.Debug("Resolved HK instrument",
				logger.StringField("stock_name", stockName),
				logger.StringField("code", code))
			return &dto.StockMatch{Market: "HK", Code: code, Name: name}
		}

		if marketType == sinaMarketTypeAShare && aShareCodePattern.MatchString(code) {
			market := strings.ToUpper(strings.Replace(prefixedCode, code, "", 1))
			if market == "SH" || market == "SZ" || market == "BJ" {
				r.logger.Debug("Resolved instrument",
					logger.StringField("stock_name", stockName),
					logger.StringField("market", market),
					logger.StringField("code", code))
				return &dto.StockMatch{Market: market, Code: code, Name: name}
			}
		}
	}
	return nil
}

// marketFromCode infers the exchange from a bare 6-digit code prefix.
func marketFromCode(code string) string {
	switch {
	case strings.HasPrefix(code, "60"), strings.HasPrefix(code, "68"):
		return "SH"
	case strings.HasPrefix(code, "00"), strings.HasPrefix(code, "30"):
		return "SZ"
	case strings.HasPrefix(code, "8"), strings.HasPrefix(code, "4"), strings.HasPrefix(code, "9"):
		return "BJ"
	}
	return "SZ"
}
