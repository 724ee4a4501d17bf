package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/config"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/utils"

	"golang.org/x/time/rate"
)

// klineRepository fetches weekly open/close prices from the Tencent qfq
// kline endpoint, falling back to the Sina kline endpoint when Tencent has
// no data for the market (BJ listings, occasionally HK).
type klineRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewKlineRepository creates a new instance of klineRepository.
func NewKlineRepository(cfg *config.Config, log *logger.Logger) PriceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Tencent.MaxRequestPerMinute)
	return &klineRepository{
		cfg:    cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

type dailyCandle struct {
	Day   time.Time
	Open  float64
	Close float64
}

// GetWeeklyPrice returns the week's open (first trading day) and close
// (last trading day) for the instrument.
func (r *klineRepository) GetWeeklyPrice(ctx context.Context, market, code string, week entity.Week) (*dto.WeeklyPrice, error) {
	symbol := strings.ToLower(market) + code

	candles, err := r.fetchTencentDaily(ctx, symbol, week)
	if err != nil {
		r.logger.Warn("Tencent kline failed, falling back to Sina",
			logger.StringField("symbol", symbol), logger.ErrorField(err))
		candles, err = r.fetchSinaDaily(ctx, symbol)
		if err != nil {
			return nil, err
		}
	}

	weekCandles := filterWeek(candles, week)
	if len(weekCandles) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", entity.ErrNoPriceData, symbol, week)
	}

	return &dto.WeeklyPrice{
		Open:  weekCandles[0].Open,
		Close: weekCandles[len(weekCandles)-1].Close,
	}, nil
}

func (r *klineRepository) fetchTencentDaily(ctx context.Context, symbol string, week entity.Week) ([]dailyCandle, error) {
	endDate := week.Friday().Format("2006-01-02")
	url := fmt.Sprintf("%s/appstock/app/fqkline/get?param=%s,day,,%s,10,qfq", r.cfg.Tencent.BaseURL, symbol, endDate)

	body, err := r.sendRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp dto.TencentKlineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Tencent kline response: %w", err)
	}

	symbolData, ok := resp.Data[symbol]
	if !ok {
		return nil, fmt.Errorf("no Tencent data for symbol %s", symbol)
	}
	rows := symbolData.QfqDay
	if len(rows) == 0 {
		rows = symbolData.Day
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty Tencent candle list for %s", symbol)
	}

	var candles []dailyCandle
	for _, row := range rows {
		// Row layout: [date, open, close, high, low, volume, ...]; rows with
		// dividend annotations carry extra columns.
		if len(row) < 5 {
			continue
		}
		day, err := time.ParseInLocation("2006-01-02", asString(row[0]), utils.LocationCST())
		if err != nil {
			continue
		}
		open, err1 := asFloat(row[1])
		closePrice, err2 := asFloat(row[2])
		if err1 != nil || err2 != nil {
			continue
		}
		candles = append(candles, dailyCandle{Day: day, Open: open, Close: closePrice})
	}
	return candles, nil
}

func (r *klineRepository) fetchSinaDaily(ctx context.Context, symbol string) ([]dailyCandle, error) {
	url := fmt.Sprintf("%s/quotes_service/api/json_v2.php/CN_MarketData.getKLineData?symbol=%s&scale=240&ma=5&datalen=20",
		r.cfg.Sina.KlineBaseURL, symbol)

	body, err := r.sendRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var rows []dto.SinaKlineCandle
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Sina kline response: %w", err)
	}

	var candles []dailyCandle
	for _, row := range rows {
		day, err := time.ParseInLocation("2006-01-02", row.Day, utils.LocationCST())
		if err != nil {
			continue
		}
		open, err1 := strconv.ParseFloat(row.Open, 64)
		closePrice, err2 := strconv.ParseFloat(row.Close, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		candles = append(candles, dailyCandle{Day: day, Open: open, Close: closePrice})
	}
	return candles, nil
}

func (r *klineRepository) sendRequest(ctx context.Context, url string) ([]byte, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create kline request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: kline request failed: %v", entity.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: kline returned status %d", entity.ErrTransient, resp.StatusCode)
		}
		return nil, fmt.Errorf("kline returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func filterWeek(candles []dailyCandle, week entity.Week) []dailyCandle {
	monday := week.Monday()
	saturday := monday.AddDate(0, 0, 5)

	var out []dailyCandle
	for _, c := range candles {
		if !c.Day.Before(monday) && c.Day.Before(saturday) {
			out = append(out, c)
		}
	}
	return out
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
}
