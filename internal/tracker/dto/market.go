package dto

// StockMatch is a resolved instrument identity returned by the code lookup
// collaborator. Name echoes the listed display name, used to correct
// extraction spelling.
type StockMatch struct {
	Market string `json:"market"`
	Code   string `json:"code"`
	Name   string `json:"name,omitempty"`
}

// WeeklyPrice is the result of one weekly kline fetch: the first trading
// day's open and the last trading day's close inside the week window.
type WeeklyPrice struct {
	Open  float64 `json:"open"`
	Close float64 `json:"close"`
}

// TencentKlineResponse mirrors the Tencent qfq kline payload. Data is keyed
// by the prefixed symbol (e.g. "sh600000"); each candle row is
// [date, open, close, high, low, volume, ...].
type TencentKlineResponse struct {
	Code int                               `json:"code"`
	Data map[string]TencentKlineSymbolData `json:"data"`
}

// TencentKlineSymbolData holds the candle arrays for one symbol. The field
// used depends on adjustment: "qfqday" when qfq data exists, "day" otherwise.
type TencentKlineSymbolData struct {
	QfqDay [][]interface{} `json:"qfqday"`
	Day    [][]interface{} `json:"day"`
}

// SinaKlineCandle is one daily candle from the Sina kline endpoint.
type SinaKlineCandle struct {
	Day    string `json:"day"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}
