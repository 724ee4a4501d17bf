package entity

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a Recommendation. Transitions move
// forward only, except StatusFailed which is reachable from any
// non-terminal state and retryable back to its originating state.
type Status string

const (
	StatusDraft        Status = "DRAFT"
	StatusCodePending  Status = "CODE_PENDING"
	StatusCodeResolved Status = "CODE_RESOLVED"
	StatusPricePending Status = "PRICE_PENDING"
	StatusPriced       Status = "PRICED"
	StatusFailed       Status = "FAILED"
)

// Failure reason codes persisted on StatusFailed records.
const (
	FailReasonCodeNotFound = "CODE_NOT_FOUND"
	FailReasonNoPriceData  = "NO_PRICE_DATA"
)

var validTransitions = map[Status][]Status{
	StatusDraft:        {StatusCodePending, StatusFailed},
	StatusCodePending:  {StatusCodeResolved, StatusFailed},
	StatusCodeResolved: {StatusPricePending, StatusFailed},
	StatusPricePending: {StatusPriced, StatusFailed},
	StatusPriced:       {},
	StatusFailed:       {StatusDraft, StatusCodePending, StatusCodeResolved, StatusPricePending},
}

// CanTransition reports whether moving from s to next is a valid lifecycle
// step. Self transitions are allowed so stage re-runs stay no-ops.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status accepts no further forward progress.
func (s Status) Terminal() bool {
	return s == StatusPriced
}

// Recommendation is one tracked stock pick: a single (recommender,
// instrument, week) row. It is owned exclusively by the storage layer;
// pipeline stages re-read, transform and write back.
type Recommendation struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	WeekID      string `gorm:"size:8;not null;uniqueIndex:idx_recommendation_identity,priority:1" json:"week_id"`
	Recommender string `gorm:"not null;uniqueIndex:idx_recommendation_identity,priority:2" json:"recommender"`
	StockName   string `gorm:"not null;uniqueIndex:idx_recommendation_identity,priority:3" json:"stock_name"`
	// ExtractedName keeps the name as extracted from the raw text. The
	// resolver may correct StockName to the listed name; re-ingestion
	// matching still has to recognize the original spelling.
	ExtractedName string    `json:"extracted_name,omitempty"`
	Market        string    `json:"market"`
	Code          string    `json:"code"`
	RawText       string    `json:"raw_text"`
	OpenPrice     *float64  `json:"open_price"`
	ClosePrice    *float64  `json:"close_price"`
	PctChange     *float64  `json:"pct_change"`
	Status        Status    `gorm:"size:16;not null" json:"status"`
	FailReason    string    `gorm:"size:32" json:"fail_reason,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IdentityKey is the duplicate-ingestion guard: the resolved code when
// available, the extracted name otherwise.
func (r *Recommendation) IdentityKey() string {
	instrument := r.StockName
	if r.Market != "" && r.Code != "" {
		instrument = r.Market + "." + r.Code
	}
	return fmt.Sprintf("%s|%s|%s", r.Recommender, instrument, r.WeekID)
}

// IdentityAliases returns every key under which this record must be
// recognized as already ingested: the resolved code when present, the
// current stock name, and the originally extracted name. IdentityKey alone
// is not enough once resolution has rewritten StockName.
func (r *Recommendation) IdentityAliases() []string {
	aliases := []string{fmt.Sprintf("%s|%s|%s", r.Recommender, r.StockName, r.WeekID)}
	if r.ExtractedName != "" && r.ExtractedName != r.StockName {
		aliases = append(aliases, fmt.Sprintf("%s|%s|%s", r.Recommender, r.ExtractedName, r.WeekID))
	}
	if r.Resolved() {
		aliases = append(aliases, fmt.Sprintf("%s|%s.%s|%s", r.Recommender, r.Market, r.Code, r.WeekID))
	}
	return aliases
}

// Resolved reports whether the record carries a full instrument identity.
// Market and code are set together or not at all.
func (r *Recommendation) Resolved() bool {
	return r.Market != "" && r.Code != ""
}

// SetInstrument assigns market and code atomically. Partial identities are
// rejected so the both-or-neither invariant holds at every observable point.
func (r *Recommendation) SetInstrument(market, code string) error {
	if market == "" || code == "" {
		return fmt.Errorf("instrument identity requires both market and code, got market=%q code=%q", market, code)
	}
	r.Market = market
	r.Code = code
	return nil
}

// Fail moves the record to StatusFailed with a reason code. The originating
// state is not stored; RetryStatus derives it from the populated fields.
func (r *Recommendation) Fail(reason string) {
	r.Status = StatusFailed
	r.FailReason = reason
}

// RetryStatus returns the state a FAILED record resumes from, derived from
// the fields already populated.
func (r *Recommendation) RetryStatus() Status {
	switch {
	case r.PctChange != nil:
		return StatusPriced
	case r.Resolved():
		return StatusCodeResolved
	case r.StockName != "":
		return StatusCodePending
	default:
		return StatusDraft
	}
}
