package entity

import "errors"

// Error taxonomy for the pipeline. Transient errors leave storage state
// unchanged for later retry; permanent ones persist as StatusFailed with a
// reason code.
var (
	// ErrConflict is an identity-key collision under an incompatible status,
	// e.g. re-drafting a PRICED record without the force flag.
	ErrConflict = errors.New("recommendation identity conflict")

	// ErrCodeNotFound means the lookup service has no instrument for the
	// stock name. Permanent until the name is corrected manually.
	ErrCodeNotFound = errors.New("stock code not found")

	// ErrNoPriceData means the price collaborator has no trading data for
	// the instrument in the requested week.
	ErrNoPriceData = errors.New("no price data")

	// ErrTransient marks network or service hiccups. Always retryable and
	// never persisted as a terminal state.
	ErrTransient = errors.New("transient service error")

	// ErrInvalidWeekID rejects week identifiers not of the form "2024-W17".
	ErrInvalidWeekID = errors.New("invalid week id")

	// ErrRunActive means the pipeline lease is held by another run.
	ErrRunActive = errors.New("another pipeline run is already active")
)

// IsTransient reports whether err is a retryable service failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
