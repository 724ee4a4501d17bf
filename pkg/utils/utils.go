package utils

import (
	"context"
	"math"
	"runtime/debug"

	"golang-stock-recommender/pkg/logger"
)

// ToPointer returns a pointer to the given value.
func ToPointer[T any](v T) *T {
	return &v
}

// RoundDecimals rounds v to the given number of decimal digits.
func RoundDecimals(v float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(v*pow) / pow
}

// ShouldContinue reports whether the context is still alive, logging when it
// is not so sweep loops can exit quietly.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.Info("Context canceled, stopping work", logger.ErrorField(ctx.Err()))
		return false
	default:
		return true
	}
}

// GoSafe runs fn in a goroutine and recovers panics so a single bad item
// cannot take down the process.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				debug.PrintStack()
			}
		}()
		fn()
	}()
}
