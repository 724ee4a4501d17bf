package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter enforces a per-minute token budget for AI API calls.
// Consumed tokens are returned to the budget one minute after use.
type TokenLimiter struct {
	mu        sync.Mutex
	maxTokens int
	used      int
}

// NewTokenLimiter creates a TokenLimiter with the given per-minute budget.
func NewTokenLimiter(maxTokensPerMinute int) *TokenLimiter {
	return &TokenLimiter{maxTokens: maxTokensPerMinute}
}

// GetRemaining returns the currently available token budget.
func (l *TokenLimiter) GetRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxTokens - l.used
}

// Wait blocks until n tokens are available or the context is done.
func (l *TokenLimiter) Wait(ctx context.Context, n int) error {
	for {
		l.mu.Lock()
		if l.used+n <= l.maxTokens || n > l.maxTokens {
			l.used += n
			l.mu.Unlock()
			go l.release(n)
			return nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (l *TokenLimiter) release(n int) {
	time.Sleep(time.Minute)
	l.mu.Lock()
	l.used -= n
	if l.used < 0 {
		l.used = 0
	}
	l.mu.Unlock()
}
