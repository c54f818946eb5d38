// Package ratelimit implements fixed-window request counting keyed by an
// arbitrary string, typically an action name joined with an account id.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the state of a window after a check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter counts attempts per key. A window opens on the first attempt and
// admits at most limit attempts until it expires; rejected attempts do not
// extend it.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
