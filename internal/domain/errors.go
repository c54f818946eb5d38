package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrProviderFailure  = errors.New("provider failure")
	ErrInvalidSignature = errors.New("invalid signature")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// InsufficientCreditsError is returned when a non-privileged account cannot
// afford a priced action.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

// RateLimitError carries the moment the caller may retry.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return "rate limit exceeded until " + e.ResetAt.UTC().Format(time.RFC3339)
}

// IsInsufficientCredits reports whether err wraps an InsufficientCreditsError.
func IsInsufficientCredits(err error) bool {
	var target *InsufficientCreditsError
	return errors.As(err, &target)
}
