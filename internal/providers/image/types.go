// Package image talks to text-to-image providers.
package image

import (
	"context"
	"fmt"

	"captzio/internal/domain"
)

// GenerateRequest is a normalized request passed to any image provider.
type GenerateRequest struct {
	Prompt  string
	Style   domain.ImageStyle
	Quality domain.ImageQuality
	Format  domain.ImageFormat
	// User is an opaque end-user id forwarded for provider abuse monitoring.
	User string
}

// Asset is a generated image. Providers return either a hosted URL or inline
// bytes; callers upload inline bytes before exposing a result.
type Asset struct {
	URL           string
	Data          []byte
	MIME          string
	RevisedPrompt string
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Asset, error)
}

// Disabled stands in when no provider credentials are configured. Every call
// fails, so jobs end failed and refunded.
type Disabled struct{}

func (Disabled) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	return nil, fmt.Errorf("%w: image provider not configured", domain.ErrProviderFailure)
}

// Size maps the user facing format to provider canvas dimensions.
func Size(format domain.ImageFormat) string {
	switch format {
	case domain.ImageFormatPortrait:
		return "1024x1792"
	case domain.ImageFormatLandscape:
		return "1792x1024"
	default:
		return "1024x1024"
	}
}

// ProviderQuality maps the user facing quality tier to the provider's.
func ProviderQuality(q domain.ImageQuality) string {
	if q == domain.ImageQualityHigh {
		return "hd"
	}
	return "standard"
}
