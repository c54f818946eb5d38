// Package text generates marketing captions with a chat-completion model.
package text

import (
	"context"
	"fmt"

	"captzio/internal/domain"
)

// CaptionRequest carries already validated and sanitized caption parameters.
type CaptionRequest struct {
	Description string
	Tone        string
	Platform    string
	Goal        string
	Variations  int
	Locale      string
}

// CaptionResult is the parsed model output plus the token usage used for cost
// estimates.
type CaptionResult struct {
	Variants         []domain.CaptionVariant
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Generator is the contract implemented by caption providers.
type Generator interface {
	GenerateCaptions(ctx context.Context, req CaptionRequest) (*CaptionResult, error)
}

// Disabled stands in when no caption provider is configured.
type Disabled struct{}

func (Disabled) GenerateCaptions(ctx context.Context, req CaptionRequest) (*CaptionResult, error) {
	return nil, fmt.Errorf("%w: caption provider not configured", domain.ErrProviderFailure)
}
