package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"captzio/internal/domain"
)

func TestEstimateCaptionCost(t *testing.T) {
	assert.Equal(t, "0.00045", EstimateCaptionCost("gpt-4o-mini", 1000, 500).String())
	assert.Equal(t, "0.00045", EstimateCaptionCost("gpt-4o-mini-2024-07-18", 1000, 500).String())
	assert.Equal(t, "0.0075", EstimateCaptionCost("gpt-4o-2024-08-06", 1000, 500).String())
	assert.Equal(t, "0.00045", EstimateCaptionCost("unknown", 1000, 500).String())
	assert.True(t, EstimateCaptionCost("gpt-4o-mini", 0, 0).IsZero())
}

func TestEstimateImageCost(t *testing.T) {
	assert.Equal(t, "0.04", EstimateImageCost(domain.ImageQualityStandard, domain.ImageFormatSquare).String())
	assert.Equal(t, "0.08", EstimateImageCost(domain.ImageQualityStandard, domain.ImageFormatPortrait).String())
	assert.Equal(t, "0.08", EstimateImageCost(domain.ImageQualityHigh, domain.ImageFormatSquare).String())
	assert.Equal(t, "0.12", EstimateImageCost(domain.ImageQualityHigh, domain.ImageFormatLandscape).String())
}
