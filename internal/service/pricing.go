package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"captzio/internal/domain"
)

var (
	oneMillion = decimal.NewFromInt(1_000_000)

	// USD per million tokens, input then output.
	textModelPrices = map[string][2]decimal.Decimal{
		"gpt-4o-mini":   {decimal.RequireFromString("0.15"), decimal.RequireFromString("0.60")},
		"gpt-4o":        {decimal.RequireFromString("2.50"), decimal.RequireFromString("10.00")},
		"gpt-3.5-turbo": {decimal.RequireFromString("0.50"), decimal.RequireFromString("1.50")},
	}

	imageStandardSquare = decimal.RequireFromString("0.040")
	imageStandardWide   = decimal.RequireFromString("0.080")
	imageHDSquare       = decimal.RequireFromString("0.080")
	imageHDWide         = decimal.RequireFromString("0.120")
)

// EstimateCaptionCost prices a chat completion from its token usage. Dated
// model snapshots are priced as the longest matching family; unknown models
// fall back to gpt-4o-mini.
func EstimateCaptionCost(model string, promptTokens, completionTokens int) decimal.Decimal {
	prices, ok := textModelPrices[model]
	if !ok {
		best := ""
		for family := range textModelPrices {
			if strings.HasPrefix(model, family+"-") && len(family) > len(best) {
				best = family
			}
		}
		if best == "" {
			best = "gpt-4o-mini"
		}
		prices = textModelPrices[best]
	}
	in := decimal.NewFromInt(int64(promptTokens)).Mul(prices[0])
	out := decimal.NewFromInt(int64(completionTokens)).Mul(prices[1])
	return in.Add(out).Div(oneMillion).Round(6)
}

// EstimateImageCost prices one generated image.
func EstimateImageCost(quality domain.ImageQuality, format domain.ImageFormat) decimal.Decimal {
	wide := format == domain.ImageFormatPortrait || format == domain.ImageFormatLandscape
	switch {
	case quality == domain.ImageQualityHigh && wide:
		return imageHDWide
	case quality == domain.ImageQualityHigh:
		return imageHDSquare
	case wide:
		return imageStandardWide
	default:
		return imageStandardSquare
	}
}
