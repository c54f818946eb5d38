package service

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/unicode/norm"

	"captzio/internal/domain"
)

const (
	maxPromptRunes         = 1000
	minDescriptionRunes    = 10
	maxDescriptionRunes    = 500
	maxCaptionVariations   = 3
	defaultCaptionVariants = 1
)

// strippedRunes never reach a provider prompt or a rendered caption.
const strippedRunes = "<>{}[]\\`$"

// Sanitize normalizes free text to NFC, drops markup and template
// characters, turns control characters into spaces and collapses whitespace.
func Sanitize(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(strippedRunes, r):
			return -1
		case unicode.IsControl(r):
			return ' '
		default:
			return r
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// ImageRequest is the user input for an image job.
type ImageRequest struct {
	Prompt  string `json:"prompt"`
	Style   string `json:"style"`
	Quality string `json:"quality"`
	Format  string `json:"format"`
}

func (r *ImageRequest) normalize() error {
	r.Prompt = strings.TrimSpace(norm.NFC.String(r.Prompt))
	r.Style = strings.ToLower(strings.TrimSpace(r.Style))
	r.Quality = strings.ToLower(strings.TrimSpace(r.Quality))
	r.Format = strings.ToLower(strings.TrimSpace(r.Format))
	if r.Style == "" {
		r.Style = string(domain.ImageStyleNatural)
	}
	if r.Quality == "" {
		r.Quality = string(domain.ImageQualityStandard)
	}
	if r.Format == "" {
		r.Format = string(domain.ImageFormatSquare)
	}
	return asValidationError(validation.ValidateStruct(r,
		validation.Field(&r.Prompt, validation.Required, validation.RuneLength(1, maxPromptRunes)),
		validation.Field(&r.Style, validation.In(string(domain.ImageStyleNatural), string(domain.ImageStyleVivid))),
		validation.Field(&r.Quality, validation.In(string(domain.ImageQualityStandard), string(domain.ImageQualityHigh))),
		validation.Field(&r.Format, validation.In(
			string(domain.ImageFormatSquare),
			string(domain.ImageFormatPortrait),
			string(domain.ImageFormatLandscape),
		)),
	))
}

// CaptionParams is the user input for a caption generation.
type CaptionParams struct {
	Description string `json:"description"`
	Tone        string `json:"tone"`
	Platform    string `json:"platform"`
	Goal        string `json:"goal"`
	Variations  int    `json:"variations"`
	Locale      string `json:"-"`
}

func (p *CaptionParams) normalize() error {
	p.Description = Sanitize(p.Description)
	p.Tone = strings.ToLower(Sanitize(p.Tone))
	p.Platform = strings.ToLower(Sanitize(p.Platform))
	p.Goal = strings.ToLower(Sanitize(p.Goal))
	if p.Variations == 0 {
		p.Variations = defaultCaptionVariants
	}
	return asValidationError(validation.ValidateStruct(p,
		validation.Field(&p.Description, validation.Required, validation.RuneLength(minDescriptionRunes, maxDescriptionRunes)),
		validation.Field(&p.Tone, validation.Required, validation.In(toAny(domain.CaptionTones)...)),
		validation.Field(&p.Platform, validation.Required, validation.In(toAny(domain.CaptionPlatforms)...)),
		validation.Field(&p.Goal, validation.In(toAny(domain.CaptionGoals)...)),
		validation.Field(&p.Variations, validation.Min(1), validation.Max(maxCaptionVariations)),
	))
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// asValidationError folds ozzo errors into the domain taxonomy, reporting the
// first failing field in name order.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return &domain.ValidationError{Reason: err.Error()}
	}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return &domain.ValidationError{Field: fields[0], Reason: errs[fields[0]].Error()}
}
