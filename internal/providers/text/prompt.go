package text

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"captzio/internal/domain"
)

var supportedLocales = []language.Tag{
	language.BrazilianPortuguese,
	language.English,
	language.Spanish,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// MatchLocale resolves a free-form locale (header value, BCP 47 tag) to one
// of the languages captions are written in. Portuguese is the fallback.
func MatchLocale(raw string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return supportedLocales[0]
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return supportedLocales[0]
	}
	return supportedLocales[idx]
}

func systemInstruction(locale string) string {
	tag := MatchLocale(locale)
	name := display.English.Tags().Name(tag)
	return fmt.Sprintf("You are a social media copywriter for small businesses. Write in %s (%s). "+
		"Respond only with JSON of the form {\"captions\":[{\"caption\":string,\"cta\":string,\"hashtags\":string[]}]}. "+
		"Hashtags start with # and contain no spaces.", name, tag)
}

func buildCaptionPrompt(req CaptionRequest, variations int) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Write %d distinct caption option(s) for %s.", variations, req.Platform)
	fmt.Fprintf(sb, " Tone: %s.", req.Tone)
	if req.Goal != "" {
		fmt.Fprintf(sb, " Goal: %s.", req.Goal)
	}
	fmt.Fprintf(sb, " Product or post description: %q.", req.Description)
	sb.WriteString(" Each option has a caption, a short call to action and 3 to 8 hashtags.")
	return sb.String()
}

type captionEnvelope struct {
	Captions []domain.CaptionVariant `json:"captions"`
}

// ParseCaptions accepts a bare JSON array, an object with a captions field or
// a single caption object, optionally wrapped in a markdown code fence.
func ParseCaptions(raw string) ([]domain.CaptionVariant, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return nil, errors.New("empty payload")
	}

	var variants []domain.CaptionVariant
	switch cleaned[0] {
	case '[':
		if err := json.Unmarshal([]byte(cleaned), &variants); err != nil {
			return nil, fmt.Errorf("parse captions: %w", err)
		}
	default:
		var env captionEnvelope
		if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
			return nil, fmt.Errorf("parse captions: %w", err)
		}
		variants = env.Captions
		if len(variants) == 0 {
			var single domain.CaptionVariant
			if err := json.Unmarshal([]byte(cleaned), &single); err == nil && single.Caption != "" {
				variants = []domain.CaptionVariant{single}
			}
		}
	}

	out := variants[:0]
	for _, v := range variants {
		v.Caption = strings.TrimSpace(v.Caption)
		if v.Caption == "" {
			continue
		}
		v.CTA = strings.TrimSpace(v.CTA)
		v.Hashtags = normalizeHashtags(v.Hashtags)
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("no captions in response")
	}
	return out, nil
}

func normalizeHashtags(tags []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(tag), "")
		tag = strings.TrimLeft(tag, "#")
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, "#"+tag)
	}
	return result
}

func extractJSONFragment(raw string) string {
	text := trimCodeFence(strings.TrimSpace(raw))
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
