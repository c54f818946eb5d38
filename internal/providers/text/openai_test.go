package text

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"captzio/internal/domain"
)

func newTestClient(t *testing.T) *OpenAIClient {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	client, err := NewOpenAIClient(OpenAIOptions{
		APIKey:     "sk-test",
		BaseURL:    "https://openai.test/v1",
		HTTPClient: httpClient,
	})
	require.NoError(t, err)
	return client
}

func TestGenerateCaptionsParsesVariantsAndUsage(t *testing.T) {
	client := newTestClient(t)

	content := `{"captions":[{"caption":"Cafe fresquinho","cta":"Peca ja","hashtags":["cafe","#manha"," #cafe "]},{"caption":"Segunda opcao","cta":"Visite","hashtags":[]}]}`
	httpmock.RegisterResponder(http.MethodPost, "https://openai.test/v1/chat/completions",
		func(req *http.Request) (*http.Response, error) {
			var body openAIChatRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, "bad body"), nil
			}
			if req.Header.Get("Authorization") != "Bearer sk-test" || body.Model != "gpt-4o-mini" {
				return httpmock.NewStringResponse(http.StatusUnauthorized, "nope"), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"model":   "gpt-4o-mini-2024-07-18",
				"choices": []map[string]any{{"message": map[string]any{"content": content}}},
				"usage":   map[string]any{"prompt_tokens": 120, "completion_tokens": 80},
			})
		})

	res, err := client.GenerateCaptions(context.Background(), CaptionRequest{
		Description: "Cafe artesanal torrado na hora",
		Tone:        "casual",
		Platform:    "instagram",
		Variations:  2,
		Locale:      "pt-BR",
	})
	require.NoError(t, err)
	require.Len(t, res.Variants, 2)
	assert.Equal(t, "Cafe fresquinho", res.Variants[0].Caption)
	assert.Equal(t, []string{"#cafe", "#manha"}, res.Variants[0].Hashtags)
	assert.Equal(t, 120, res.PromptTokens)
	assert.Equal(t, 80, res.CompletionTokens)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", res.Model)
}

func TestGenerateCaptionsTrimsExtraVariants(t *testing.T) {
	client := newTestClient(t)
	content := `[{"caption":"a"},{"caption":"b"},{"caption":"c"}]`
	httpmock.RegisterResponder(http.MethodPost, "https://openai.test/v1/chat/completions",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		}))

	res, err := client.GenerateCaptions(context.Background(), CaptionRequest{Variations: 1})
	require.NoError(t, err)
	assert.Len(t, res.Variants, 1)
}

func TestGenerateCaptionsProviderErrors(t *testing.T) {
	client := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, "https://openai.test/v1/chat/completions",
		httpmock.NewStringResponder(http.StatusTooManyRequests, `{"error":"slow down"}`))

	_, err := client.GenerateCaptions(context.Background(), CaptionRequest{Variations: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateCaptionsKeepsTransportCause(t *testing.T) {
	client := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, "https://openai.test/v1/chat/completions",
		httpmock.NewErrorResponder(context.DeadlineExceeded))

	_, err := client.GenerateCaptions(context.Background(), CaptionRequest{Variations: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateCaptionsEmptyContent(t *testing.T) {
	client := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, "https://openai.test/v1/chat/completions",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "   "}}},
		}))

	_, err := client.GenerateCaptions(context.Background(), CaptionRequest{Variations: 1})
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestParseCaptionsShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{name: "array", raw: `[{"caption":"x","cta":"y","hashtags":["a"]}]`, want: 1},
		{name: "fenced", raw: "```json\n[{\"caption\":\"x\"},{\"caption\":\"y\"}]\n```", want: 2},
		{name: "envelope", raw: `{"captions":[{"caption":"x"}]}`, want: 1},
		{name: "single", raw: `{"caption":"x","cta":"y"}`, want: 1},
		{name: "prose around", raw: `Here you go: [{"caption":"x"}] enjoy`, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCaptions(tc.raw)
			require.NoError(t, err)
			assert.Len(t, got, tc.want)
		})
	}

	_, err := ParseCaptions(`{"captions":[]}`)
	assert.Error(t, err)
	_, err = ParseCaptions("not json")
	assert.Error(t, err)
}

func TestMatchLocale(t *testing.T) {
	assert.Equal(t, language.BrazilianPortuguese, MatchLocale(""))
	assert.Equal(t, language.BrazilianPortuguese, MatchLocale("pt-BR,pt;q=0.9"))
	assert.Equal(t, language.English, MatchLocale("en-US"))
	assert.Equal(t, language.Spanish, MatchLocale("es-AR"))
	assert.Equal(t, language.BrazilianPortuguese, MatchLocale("ja"))
}

func TestNormalizeOpenAIModel(t *testing.T) {
	cases := []struct {
		input, model, reason string
	}{
		{"gpt-4o-mini", "gpt-4o-mini", ""},
		{"", "gpt-4o-mini", ""},
		{"GPT4o Mini", "gpt-4o-mini", "alias"},
		{"gpt-4.1", "gpt-4o-mini", "defaulted"},
		{"gpt4omini", "gpt-4o-mini", "alias"},
		{"gpt-4o", "gpt-4o", ""},
	}
	for _, tc := range cases {
		model, reason := normalizeOpenAIModel(tc.input)
		assert.Equal(t, tc.model, model, tc.input)
		assert.Equal(t, tc.reason, reason, tc.input)
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIOptions{})
	assert.Error(t, err)
}
