package image

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captzio/internal/domain"
)

const generationsURL = "https://openai.test/v1/images/generations"

func newTestGenerator(t *testing.T) *OpenAIGenerator {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	gen, err := NewOpenAIGenerator(OpenAIOptions{
		APIKey:     "sk-test",
		BaseURL:    "https://openai.test/v1/",
		HTTPClient: httpClient,
	})
	require.NoError(t, err)
	return gen
}

func TestGenerateMapsStyleQualityAndSize(t *testing.T) {
	gen := newTestGenerator(t)

	var got openAIImageRequest
	httpmock.RegisterResponder(http.MethodPost, generationsURL,
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
				return nil, err
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"data": []map[string]any{{"url": "https://cdn.test/a.png", "revised_prompt": "a cat"}},
			})
		})

	asset, err := gen.Generate(context.Background(), GenerateRequest{
		Prompt:  "a cat",
		Style:   domain.ImageStyleVivid,
		Quality: domain.ImageQualityHigh,
		Format:  domain.ImageFormatPortrait,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/a.png", asset.URL)
	assert.Equal(t, "dall-e-3", got.Model)
	assert.Equal(t, "hd", got.Quality)
	assert.Equal(t, "vivid", got.Style)
	assert.Equal(t, "1024x1792", got.Size)
	assert.Equal(t, 1, got.N)
}

func TestGenerateDecodesInlineData(t *testing.T) {
	gen := newTestGenerator(t)
	png := []byte("\x89PNG\r\n\x1a\n0000")
	httpmock.RegisterResponder(http.MethodPost, generationsURL,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"data": []map[string]any{{"b64_json": base64.StdEncoding.EncodeToString(png)}},
		}))

	asset, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Empty(t, asset.URL)
	assert.Equal(t, png, asset.Data)
	assert.Equal(t, "image/png", asset.MIME)
}

func TestGenerateEmptyResultIsFailure(t *testing.T) {
	gen := newTestGenerator(t)
	httpmock.RegisterResponder(http.MethodPost, generationsURL,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{"data": []any{}}))

	_, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestGenerateSurfacesProviderMessage(t *testing.T) {
	gen := newTestGenerator(t)
	httpmock.RegisterResponder(http.MethodPost, generationsURL,
		httpmock.NewJsonResponderOrPanic(http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": "content policy violation"},
		}))

	_, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.Contains(t, err.Error(), "content policy violation")
}

func TestGenerateKeepsTransportCause(t *testing.T) {
	gen := newTestGenerator(t)
	httpmock.RegisterResponder(http.MethodPost, generationsURL, httpmock.NewErrorResponder(context.DeadlineExceeded))

	_, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "a cat"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSizeAndQualityMapping(t *testing.T) {
	assert.Equal(t, "1024x1024", Size(domain.ImageFormatSquare))
	assert.Equal(t, "1024x1024", Size(""))
	assert.Equal(t, "1792x1024", Size(domain.ImageFormatLandscape))
	assert.Equal(t, "standard", ProviderQuality(domain.ImageQualityStandard))
	assert.Equal(t, "hd", ProviderQuality(domain.ImageQualityHigh))
}
