package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"captzio/internal/domain"
)

type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// OpenAIGenerator calls the images/generations endpoint.
type OpenAIGenerator struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
}

type openAIImageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality,omitempty"`
	Style   string `json:"style,omitempty"`
	User    string `json:"user,omitempty"`
}

type openAIImageResponse struct {
	Data []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "dall-e-3"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OpenAIGenerator{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
	}, nil
}

func (g *OpenAIGenerator) Model() string { return g.model }

// Generate requests a single image. An empty data set is a provider failure.
func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	payload := openAIImageRequest{
		Model:   g.model,
		Prompt:  req.Prompt,
		N:       1,
		Size:    Size(req.Format),
		Quality: ProviderQuality(req.Quality),
		Style:   string(req.Style),
		User:    req.User,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrProviderFailure, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/images/generations", &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrProviderFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	if g.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", g.organization)
	}
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrProviderFailure, err)
	}
	var out openAIImageResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("openai status %d", resp.StatusCode)
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg += ": " + out.Error.Message
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderFailure, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrProviderFailure, decodeErr)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("%w: no image returned", domain.ErrProviderFailure)
	}

	first := out.Data[0]
	asset := &Asset{URL: strings.TrimSpace(first.URL), RevisedPrompt: first.RevisedPrompt}
	if first.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: decode image data: %v", domain.ErrProviderFailure, err)
		}
		asset.Data = data
		asset.MIME = http.DetectContentType(data)
	}
	if asset.URL == "" && len(asset.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image payload", domain.ErrProviderFailure)
	}
	return asset, nil
}

var _ Generator = (*OpenAIGenerator)(nil)
