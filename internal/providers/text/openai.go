package text

import (
	"bytes"
	"context"
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
	OnWarning    func(reason, detail string)
}

// OpenAIClient calls the chat completions endpoint.
type OpenAIClient struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
}

const defaultOpenAIModel = "gpt-4o-mini"

var openAIModelAliases = map[string]string{
	"gpt4o-mini":             "gpt-4o-mini",
	"gpt4omini":              "gpt-4o-mini",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt4o":                  "gpt-4o",
	"gpt-3.5":                "gpt-3.5-turbo",
	"gpt-35-turbo":           "gpt-3.5-turbo",
}

var openAIModelCanonical = map[string]struct{}{
	"gpt-4o-mini":   {},
	"gpt-4o":        {},
	"gpt-3.5-turbo": {},
}

type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *openAIFormat   `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model, reason := normalizeOpenAIModel(opts.Model)
	if reason != "" && opts.OnWarning != nil {
		opts.OnWarning("model_"+reason, fmt.Sprintf("requested=%s resolved=%s", opts.Model, model))
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OpenAIClient{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
	}, nil
}

func (o *OpenAIClient) Model() string { return o.model }

func (o *OpenAIClient) GenerateCaptions(ctx context.Context, req CaptionRequest) (*CaptionResult, error) {
	variations := req.Variations
	if variations <= 0 {
		variations = 1
	}
	payload := openAIChatRequest{
		Model:          o.model,
		Temperature:    0.8,
		ResponseFormat: &openAIFormat{Type: "json_object"},
		Messages: []openAIMessage{
			{Role: "system", Content: systemInstruction(req.Locale)},
			{Role: "user", Content: buildCaptionPrompt(req, variations)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrProviderFailure, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrProviderFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", o.organization)
	}
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: openai status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrProviderFailure, err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", domain.ErrProviderFailure)
	}
	variants, err := ParseCaptions(out.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	if len(variants) > variations {
		variants = variants[:variations]
	}
	model := out.Model
	if model == "" {
		model = o.model
	}
	return &CaptionResult{
		Variants:         variants,
		Model:            model,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
	}, nil
}

var _ Generator = (*OpenAIClient)(nil)

func normalizeOpenAIModel(name string) (string, string) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return defaultOpenAIModel, ""
	}
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if _, ok := openAIModelCanonical[normalized]; ok {
		return normalized, ""
	}
	if alias, ok := openAIModelAliases[normalized]; ok {
		return alias, "alias"
	}
	return defaultOpenAIModel, "defaulted"
}
