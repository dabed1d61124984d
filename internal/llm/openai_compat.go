package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpClientTimeout bounds a single request; the scheduler's own timeout is
// normally much shorter.
const httpClientTimeout = 2 * time.Minute

var defaultHTTPClient = &http.Client{
	Timeout: httpClientTimeout,
}

// OpenAICompatProvider implements CompletionProvider for OpenAI-compatible
// servers such as Ollama and LM Studio.
type OpenAICompatProvider struct {
	baseURL string
	apiKey  string // Optional, most servers ignore it
	model   string
	name    string // Display name: "Ollama", "LM Studio", etc.
	opts    Options
	client  *http.Client
}

func NewOpenAICompatProvider(baseURL, apiKey, model, name string, opts Options) *OpenAICompatProvider {
	return &OpenAICompatProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		name:    name,
		opts:    opts,
		client:  defaultHTTPClient,
	}
}

func (p *OpenAICompatProvider) Name() string {
	return fmt.Sprintf("%s (%s)", p.name, p.model)
}

type oaiChatRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
	MaxTokens   *int         `json:"max_tokens,omitempty"`
	Stream      bool         `json:"stream"`
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message      oaiMessage `json:"message"`
		FinishReason string     `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (p *OpenAICompatProvider) Complete(ctx context.Context, contextText, modelID string) (string, error) {
	chatReq := oaiChatRequest{
		Model: chooseModel(modelID, p.model),
		Messages: []oaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(contextText)},
		},
	}
	if p.opts.MaxTokens > 0 {
		v := p.opts.MaxTokens
		chatReq.MaxTokens = &v
	}
	if p.opts.Temperature > 0 {
		v := float64(p.opts.Temperature)
		chatReq.Temperature = &v
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", Wrap(p.name, fmt.Errorf("%s API request failed: %w", p.name, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Wrap(p.name, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", StatusError(p.name, resp.StatusCode, resp.Header, string(respBody))
	}

	var chatResp oaiChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", Malformed(p.name, "decode response: %v", err)
	}
	if chatResp.Error != nil {
		return "", Wrap(p.name, fmt.Errorf("%s API error: %s", p.name, chatResp.Error.Message))
	}
	if len(chatResp.Choices) == 0 {
		return "", Malformed(p.name, "response had no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}

var _ ModelLister = (*OpenAICompatProvider)(nil)

type oaiModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels returns the model ids the server reports at /models.
func (p *OpenAICompatProvider) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, Wrap(p.name, fmt.Errorf("failed to list models: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Wrap(p.name, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, StatusError(p.name, resp.StatusCode, resp.Header, string(body))
	}

	var modelsResp oaiModelsResponse
	if err := json.Unmarshal(body, &modelsResp); err != nil {
		return nil, Malformed(p.name, "decode models: %v", err)
	}
	models := make([]string, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	return models, nil
}
