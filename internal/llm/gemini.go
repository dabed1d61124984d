package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiProvider implements CompletionProvider using the Gemini API.
type GeminiProvider struct {
	apiKey string
	model  string
	opts   Options

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiProvider creates a provider. An empty apiKey falls back to
// GEMINI_API_KEY. The client is created lazily on first use.
func NewGeminiProvider(apiKey, model string, opts Options) (*GeminiProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, NewError(KindAuthentication, "gemini", fmt.Errorf("API key not configured. Set GEMINI_API_KEY or add to config"))
	}
	return &GeminiProvider{apiKey: apiKey, model: model, opts: opts}, nil
}

func (p *GeminiProvider) Name() string {
	return fmt.Sprintf("Gemini (%s)", p.model)
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: p.apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

func (p *GeminiProvider) Complete(ctx context.Context, contextText, modelID string) (string, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return "", Wrap("gemini", fmt.Errorf("failed to create gemini client: %w", err))
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		MaxOutputTokens:   int32(p.opts.MaxTokens),
	}
	if p.opts.Temperature > 0 {
		config.Temperature = genai.Ptr(p.opts.Temperature)
	}

	resp, err := client.Models.GenerateContent(ctx, chooseModel(modelID, p.model), genai.Text(BuildPrompt(contextText)), config)
	if err != nil {
		return "", Wrap("gemini", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", Malformed("gemini", "response had no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
