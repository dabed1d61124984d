package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements CompletionProvider using the Chat Completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	opts   Options
}

// NewOpenAIProvider creates a provider. An empty apiKey falls back to
// OPENAI_API_KEY.
func NewOpenAIProvider(apiKey, model string, opts Options) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, NewError(KindAuthentication, "openai", fmt.Errorf("API key not configured. Set OPENAI_API_KEY or add to config"))
	}
	client := openai.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	return &OpenAIProvider{client: &client, model: model, opts: opts}, nil
}

func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("OpenAI (%s)", p.model)
}

func (p *OpenAIProvider) Complete(ctx context.Context, contextText, modelID string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(chooseModel(modelID, p.model)),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(BuildPrompt(contextText)),
		},
		MaxCompletionTokens: openai.Int(int64(p.opts.MaxTokens)),
	}
	if p.opts.Temperature > 0 {
		params.Temperature = openai.Float(float64(p.opts.Temperature))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", Wrap("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", Malformed("openai", "response had no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
