package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements CompletionProvider using the Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
	opts   Options
}

// NewAnthropicProvider creates a provider. An empty apiKey falls back to
// ANTHROPIC_API_KEY.
func NewAnthropicProvider(apiKey, model string, opts Options) (*AnthropicProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, NewError(KindAuthentication, "anthropic", fmt.Errorf("API key not configured. Set ANTHROPIC_API_KEY or add to config"))
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	return &AnthropicProvider{client: &client, model: model, opts: opts}, nil
}

func (p *AnthropicProvider) Name() string {
	return fmt.Sprintf("Anthropic (%s)", p.model)
}

func (p *AnthropicProvider) Complete(ctx context.Context, contextText, modelID string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(chooseModel(modelID, p.model)),
		MaxTokens: int64(p.opts.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(contextText))),
		},
	}
	if p.opts.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(p.opts.Temperature))
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", Wrap("anthropic", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 && msg.StopReason != anthropic.StopReasonMaxTokens {
		return "", Malformed("anthropic", "response had no text content (stop_reason=%s)", msg.StopReason)
	}
	return sb.String(), nil
}
