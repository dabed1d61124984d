package llm

import (
	"context"
	"strings"
)

// CompletionProvider produces raw completion text for a code context.
// Implementations must honour ctx cancellation so an aborted request
// releases its connection promptly.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, contextText, modelID string) (string, error)
}

// ModelLister is implemented by providers that can report which models
// they serve.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Options are shared request settings for all adapters.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// DefaultOptions keeps completions short and mostly deterministic.
func DefaultOptions() Options {
	return Options{
		MaxTokens:   256,
		Temperature: 0.2,
	}
}

const systemPrompt = `You are an inline code completion engine embedded in a text editor.
You receive the text before the cursor. Reply with ONLY the text that should be inserted at the cursor.
Do not repeat the given text. Do not use markdown, code fences, HTML, or explanations.
Keep the completion short: finish the current statement or block.`

// SystemPrompt returns the instructions sent with every completion request.
func SystemPrompt() string {
	return systemPrompt
}

// BuildPrompt wraps the editor context for the model.
func BuildPrompt(contextText string) string {
	var sb strings.Builder
	sb.WriteString("Complete the following text at the end marker.\n\n")
	sb.WriteString(contextText)
	sb.WriteString("<|cursor|>")
	return sb.String()
}

func chooseModel(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}
