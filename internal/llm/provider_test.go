package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/samsaffron/ghostwrite/internal/config"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"classified passthrough", NewError(KindRateLimit, "x", errors.New("slow down")), KindRateLimit},
		{"wrapped classified", fmt.Errorf("outer: %w", NewError(KindAuthentication, "x", nil)), KindAuthentication},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout},
		{"401 text", errors.New("API error (status 401): bad key"), KindAuthentication},
		{"api key text", errors.New("Error 400, Message: API key not valid. Please pass a valid API key."), KindAuthentication},
		{"429 text", errors.New("status 429: too many requests"), KindRateLimit},
		{"quota text", errors.New("RESOURCE_EXHAUSTED: quota exceeded"), KindRateLimit},
		{"timeout text", errors.New("read tcp: i/o timeout"), KindTimeout},
		{"connection refused", errors.New("dial tcp 127.0.0.1:11434: connect: connection refused"), KindNetwork},
		{"malformed", Malformed("x", "bad json"), KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorKindUserVisible(t *testing.T) {
	visible := map[ErrorKind]bool{
		KindAuthentication:    true,
		KindRateLimit:         true,
		KindTimeout:           false,
		KindNetwork:           false,
		KindMalformedResponse: false,
	}
	for kind, want := range visible {
		if got := kind.UserVisible(); got != want {
			t.Errorf("%v.UserVisible() = %v, want %v", kind, got, want)
		}
	}
}

func TestWrapKeepsCancellation(t *testing.T) {
	if err := Wrap("p", context.Canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wrap(context.Canceled) = %v", err)
	}
	var classified *Error
	if errors.As(Wrap("p", context.Canceled), &classified) {
		t.Fatalf("cancellation should not be classified")
	}
}

func TestStatusError(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "12")
	err := StatusError("Ollama", http.StatusTooManyRequests, h, "busy\n")
	if err.Kind != KindRateLimit {
		t.Fatalf("kind = %v, want rate limit", err.Kind)
	}
	if err.RetryAfter.Seconds() != 12 {
		t.Errorf("RetryAfter = %v, want 12s", err.RetryAfter)
	}
	if !strings.Contains(err.Error(), "status 429") || !strings.Contains(err.Error(), "busy") {
		t.Errorf("Error() = %q", err.Error())
	}

	if got := StatusError("x", http.StatusUnauthorized, nil, "").Kind; got != KindAuthentication {
		t.Errorf("401 kind = %v", got)
	}
	if got := StatusError("x", http.StatusInternalServerError, nil, "").Kind; got != KindNetwork {
		t.Errorf("500 kind = %v", got)
	}
}

func TestBuildPromptEndsAtCursor(t *testing.T) {
	p := BuildPrompt("const ")
	if !strings.HasSuffix(p, "const <|cursor|>") {
		t.Errorf("prompt = %q", p)
	}
}

func TestNewProvider(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := &config.Config{Provider: "debug"}
	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider(debug): %v", err)
	}
	if !strings.HasPrefix(p.Name(), "debug") {
		t.Errorf("Name() = %q", p.Name())
	}

	cfg = &config.Config{Provider: "anthropic"}
	if _, err := NewProvider(cfg); Classify(err) != KindAuthentication {
		t.Errorf("missing key should be an authentication error, got %v", err)
	}

	cfg = &config.Config{Provider: "nope"}
	if _, err := NewProvider(cfg); err == nil {
		t.Error("unknown provider should fail")
	}

	cfg = &config.Config{Provider: "ollama", Ollama: config.OllamaConfig{BaseURL: "http://localhost:11434/v1", Model: "m"}}
	p, err = NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider(ollama): %v", err)
	}
	if p.Name() != "Ollama (m)" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestParseProviderModel(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		model    string
		wantErr  bool
	}{
		{"openai", "openai", "", false},
		{"openai:gpt-4.1-mini", "openai", "gpt-4.1-mini", false},
		{"ollama:qwen2.5-coder:7b", "ollama", "qwen2.5-coder:7b", false},
		{" gemini : flash ", "gemini", "flash", false},
		{":model", "", "", true},
		{"bogus:x", "", "", true},
	}
	for _, tt := range tests {
		provider, model, err := ParseProviderModel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProviderModel(%q) error = %v", tt.in, err)
			continue
		}
		if provider != tt.provider || model != tt.model {
			t.Errorf("ParseProviderModel(%q) = %q, %q", tt.in, provider, model)
		}
	}
}
