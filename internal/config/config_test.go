package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyOverrides(t *testing.T) {
	cfg := &Config{
		Provider:  "anthropic",
		Anthropic: AnthropicConfig{Model: "claude-haiku-4-5"},
		OpenAI:    OpenAIConfig{Model: "gpt-4.1-mini"},
	}

	cfg.ApplyOverrides("openai", "")
	if cfg.Provider != "openai" {
		t.Fatalf("provider=%q, want %q", cfg.Provider, "openai")
	}
	if got := cfg.ActiveModel(); got != "gpt-4.1-mini" {
		t.Fatalf("ActiveModel()=%q, want %q", got, "gpt-4.1-mini")
	}

	cfg.ApplyOverrides("", "gpt-4o")
	if cfg.Provider != "openai" {
		t.Fatalf("provider changed unexpectedly: %q", cfg.Provider)
	}
	if got := cfg.ActiveModel(); got != "gpt-4o" {
		t.Fatalf("ActiveModel()=%q, want %q", got, "gpt-4o")
	}
	if cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Fatalf("openai model changed unexpectedly: %q", cfg.OpenAI.Model)
	}
}

func TestCompletionValidate(t *testing.T) {
	tests := []struct {
		name string
		in   CompletionConfig
		want CompletionConfig
	}{
		{
			name: "zero values get defaults",
			in:   CompletionConfig{},
			want: CompletionConfig{
				DebounceMS:      DefaultDebounceMS,
				MaxContextLines: DefaultMaxContextLines,
				MaxContextChars: DefaultMaxContextChars,
				CacheCapacity:   DefaultCacheCapacity,
				TimeoutMS:       DefaultTimeoutMS,
				MaxTokens:       DefaultMaxTokens,
			},
		},
		{
			name: "out of range values are clamped",
			in:   CompletionConfig{DebounceMS: 10, TimeoutMS: 120000, MaxContextLines: 5, MaxContextChars: 100, CacheCapacity: 3, MaxTokens: 64},
			want: CompletionConfig{DebounceMS: 50, TimeoutMS: 60000, MaxContextLines: 5, MaxContextChars: 100, CacheCapacity: 3, MaxTokens: 64},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.Validate()
			if got != tt.want {
				t.Errorf("Validate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `provider: ollama
completion:
  debounce_ms: 300
  cache_capacity: 10
ollama:
  model: codellama
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Provider != "ollama" {
		t.Errorf("provider=%q, want ollama", cfg.Provider)
	}
	if cfg.Completion.Debounce() != 300*time.Millisecond {
		t.Errorf("debounce=%v, want 300ms", cfg.Completion.Debounce())
	}
	if cfg.Completion.CacheCapacity != 10 {
		t.Errorf("cache capacity=%d, want 10", cfg.Completion.CacheCapacity)
	}
	if cfg.Completion.MaxContextChars != DefaultMaxContextChars {
		t.Errorf("max context chars=%d, want default %d", cfg.Completion.MaxContextChars, DefaultMaxContextChars)
	}
	if cfg.Completion.Timeout() != DefaultTimeoutMS*time.Millisecond {
		t.Errorf("timeout=%v, want default", cfg.Completion.Timeout())
	}
	if cfg.ActiveModel() != "codellama" {
		t.Errorf("ActiveModel()=%q, want codellama", cfg.ActiveModel())
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("base url=%q", cfg.Ollama.BaseURL)
	}
}

func TestLoadFileExpandsEnv(t *testing.T) {
	t.Setenv("GW_TEST_KEY", "sk-test")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("openai:\n  api_key: ${GW_TEST_KEY}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("api key=%q, want sk-test", cfg.OpenAI.APIKey)
	}
}

func TestGetConfigDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := GetConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/xdg/ghostwrite" {
		t.Errorf("GetConfigDir()=%q", dir)
	}
}
