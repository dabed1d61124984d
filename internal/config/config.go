package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	Provider   string           `mapstructure:"provider" yaml:"provider"`
	Completion CompletionConfig `mapstructure:"completion" yaml:"completion"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic" yaml:"anthropic"`
	OpenAI     OpenAIConfig     `mapstructure:"openai" yaml:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini" yaml:"gemini"`
	Ollama     OllamaConfig     `mapstructure:"ollama" yaml:"ollama"`
	Debug      DebugConfig      `mapstructure:"debug" yaml:"debug"`
	Theme      ThemeConfig      `mapstructure:"theme" yaml:"theme"`
	Stats      StatsConfig      `mapstructure:"stats" yaml:"stats"`
}

// CompletionConfig holds the inline completion knobs.
type CompletionConfig struct {
	Model           string `mapstructure:"model" yaml:"model"` // Empty means the provider's model
	DebounceMS      int    `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	MaxContextLines int    `mapstructure:"max_context_lines" yaml:"max_context_lines"`
	MaxContextChars int    `mapstructure:"max_context_chars" yaml:"max_context_chars"`
	CacheCapacity   int    `mapstructure:"cache_capacity" yaml:"cache_capacity"`
	TimeoutMS       int    `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	MaxTokens       int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// Debounce returns the debounce interval.
func (c CompletionConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Timeout returns the per-request provider timeout.
func (c CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

const (
	DefaultDebounceMS      = 350
	DefaultMaxContextLines = 50
	DefaultMaxContextChars = 800
	DefaultCacheCapacity   = 50
	DefaultTimeoutMS       = 9000
	DefaultMaxTokens       = 256
)

// Validate clamps out-of-range values back into supported ranges and
// replaces non-positive values with defaults.
func (c *CompletionConfig) Validate() {
	if c.DebounceMS <= 0 {
		c.DebounceMS = DefaultDebounceMS
	}
	c.DebounceMS = clamp(c.DebounceMS, 50, 2000)

	if c.MaxContextLines <= 0 {
		c.MaxContextLines = DefaultMaxContextLines
	}
	if c.MaxContextChars <= 0 {
		c.MaxContextChars = DefaultMaxContextChars
	}
	if c.CacheCapacity <= 0 {
		c.CacheCapacity = DefaultCacheCapacity
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = DefaultTimeoutMS
	}
	c.TimeoutMS = clamp(c.TimeoutMS, 500, 60000)
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model  string `mapstructure:"model" yaml:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model  string `mapstructure:"model" yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model  string `mapstructure:"model" yaml:"model"`
}

// OllamaConfig configures an OpenAI-compatible local server
type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"` // Default: http://localhost:11434/v1
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"` // Optional, Ollama ignores it
}

// DebugConfig controls the JSONL request trace
type DebugConfig struct {
	TraceDir string `mapstructure:"trace_dir" yaml:"trace_dir,omitempty"` // Empty disables tracing
	Variant  string `mapstructure:"variant" yaml:"variant,omitempty"`     // Latency preset for the debug provider
}

// ThemeConfig allows customization of the editor and ghost text colors
type ThemeConfig struct {
	Ghost       string `mapstructure:"ghost" yaml:"ghost"`               // ghost text foreground
	Status      string `mapstructure:"status" yaml:"status"`             // status line foreground
	Error       string `mapstructure:"error" yaml:"error"`               // notification color
	ChromaStyle string `mapstructure:"chroma_style" yaml:"chroma_style"` // syntax highlighting style name
}

// StatsConfig controls the suggestion outcome database
type StatsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path,omitempty"` // Override default database path
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "anthropic")
	v.SetDefault("completion.debounce_ms", DefaultDebounceMS)
	v.SetDefault("completion.max_context_lines", DefaultMaxContextLines)
	v.SetDefault("completion.max_context_chars", DefaultMaxContextChars)
	v.SetDefault("completion.cache_capacity", DefaultCacheCapacity)
	v.SetDefault("completion.timeout_ms", DefaultTimeoutMS)
	v.SetDefault("completion.max_tokens", DefaultMaxTokens)
	v.SetDefault("anthropic.model", "claude-haiku-4-5")
	v.SetDefault("openai.model", "gpt-4.1-mini")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("ollama.base_url", "http://localhost:11434/v1")
	v.SetDefault("ollama.model", "qwen2.5-coder:7b")
	v.SetDefault("debug.variant", "normal")
	v.SetDefault("theme.ghost", "#7c6f64")
	v.SetDefault("theme.status", "#928374")
	v.SetDefault("theme.error", "#fb4934")
	v.SetDefault("theme.chroma_style", "monokai")
	v.SetDefault("stats.enabled", true)
}

// Load reads the config file from the XDG config directory (or the current
// directory). A missing file is not an error.
func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("GHOSTWRITE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return load(viper.GetViper())
}

// LoadFile reads config from an explicit path using a private viper instance.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// Read config file (optional - won't error if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Completion.Validate()
	resolveCredentials(&cfg)
	return &cfg, nil
}

// Watch reloads the global config whenever the file changes and hands the
// new value to fn. Reload errors are passed through so the caller can keep
// the previous config. It returns false when Load found no file to watch.
func Watch(fn func(*Config, error)) bool {
	if viper.ConfigFileUsed() == "" {
		return false
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		var cfg Config
		if err := viper.Unmarshal(&cfg); err != nil {
			fn(nil, fmt.Errorf("failed to unmarshal config: %w", err))
			return
		}
		cfg.Completion.Validate()
		resolveCredentials(&cfg)
		fn(&cfg, nil)
	})
	viper.WatchConfig()
	return true
}

// ApplyOverrides applies provider and model overrides to the config.
// If provider is non-empty, it overrides the global provider.
// If model is non-empty, it overrides the completion model.
func (c *Config) ApplyOverrides(provider, model string) {
	if provider != "" {
		c.Provider = provider
	}
	if model != "" {
		c.Completion.Model = model
	}
}

// ActiveModel returns the model id used for completion requests.
func (c *Config) ActiveModel() string {
	if c.Completion.Model != "" {
		return c.Completion.Model
	}
	switch c.Provider {
	case "anthropic":
		return c.Anthropic.Model
	case "openai":
		return c.OpenAI.Model
	case "gemini":
		return c.Gemini.Model
	case "ollama":
		return c.Ollama.Model
	}
	return ""
}

func resolveCredentials(cfg *Config) {
	cfg.Anthropic.APIKey = envOr(cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	cfg.OpenAI.APIKey = envOr(cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	cfg.Gemini.APIKey = envOr(cfg.Gemini.APIKey, "GEMINI_API_KEY")
	cfg.Ollama.APIKey = envOr(cfg.Ollama.APIKey, "OLLAMA_API_KEY")
	cfg.Ollama.BaseURL = expandEnv(cfg.Ollama.BaseURL)
	cfg.Debug.TraceDir = expandHome(expandEnv(cfg.Debug.TraceDir))
	cfg.Stats.Path = expandHome(expandEnv(cfg.Stats.Path))
}

func envOr(value, envVar string) string {
	value = expandEnv(value)
	if value == "" {
		value = os.Getenv(envVar)
	}
	return value
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// GetConfigDir returns the XDG config directory for ghostwrite.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "ghostwrite"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "ghostwrite"), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetDataDir returns the XDG data directory for ghostwrite.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share
func GetDataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "ghostwrite"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", "ghostwrite"), nil
}
