package cmd

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samsaffron/ghostwrite/internal/cache"
	"github.com/samsaffron/ghostwrite/internal/config"
	"github.com/samsaffron/ghostwrite/internal/llm"
)

// listModelsTimeout bounds the model lookup done during shell completion.
const listModelsTimeout = 2 * time.Second

// AddProviderFlag adds the --provider/-p flag with completion
func AddProviderFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVarP(dest, "provider", "p", "", "Override provider, optionally with model (e.g., openai:gpt-4.1-mini)")
	if err := cmd.RegisterFlagCompletionFunc("provider", ProviderFlagCompletion); err != nil {
		panic("failed to register provider completion: " + err.Error())
	}
}

// AddModelFlag adds the --model/-m flag with completion
func AddModelFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVarP(dest, "model", "m", "", "Override the completion model")
	if err := cmd.RegisterFlagCompletionFunc("model", ModelFlagCompletion); err != nil {
		panic("failed to register model completion: " + err.Error())
	}
}

// ProviderFlagCompletion handles --provider flag completion
func ProviderFlagCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if provider, partial, ok := strings.Cut(toComplete, ":"); ok {
		var completions []string
		for _, id := range completionModels(cmd, provider) {
			if strings.HasPrefix(id, partial) {
				completions = append(completions, provider+":"+id)
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, name := range llm.ProviderNames() {
		if strings.HasPrefix(name, toComplete) {
			completions = append(completions, name)
		}
	}
	// No space so the user can go on typing ":model"
	return completions, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// ModelFlagCompletion offers the models of the selected provider when the
// provider can list them.
func ModelFlagCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	provider := ""
	if f := cmd.Flags().Lookup("provider"); f != nil && f.Value.String() != "" {
		if p, _, err := llm.ParseProviderModel(f.Value.String()); err == nil {
			provider = p
		}
	}

	var completions []string
	for _, id := range completionModels(cmd, provider) {
		if strings.HasPrefix(id, toComplete) {
			completions = append(completions, id)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completionModels resolves provider (empty means the configured one) and
// returns its model ids. Only the Ollama server is asked; hosted providers
// have no cheap model listing.
func completionModels(cmd *cobra.Command, provider string) []string {
	cfg, err := config.Load()
	if err != nil {
		return nil
	}
	if provider == "" {
		provider = cfg.Provider
	}
	if provider != "ollama" || cfg.Ollama.BaseURL == "" {
		return nil
	}

	dir, err := cache.Dir()
	if err != nil {
		dir = ""
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	lister := llm.NewOpenAICompatProvider(cfg.Ollama.BaseURL, cfg.Ollama.APIKey, cfg.Ollama.Model, "Ollama", llm.DefaultOptions())
	return cachedModels(ctx, dir, provider, cfg.Ollama.BaseURL, lister, time.Now())
}

// cachedModels returns the cached model list for baseURL when it is fresh,
// otherwise asks lister and refreshes the cache. An empty dir skips the
// cache.
func cachedModels(ctx context.Context, dir, provider, baseURL string, lister llm.ModelLister, now time.Time) []string {
	if dir != "" {
		if m, err := cache.ReadModels(dir, provider); err == nil && m.Fresh(baseURL, now) {
			return m.IDs
		}
	}

	ctx, cancel := context.WithTimeout(ctx, listModelsTimeout)
	defer cancel()
	ids, err := lister.ListModels(ctx)
	if err != nil {
		slog.Debug("model listing failed", "provider", provider, "error", err)
		return nil
	}
	if dir != "" {
		if err := cache.WriteModels(dir, provider, cache.Models{BaseURL: baseURL, IDs: ids, FetchedAt: now}); err != nil {
			slog.Debug("model cache write failed", "error", err)
		}
	}
	return ids
}

// applyProviderFlags folds --provider and --model into cfg. The model flag
// wins over a model given with the provider.
func applyProviderFlags(cfg *config.Config, providerFlag, modelFlag string) error {
	provider, model := "", ""
	if providerFlag != "" {
		var err error
		if provider, model, err = llm.ParseProviderModel(providerFlag); err != nil {
			return err
		}
	}
	if modelFlag != "" {
		model = modelFlag
	}
	cfg.ApplyOverrides(provider, model)
	return nil
}
