package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samsaffron/ghostwrite/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ghostwrite configuration",
	Long: `View your ghostwrite configuration.

Examples:
  ghostwrite config                     # show current config
  ghostwrite config path                # print the config file path`,
	RunE: configShow, // Default to show
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  configShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	RunE:  configPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func configShow(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		fmt.Fprintf(out, "# No config file (using defaults)\n")
		fmt.Fprintf(out, "# Create one at: %s\n\n", configPath)
	} else {
		fmt.Fprintf(out, "# %s\n\n", configPath)
	}

	data, err := yaml.Marshal(redactKeys(*cfg))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func configPath(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), configPath)
	return nil
}

// redactKeys masks API keys so the output can be pasted into a bug report.
func redactKeys(cfg config.Config) config.Config {
	cfg.Anthropic.APIKey = maskKey(cfg.Anthropic.APIKey)
	cfg.OpenAI.APIKey = maskKey(cfg.OpenAI.APIKey)
	cfg.Gemini.APIKey = maskKey(cfg.Gemini.APIKey)
	cfg.Ollama.APIKey = maskKey(cfg.Ollama.APIKey)
	return cfg
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
