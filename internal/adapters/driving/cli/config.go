package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change chatclean settings. Values persist to the TOML
configuration file; flags on the process command override them per run.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Keys use dot notation, for example:

  chatclean config set llm.backend openai
  chatclean config set llm.model gpt-4o-mini
  chatclean config set pipeline.workers 8
  chatclean config set pipeline.merge_threshold 0.9`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// knownKeys lists the settings config show reports, in display order.
var knownKeys = []string{
	driven.ConfigLLMBackend,
	driven.ConfigLLMModel,
	driven.ConfigLLMBaseURL,
	driven.ConfigLLMAPIKey,
	driven.ConfigLLMSlots,
	driven.ConfigLLMRateLimit,
	driven.ConfigPipelineWorkers,
	driven.ConfigChunkMinSize,
	driven.ConfigChunkMaxSize,
	driven.ConfigChunkOverlap,
	driven.ConfigMergeThreshold,
	driven.ConfigCacheDir,
	driven.ConfigOutputDir,
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := requireConfigured(); err != nil {
		return err
	}

	cmd.Printf("Configuration (%s)\n", configStore.Path())
	cmd.Println()

	section := ""
	for _, key := range knownKeys {
		if s := strings.SplitN(key, ".", 2)[0]; s != section {
			if section != "" {
				cmd.Println()
			}
			section = s
			cmd.Printf("[%s]\n", section)
		}

		value, ok := configStore.Get(key)
		display := "(not set)"
		if ok {
			display = fmt.Sprintf("%v", value)
			if key == driven.ConfigLLMAPIKey {
				display = maskAPIKey(display)
			}
		}
		cmd.Printf("  %s = %s\n", key, display)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if err := requireConfigured(); err != nil {
		return err
	}

	value, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key %s is not set", args[0])
	}
	cmd.Printf("%v\n", value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := requireConfigured(); err != nil {
		return err
	}

	key, raw := args[0], args[1]
	if err := configStore.Set(key, parseConfigValue(raw)); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

// parseConfigValue keeps numeric and boolean values typed in the TOML file
// instead of stringifying everything.
func parseConfigValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

// maskAPIKey hides all but the edges of a key for display.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
