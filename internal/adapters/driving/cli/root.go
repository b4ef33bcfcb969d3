// Package cli implements the chatclean command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swimanni/chat-cleaner/internal/adapters/driven/storage/sqlite"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
	"github.com/swimanni/chat-cleaner/internal/logger"
)

// version is the build version, overridable at link time.
var version = "0.1.0"

// Injected services. main wires the stores; the process command builds the
// pipeline per run from configuration and flags. Tests swap these for mocks.
var (
	configStore driven.ConfigStore
	promptStore driven.PromptStore

	// buildLLM constructs the inference backend for a run.
	buildLLM = defaultBuildLLM

	// openCache opens the result cache. An empty dir selects the default
	// location under the user's home directory.
	openCache = func(dir string) (driven.ResultCache, error) {
		return sqlite.NewStore(dir)
	}
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "chatclean",
	Short: "Clean raw chat transcripts into structured conversation records",
	Long: `chatclean converts messy chat transcript exports (CSV, plain text, PDF)
into clean per-conversation CSV files with one row per message:
time, speaker, role, message.

Parsing runs through a local or hosted LLM backend with schema-constrained,
zero-temperature decoding. Results are cached by content fingerprint, so
re-running over the same inputs never repeats inference.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging to stderr")
}

// SetConfigStore injects the configuration store.
func SetConfigStore(store driven.ConfigStore) {
	configStore = store
}

// SetPromptStore injects the prompt store.
func SetPromptStore(store driven.PromptStore) {
	promptStore = store
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// configString reads a config key, falling back when unset.
func configString(key, fallback string) string {
	if configStore == nil {
		return fallback
	}
	if v := configStore.GetString(key); v != "" {
		return v
	}
	return fallback
}

// configInt reads an integer config key, falling back when unset or zero.
func configInt(key string, fallback int) int {
	if configStore == nil {
		return fallback
	}
	if v := configStore.GetInt(key); v != 0 {
		return v
	}
	return fallback
}

// configFloat reads a numeric config key, falling back when unset or zero.
func configFloat(key string, fallback float64) float64 {
	if configStore == nil {
		return fallback
	}
	if v := configStore.GetFloat(key); v != 0 {
		return v
	}
	return fallback
}

// requireConfigured returns an error naming the missing wiring. Commands
// call it instead of panicking on a nil store.
func requireConfigured() error {
	if configStore == nil {
		return fmt.Errorf("configuration store not configured")
	}
	return nil
}
