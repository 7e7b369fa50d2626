package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/plumechat/plume/cmd/plume/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "plume",
	Short: "Chat with a hosted generative-text provider",
	Long: `plume - relay chat transcripts to a hosted generative-text provider.

The provider (gemini or openai) is selected by configuration. The config
file lives in the OS config directory:
  macOS:   ~/Library/Application Support/plume/config.yaml
  Linux:   ~/.config/plume/config.yaml
  Windows: %AppData%/plume/config.yaml

Example config:
  provider: gemini
  api_key: $GEMINI_API_KEY
  model: gemini-2.0-flash
  system_prompt: You are a concise assistant.

Examples:
  # One-shot question, reply streamed as it is generated
  plume chat "explain goroutines in one paragraph"

  # Interactive session keeping conversation history
  plume chat

  # Wait for the full reply instead of streaming
  plume chat --complete "summarize this repo"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		// Store error for deferred reporting. Commands that need config
		// will get a clear error via GetConfig(), so commands like
		// 'plume version' still work.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
