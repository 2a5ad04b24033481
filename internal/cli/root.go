package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thruflo/sortvis/internal/config"
	"github.com/thruflo/sortvis/internal/history"
	"github.com/thruflo/sortvis/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	logLevel string
	baseDir  string
)

var rootCmd = &cobra.Command{
	Use:   "sortvis",
	Short: "Step-by-step sorting algorithm visualizer",
	Long: `sortvis runs bubble, selection, insertion, merge and quick sort one
observable step at a time. Runs can be watched in the terminal, served to a
browser, or executed headless and recorded in a local history.

Configuration is read from .sortvis/config.yaml under --dir (default: the
current directory). Use "sortvis init" to create it.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("sortvis version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "dir", "", "directory containing .sortvis (default: current directory)")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logging.SetLevel(level)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// basePath returns --dir or the current directory.
func basePath() (string, error) {
	if baseDir != "" {
		return baseDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}

// loadConfig loads the config under basePath.
func loadConfig() (*config.Config, string, error) {
	base, err := basePath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadConfig(base)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, base, nil
}

// openHistory opens the configured history store, or returns nil when
// history is disabled.
func openHistory(cfg *config.Config, base string) (*history.Store, error) {
	path := cfg.HistoryPath(base)
	if path == "" {
		return nil, nil
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}
