package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/txtshelf/internal/api"
	"github.com/jackzampolin/txtshelf/internal/config"
	"github.com/jackzampolin/txtshelf/internal/home"
	"github.com/jackzampolin/txtshelf/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool

	printer *api.Printer
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "txtshelf",
	Short: "Infer volume, chapter and section structure from plain-text books",
	Long: `txtshelf turns plain-text novels and books into structured ePub files.

The pipeline:
  - Detects the document language (Chinese or English)
  - Finds and removes a front-matter table of contents
  - Splits the text into volumes, chapters and sections
  - Scores each chapter heading and, optionally, asks a language model
    to arbitrate the uncertain ones
  - Optionally gives number-only chapter headings a descriptive title`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.txtshelf/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "txtshelf home directory (default: ~/.txtshelf)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log progress details to stderr",
	)

	// Set output format and logging before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, err := api.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		printer = &api.Printer{Format: format, W: cmd.OutOrStdout()}

		// Warnings only by default so log lines do not break the progress bar
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// loadConfig reads configuration from --config, the working directory or
// the home directory, in that order.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	mgr.SetLogger(logger)
	if f := mgr.ConfigFile(); f != "" {
		logger.Debug("loaded config", "file", f)
	}
	return mgr, nil
}
