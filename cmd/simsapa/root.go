package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "simsapa",
	Short: "Search Pāli suttas and dictionaries",
	Long: `Searches the suttas and dictionary words of every installed language,
and manages the fulltext indexes they are searched with.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func defaultDataDir() string {
	if dir := os.Getenv("SIMSAPA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "simsapa")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", defaultDataDir(),
		"directory with config.toml, the databases and the indexes")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
}
