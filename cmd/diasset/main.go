package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/game-strategy-hq/di-asset-extractor/internal/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	cfgFile string

	mpksDir    string
	outDir     string
	workers    int
	mip        int
	logLevel   string
	logFormat  string
	quiet      bool
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "diasset",
	Short: "Diablo Immortal sprite extraction and search tool",
	Long: `diasset extracts sprite images from Diablo Immortal's MPK resource
archives and answers visual similarity queries over the result.

Extraction reads the archive index and its volumes, decodes the packed
sprite-sheet textures, slices them along their atlas definitions and
writes each sprite as an individual PNG. Search builds a perceptual-hash
index over an extracted sprite directory and ranks sprites by visual
similarity to a query image.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("mpks") {
			cfg.MpksDir = mpksDir
		}
		if cmd.Flags().Changed("out") {
			cfg.OutDir = outDir
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if cmd.Flags().Changed("mip") {
			cfg.Mip = mip
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if cmd.Flags().Changed("quiet") {
			cfg.Quiet = quiet
		}
		if cmd.Flags().Changed("no-progress") {
			cfg.NoProgress = noProgress
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
		if cfg.Quiet {
			level = slog.LevelError
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		logger := slog.New(handler)
		slog.SetDefault(logger)

		slog.Debug("Configuration",
			"mpks_dir", cfg.MpksDir,
			"out_dir", cfg.OutDir,
			"workers", cfg.Workers,
			"mip", cfg.Mip,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is diasset.yaml in pwd)")
	rootCmd.PersistentFlags().StringVarP(&mpksDir, "mpks", "m", "", "directory holding Resources.mpkinfo and its volumes")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "sprite output directory")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "concurrent atlas decoders (0 = number of CPUs)")
	rootCmd.PersistentFlags().IntVar(&mip, "mip", -1, "texture mip slice to decode (-1 = largest)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
