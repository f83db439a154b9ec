package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/game-strategy-hq/di-asset-extractor/internal/extract"
	"github.com/game-strategy-hq/di-asset-extractor/internal/utils"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract sprite PNGs from the MPK archives",
	Long: `Extract opens the archive index under --mpks, decodes every sprite
atlas it contains and writes the sliced sprites as PNG files into --out.

Atlases that fail to decode are reported and skipped; the run continues
and exits non-zero if anything failed. Interrupting with Ctrl-C stops at
the next atlas boundary, leaving already written sprites intact.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		slog.Info("Starting extraction...", "mpks", cfg.MpksDir, "out", cfg.OutDir)
		start := time.Now()

		runner, err := extract.NewRunner(extract.Options{
			MpksDir: cfg.MpksDir,
			OutDir:  cfg.OutDir,
			Workers: cfg.Workers,
			Mip:     cfg.Mip,
		})
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer runner.Close()

		total := len(runner.Atlases())
		slog.Info("Archive opened", "atlases", total)

		progress := utils.NewProgress(total, !cfg.NoProgress && !cfg.Quiet)
		runner.SetProgress(func(done, _ int, asset string) {
			progress.Update(done, asset)
		})

		stats, err := runner.Run(ctx)
		progress.Finish()
		if err != nil {
			return fmt.Errorf("extraction aborted: %w", err)
		}

		for _, f := range stats.Failures {
			slog.Warn("Extraction failure", "asset", f.Asset, "frame", f.Frame, "error", f.Err)
		}

		elapsed := time.Since(start)
		fmt.Printf("Atlases processed: %s\n", utils.Number(int64(stats.Atlases)))
		fmt.Printf("Sprites written: %s\n", utils.Number(int64(stats.Sprites)))
		fmt.Printf("Failures: %d\n", len(stats.Failures))
		fmt.Printf("Duration: %s\n", utils.Duration(elapsed))
		fmt.Printf("Sprite rate: %s\n", utils.Rate(int64(stats.Sprites), elapsed))

		if len(stats.Failures) > 0 {
			return fmt.Errorf("%d of %d atlases had failures", len(stats.Failures), stats.Atlases)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
