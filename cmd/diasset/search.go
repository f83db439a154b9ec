package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/game-strategy-hq/di-asset-extractor/internal/search"
	"github.com/spf13/cobra"
)

var (
	spritesDir string
	topK       int
	rebuild    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query-image>",
	Short: "Find extracted sprites visually similar to an image",
	Long: `Search ranks the sprites in --sprites by visual similarity to the
query image and copies the best matches into a search-results directory
next to them, prefixed by rank (01_name.png is the best match).

The similarity index is stored inside the sprite directory and reused
across runs; it is rebuilt automatically when the directory's contents
change, or on demand with --rebuild. Query images may be PNG, JPEG, GIF,
BMP or WebP.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dir := spritesDir
		if dir == "" {
			dir = cfg.OutDir
		}
		k := topK
		if k <= 0 {
			k = cfg.TopK
		}

		query, err := search.LoadImage(args[0])
		if err != nil {
			return err
		}

		ix, err := search.EnsureFresh(ctx, dir, rebuild)
		if err != nil {
			return fmt.Errorf("preparing sprite index: %w", err)
		}
		slog.Info("Sprite index ready", "sprites", ix.Len())
		if ix.Len() == 0 {
			return fmt.Errorf("no sprites in %s; run extract first", dir)
		}

		matches, err := ix.Search(query, k)
		if err != nil {
			return err
		}

		resultsDir := filepath.Join(dir, search.ResultsDirName)
		if err := search.WriteResults(dir, resultsDir, matches); err != nil {
			return err
		}

		fmt.Printf("Top %d matches for %s:\n", len(matches), args[0])
		for i, m := range matches {
			fmt.Printf("  %2d. %-40s distance %d\n", i+1, m.Name, m.Distance)
		}
		fmt.Printf("Copies written to %s\n", resultsDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&spritesDir, "sprites", "", "extracted sprite directory (default: the configured out dir)")
	searchCmd.Flags().IntVar(&topK, "top", 0, "number of matches to return (default: configured top_k)")
	searchCmd.Flags().BoolVar(&rebuild, "rebuild", false, "rebuild the similarity index even if fresh")
}
