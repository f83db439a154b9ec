package main

import (
	"fmt"
	"strings"

	"github.com/game-strategy-hq/di-asset-extractor/internal/mpk"
	"github.com/game-strategy-hq/di-asset-extractor/internal/utils"
	"github.com/spf13/cobra"
)

var (
	listFilter string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the entries of the MPK archive index",
	Long: `List prints the archive's index entries with their volume, offset and
size, without reading any payload data. Useful for inspecting what an
archive contains before extracting it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := mpk.Open(cfg.MpksDir)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer archive.Close()

		needle := strings.ToLower(listFilter)
		var matched, shown int
		var totalBytes int64
		for _, e := range archive.Index().Entries() {
			if needle != "" && !strings.Contains(strings.ToLower(e.Name), needle) {
				continue
			}
			matched++
			totalBytes += int64(e.Length)
			if listLimit > 0 && shown >= listLimit {
				continue
			}
			fmt.Printf("%-80s vol %2d  offset %10d  %10s bytes\n",
				e.Name, e.Volume, e.Offset, utils.Number(int64(e.Length)))
			shown++
		}

		fmt.Printf("\n%s entries, %s bytes across %d volumes\n",
			utils.Number(int64(matched)), utils.Number(totalBytes), archive.PresentVolumes())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listFilter, "filter", "", "only show entries whose name contains this string")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum entries to print (0 = all)")
}
