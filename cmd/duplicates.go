package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-dedup/internal/config"
	"github.com/kozaktomas/photo-dedup/internal/engine"
	"github.com/kozaktomas/photo-dedup/internal/planner"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates [directories...]",
	Short: "Find duplicate photos across directories",
	Long: `Scan one or more directories for duplicate photos using MD5 digests
and perceptual hashes (pHash, dHash, wHash). By default only reports what
it finds; pass --apply move or --apply delete to act on the duplicates.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDuplicates,
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)

	duplicatesCmd.Flags().Int("hash-threshold", 0, "Max Hamming distance for a perceptual hash match (0 = default)")
	duplicatesCmd.Flags().Float64("similarity", 0, "Fraction of hash algorithms that must agree (0 = default)")
	duplicatesCmd.Flags().Int("workers", 0, "Parallel workers (0 = default)")
	duplicatesCmd.Flags().String("apply", "", "Act on duplicates: \"move\" or \"delete\"")
	duplicatesCmd.Flags().Bool("quiet", false, "Suppress the progress bar")
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	eng := engine.New(cfg, nil)

	opts := engine.Options{
		SourceDirs: args,
		Thresholds: engine.Thresholds{
			Hash:       mustGetInt(cmd, "hash-threshold"),
			Similarity: mustGetFloat64(cmd, "similarity"),
		},
		Workers:      mustGetInt(cmd, "workers"),
		ShowProgress: !mustGetBool(cmd, "quiet"),
	}

	apply := mustGetString(cmd, "apply")
	if apply != "" && apply != string(planner.ActionMove) && apply != string(planner.ActionDelete) {
		return fmt.Errorf("--apply must be \"move\" or \"delete\", got %q", apply)
	}
	if apply != "" {
		result, err := eng.ApplyDuplicateAction(cmd.Context(), opts, planner.Action(apply))
		if err != nil {
			return err
		}
		fmt.Printf("Applied %q to %d duplicates, %s reclaimed\n",
			result.Action, result.Count, formatBytes(result.SpaceSaved))
		printErrors(result.Errors)
		return nil
	}

	result, err := eng.FindDuplicates(cmd.Context(), opts)
	if err != nil {
		return err
	}

	for i, g := range result.DuplicateGroups {
		fmt.Printf("Group %d (%s):\n", i+1, g.Type)
		fmt.Printf("  keep   %s\n", g.KeepPath)
		for _, p := range g.DeletePaths {
			fmt.Printf("  drop   %s\n", p)
		}
	}
	fmt.Printf("\n%d images scanned, %d duplicates in %d groups, %s reclaimable\n",
		result.TotalImages, result.DuplicatesFound, len(result.DuplicateGroups),
		formatBytes(result.SpaceSaved))
	printErrors(result.Errors)
	return nil
}

func printErrors(errs []string) {
	for _, e := range errs {
		fmt.Printf("Warning: %s\n", e)
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
