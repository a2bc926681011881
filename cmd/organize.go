package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-dedup/internal/config"
	"github.com/kozaktomas/photo-dedup/internal/engine"
	"github.com/kozaktomas/photo-dedup/internal/faces"
)

var organizeCmd = &cobra.Command{
	Use:   "organize [directories...]",
	Short: "Organize photos into per-person folders",
	Long: `Detect faces in every photo through the configured face engine and
copy each image into a folder per recognized person. Images with faces of
several people land in "multiple_persons", images without any face in
"no_person". Originals are never modified.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOrganize,
}

func init() {
	rootCmd.AddCommand(organizeCmd)

	organizeCmd.Flags().String("output", "", "Output directory for the organized layout (required)")
	organizeCmd.Flags().Float64("tolerance", 0, "Max embedding distance for the same person (0 = default)")
	organizeCmd.Flags().String("detector", "accurate", "Face detector model: \"accurate\" or \"fast\"")
	organizeCmd.Flags().Bool("refine", false, "Run the offline cluster merge pass after scanning")
	organizeCmd.Flags().Int("workers", 0, "Parallel workers (0 = default)")
	organizeCmd.Flags().Bool("quiet", false, "Suppress the progress bar")

	_ = organizeCmd.MarkFlagRequired("output")
}

func runOrganize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	eng := engine.New(cfg, func(mode faces.Mode) faces.Detector {
		return faces.NewClient(cfg.FaceEngine.URL, mode)
	})

	opts := engine.Options{
		SourceDirs: args,
		Thresholds: engine.Thresholds{
			Tolerance: mustGetFloat64(cmd, "tolerance"),
		},
		Workers:      mustGetInt(cmd, "workers"),
		Detector:     faces.Mode(mustGetString(cmd, "detector")),
		Refine:       mustGetBool(cmd, "refine"),
		ShowProgress: !mustGetBool(cmd, "quiet"),
	}

	result, err := eng.OrganizeByPerson(cmd.Context(), opts, mustGetString(cmd, "output"))
	if err != nil {
		return err
	}

	fmt.Printf("%d images organized into %d person folders\n",
		result.ImagesProcessed, result.PersonFolders)
	fmt.Printf("  faces detected:   %d\n", result.FacesDetected)
	fmt.Printf("  multiple persons: %d\n", result.MultiplePersons)
	fmt.Printf("  no faces:         %d\n", result.NoFaces)
	printErrors(result.Errors)
	return nil
}
