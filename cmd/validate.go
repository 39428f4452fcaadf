package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/canister/internal/animation"
)

// CreateValidateCmd creates the validate command.
func CreateValidateCmd() *cobra.Command {
	var animationDir string
	var soundDir string
	var pixels int

	cmd := &cobra.Command{
		Use:   "validate [animation...]",
		Short: "Validate animation files",
		Long: `Loads animation files the way the service does and reports every file that would be rejected. ` +
			`Without arguments every file in the animation directory is checked.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := animation.NewLoader(animationDir, soundDir, pixels)

			names := args
			if len(names) == 0 {
				var err error
				names, err = loader.List()
				if err != nil {
					return fmt.Errorf("failed to list animations: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, name := range names {
				def, err := loader.Load(name)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", name, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s (%d frames, %s/frame, loops %d)\n", def.Name, len(def.Frames), def.Interval, def.Loops)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d animations failed validation", failed, len(names))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&animationDir, "animations", "animations", "Animation directory")
	cmd.Flags().StringVar(&soundDir, "sounds", "sounds", "Sound directory")
	cmd.Flags().IntVar(&pixels, "pixels", 60, "Strip pixel count")

	return cmd
}
