package main

import (
	"fmt"

	"github.com/aretw0/cedar/internal/config"
	"github.com/aretw0/cedar/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Check chart definitions for structural errors",
	Long:  `Reports unknown series sources, colliding dataset names, invalid URLs and legend positions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		files := args
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			files = append([]string{path}, files...)
		}
		if len(files) == 0 {
			return fmt.Errorf("a definition file is required (-f)")
		}

		failed := 0
		for _, path := range files {
			if err := runValidate(path); err != nil {
				failed++
				fmt.Fprintln(cmd.OutOrStdout(), tui.Failure(fmt.Sprintf("%s: %v", path, err)))
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.Success(fmt.Sprintf("%s is valid", path)))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d definitions failed validation", failed, len(files))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addFileFlag(validateCmd)
}

func runValidate(path string) error {
	def, err := config.LoadDefinition(path)
	if err != nil {
		return err
	}
	return def.Validate()
}
