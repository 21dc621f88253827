package main

import (
	"fmt"
	"time"

	"github.com/aretw0/cedar/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Query, shape and render a chart",
	Long: `Runs the full pipeline for a definition: remote datasets are queried, the rows are
shaped and the chart is written to the output container. The backend is picked
by extension (.png, .svg or .xlsx).`,
	Example: `  cedar show -f population.yaml -o population.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		chart, err := loadChart(cmd, out)
		if err != nil {
			return err
		}

		start := time.Now()
		if _, err := chart.Show(cmd.Context()); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), tui.Success(fmt.Sprintf("wrote %s", out)),
			tui.Muted(fmt.Sprintf("(%d rows in %s)", len(chart.Data()), time.Since(start).Round(time.Millisecond))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	addFileFlag(showCmd)
	showCmd.Flags().StringP("output", "o", "chart.png", "Output container (.png, .svg or .xlsx)")
}
