package main

import (
	"fmt"

	"github.com/aretw0/cedar/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the datasets, series and shaped data of a chart",
	Long:  `Queries and shapes the data of a definition without rendering it, then prints a markdown summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		chart, err := loadChart(cmd, path)
		if err != nil {
			return err
		}

		results, err := chart.Query(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := chart.UpdateData(results); err != nil {
			return err
		}

		md := tui.DescribeMarkdown(chart.Container(), chart.Definition(), chart.Data())
		out, err := tui.NewRenderer()(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	addFileFlag(describeCmd)
}
