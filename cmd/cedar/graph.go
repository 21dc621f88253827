package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/cedar/internal/presentation/graph"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the data flow of a chart as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph LR) from datasets through series into the chart.
With --query the remote datasets are fetched and annotated with the outcome.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		chart, err := loadChart(cmd, path)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if run, _ := cmd.Flags().GetBool("query"); run {
			results, err := chart.Query(cmd.Context())
			overlay = &graph.Overlay{Results: results}
			var qe *domain.QueryError
			if errors.As(err, &qe) {
				overlay.Failed = []string{qe.Key}
			} else if err != nil {
				return err
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(chart.Definition(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addFileFlag(graphCmd)
	graphCmd.Flags().Bool("query", false, "Query remote datasets and overlay the results")
}
