package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run the remote dataset queries and print the raw results",
	Long:  `Dispatches every remote dataset of the definition and prints the responses as JSON, keyed by dataset name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		chart, err := loadChart(cmd, "query")
		if err != nil {
			return err
		}

		results, err := chart.Query(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	addFileFlag(queryCmd)
}
