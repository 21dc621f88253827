package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/cedar"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cedar",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cedar version %s\n", strings.TrimSpace(cedar.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
