package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the shellos version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("shellos " + defaultVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
