package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/loaves"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of loaves",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("loaves version %s\n", strings.TrimSpace(loaves.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
