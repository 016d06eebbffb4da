package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/reshape"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of reshape",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reshape version %s\n", strings.TrimSpace(reshape.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
