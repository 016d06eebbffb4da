package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reshape",
	Short: "Reshape is a rule-driven YAML record converter",
	Long:  `Reshape converts hierarchical YAML configuration trees using declarative rule files: conditions, context placeholders, sandboxed expressions, and sequence counters.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
