package main

import (
	"fmt"
	"os"

	"github.com/aretw0/reshape/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a rules file for structural problems",
	Long:  `Validates a rules file against the document schema and reports every structural problem it finds.`,
	Run: func(cmd *cobra.Command, args []string) {
		rulesPath, _ := cmd.Flags().GetString("rules")
		if err := cli.ExecuteValidate(rulesPath); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("rules", "r", "", "Rules file path")
	validateCmd.MarkFlagRequired("rules")
}
