package main

import (
	"fmt"
	"os"

	"github.com/aretw0/reshape/internal/cli"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert record files with a rules file",
	Long: `Converts one file, or with --batch every .yml/.yaml file under a
directory, applying the given rules file. Sequence counters restart for
each file; use --sequence-start to seed them from the command line.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.ConvertOptions{}
		opts.InputPath, _ = cmd.Flags().GetString("input")
		opts.RulesPath, _ = cmd.Flags().GetString("rules")
		opts.OutputPath, _ = cmd.Flags().GetString("output")
		opts.Batch, _ = cmd.Flags().GetBool("batch")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.SequenceStarts, _ = cmd.Flags().GetStringArray("sequence-start")

		if err := cli.ExecuteConvert(cmd.Context(), opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("input", "i", "", "Input file, or directory of files")
	convertCmd.Flags().StringP("rules", "r", "", "Rules file path")
	convertCmd.Flags().StringP("output", "o", "", "Output file (single) or directory (batch)")
	convertCmd.Flags().Bool("batch", false, "Convert every file under the input directory")
	convertCmd.Flags().Bool("debug", false, "Enable debug logging")
	convertCmd.Flags().StringArray("sequence-start", nil, "Override a sequence start, format key:value (repeatable)")
	convertCmd.MarkFlagRequired("rules")
}
