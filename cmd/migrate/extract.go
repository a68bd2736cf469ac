package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var extractOpts convertOptions

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Rewrite an export with resolved address columns",
	Long: `Resolves the address columns of every row and writes the export back
as CSV or XLSX. Resolved values replace the mapped columns in place; every
other column is copied unchanged. Address parts the input has no column
for are appended.

Examples:
  migrate extract --input customers.csv --output customers_clean.csv
  migrate extract --input orders.xlsx --output orders_clean.xlsx --review`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		j, err := newJob(extractOpts)
		if err != nil {
			return eris.Wrap(err, "extract")
		}
		if j.format != formatCSV && j.format != formatXLSX {
			return eris.Errorf("extract: format must be csv or xlsx, got %q", j.format)
		}

		_, err = convert(cmd.Context(), j, cmd.OutOrStdout())
		return eris.Wrap(err, "extract")
	},
}

func init() {
	addConvertFlags(extractCmd, &extractOpts)
	extractCmd.Flags().StringVar(&extractOpts.Format, "format", "", "csv or xlsx (default from the output extension)")
	rootCmd.AddCommand(extractCmd)
}
