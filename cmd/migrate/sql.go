package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var sqlOpts convertOptions

var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Convert an export into a batched SQL INSERT script",
	Long: `Resolves the address columns of every row and renders the rows as
MySQL INSERT statements, batch_size rows per statement, wrapped in a
transaction with foreign key checks disabled.

Examples:
  migrate sql --input customers.csv --output customers.sql --table customers
  migrate sql --input orders.xlsx --profile profiles/orders.yaml --output orders.sql`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := sqlOpts
		opts.Format = formatSQL

		j, err := newJob(opts)
		if err != nil {
			return eris.Wrap(err, "sql")
		}
		if j.table == "" {
			return eris.New("sql: a target table is required (--table or output.table)")
		}

		_, err = convert(cmd.Context(), j, cmd.OutOrStdout())
		return eris.Wrap(err, "sql")
	},
}

func init() {
	addConvertFlags(sqlCmd, &sqlOpts)
	sqlCmd.Flags().StringVar(&sqlOpts.Table, "table", "", "target table (default from config)")
	rootCmd.AddCommand(sqlCmd)
}

func addConvertFlags(cmd *cobra.Command, opts *convertOptions) {
	cmd.Flags().StringVar(&opts.Input, "input", "", "CSV or XLSX export (default from config)")
	cmd.Flags().StringVar(&opts.Output, "output", "", "output file (default from config)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "YAML layout profile of the export")
	cmd.Flags().BoolVar(&opts.Review, "review", false, "queue unresolved rows in the MongoDB review queue")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "rows resolved in parallel (default from config)")
}
