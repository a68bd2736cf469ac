package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/address-resolver/app/bootstrap"
	"github.com/address-resolver/internal/etl"
	"github.com/address-resolver/internal/masterdata"
)

var (
	validateInput   string
	validateProfile string
	validateStrict  bool
)

// validateReport is printed by the validate command
type validateReport struct {
	MasterVersion string               `json:"master_version"`
	Source        string               `json:"source"`
	Load          masterdata.LoadStats `json:"load"`
	Run           *etl.RunStats        `json:"run,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse the master dump and optionally dry-run an export",
	Long: `Parses the configured master source and reports what was kept and
dropped. With --input the export is resolved row by row without writing
any output, reporting how many rows matched the master list.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		master, stats, err := bootstrap.ParseMaster(cfg.Master, zap.L())
		if err != nil {
			return eris.Wrap(err, "validate")
		}
		report := validateReport{MasterVersion: master.Version(), Source: cfg.Master.Source(), Load: stats}

		if validateStrict && (stats.Malformed > 0 || stats.Dangling > 0) {
			_ = printJSON(cmd.OutOrStdout(), report)
			return eris.Errorf("validate: %d malformed and %d dangling master rows", stats.Malformed, stats.Dangling)
		}

		if validateInput != "" {
			// The dry run never writes, so any output path will do
			j, err := newJob(convertOptions{Input: validateInput, Output: os.DevNull, Profile: validateProfile})
			if err != nil {
				return eris.Wrap(err, "validate")
			}
			table, err := etl.ReadFile(j.input, j.readOpts)
			if err != nil {
				return eris.Wrap(err, "validate: read input")
			}

			p, _, err := bootstrap.NewParser(cfg.Resolver, zap.L())
			if err != nil {
				return eris.Wrap(err, "validate")
			}
			runner := etl.NewRunner(p, master, etl.RunnerConfig{Mapping: j.mapping, Workers: j.workers}, zap.L())
			run, err := runner.Run(ctx, table, etl.NewCSVSink(io.Discard, false))
			if err != nil {
				return eris.Wrap(err, "validate: dry run")
			}
			report.Run = &run
		}

		return printJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateInput, "input", "", "export to dry-run against the master list")
	validateCmd.Flags().StringVar(&validateProfile, "profile", "", "YAML layout profile of the export")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "fail when master rows were malformed or dangling")
	rootCmd.AddCommand(validateCmd)
}
