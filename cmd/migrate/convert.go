package main

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/address-resolver/internal/etl"
)

// Output formats
const (
	formatCSV  = "csv"
	formatSQL  = "sql"
	formatXLSX = "xlsx"
)

// convertOptions are the flags shared by the sql and extract commands
type convertOptions struct {
	Input   string
	Output  string
	Profile string
	Format  string
	Table   string
	Review  bool
	Workers int
}

// job is a conversion with config, profile and flags merged
type job struct {
	input    string
	output   string
	format   string
	table    string
	columns  []etl.SQLColumn
	mapping  etl.Mapping
	readOpts etl.ReadOptions
	workers  int
	review   bool
}

func newJob(opts convertOptions) (*job, error) {
	j := &job{
		input:    firstNonEmpty(opts.Input, cfg.Input.Path),
		output:   firstNonEmpty(opts.Output, cfg.Output.Path),
		table:    firstNonEmpty(opts.Table, cfg.Output.Table),
		columns:  cfg.Output.Columns,
		mapping:  cfg.Input.Columns,
		readOpts: cfg.Input.ReadOptions(),
		workers:  cfg.Resolver.Workers,
		review:   opts.Review || cfg.Output.Review,
	}
	if opts.Workers > 0 {
		j.workers = opts.Workers
	}

	if opts.Profile != "" {
		p, err := etl.LoadProfile(opts.Profile)
		if err != nil {
			return nil, err
		}
		j.mapping = p.Columns
		j.readOpts = p.ReadOptions()
		if p.Table != "" && opts.Table == "" {
			j.table = p.Table
		}
		if len(p.Output) > 0 {
			j.columns = p.Output
		}
	}

	if j.input == "" {
		return nil, eris.New("an input file is required (--input or input.path)")
	}
	if j.output == "" {
		return nil, eris.New("an output file is required (--output or output.path)")
	}
	if filepath.Clean(j.input) == filepath.Clean(j.output) {
		return nil, eris.New("output must not overwrite the input")
	}

	j.format = outputFormat(opts.Format, j.output, cfg.Output.Format)
	return j, nil
}

// outputFormat prefers the explicit format, then the output extension,
// then the configured default
func outputFormat(explicit, path, fallback string) string {
	if explicit != "" {
		return strings.ToLower(explicit)
	}
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case formatCSV, formatSQL, formatXLSX:
		return ext
	}
	if fallback == "" {
		return formatCSV
	}
	return strings.ToLower(fallback)
}

// newSink creates the writer for format on top of an atomic output file
func newSink(format string, out *etl.AtomicFile, table string, columns []etl.SQLColumn) (etl.Sink, error) {
	switch format {
	case formatCSV:
		return etl.NewCSVSink(out, cfg.Output.BOM), nil
	case formatSQL:
		return etl.NewSQLSink(out, table, columns, cfg.Output.BatchSize), nil
	case formatXLSX:
		return etl.NewXLSXSink(out.TempPath(), cfg.Output.Sheet), nil
	default:
		return nil, eris.Errorf("unknown output format %q", format)
	}
}

// convert reads the input, resolves every row and writes the output. The
// output file only appears once the whole run succeeded.
func convert(ctx context.Context, j *job, stdout io.Writer) (etl.RunStats, error) {
	table, err := etl.ReadFile(j.input, j.readOpts)
	if err != nil {
		return etl.RunStats{}, eris.Wrap(err, "read input")
	}
	zap.L().Info("input loaded", zap.String("path", j.input), zap.Int("rows", len(table.Rows)))

	env, err := initEnv(ctx, j.review)
	if err != nil {
		return etl.RunStats{}, err
	}
	defer env.Close(context.WithoutCancel(ctx))

	out, err := etl.CreateAtomic(j.output)
	if err != nil {
		return etl.RunStats{}, err
	}
	defer out.Abort()

	sink, err := newSink(j.format, out, j.table, j.columns)
	if err != nil {
		return etl.RunStats{}, err
	}

	runner := etl.NewRunner(env.Parser, env.Master, etl.RunnerConfig{
		Mapping:    j.mapping,
		Workers:    j.workers,
		OnFallback: env.onFallback(filepath.Base(j.input)),
	}, zap.L())

	stats, err := runner.Run(ctx, table, sink)
	if err != nil {
		return stats, eris.Wrap(err, "run")
	}
	if err := out.Commit(); err != nil {
		return stats, err
	}

	zap.L().Info("output written",
		zap.String("path", j.output),
		zap.String("format", j.format),
		zap.String("run_id", env.RunID))
	return stats, printJSON(stdout, stats)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "print")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
