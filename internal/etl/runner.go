package etl

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/internal/parser"
)

// ErrMalformedRow marks a row that is skipped and counted
var ErrMalformedRow = eris.New("etl: malformed row")

// FallbackFunc is called, in input order, for every written row the
// resolver could not back with a master record. line is the 1-based line
// in the input file.
type FallbackFunc func(ctx context.Context, line int, in models.RawGeoInput, res models.ResolvedAddress)

// RunnerConfig configures a Runner
type RunnerConfig struct {
	Mapping    Mapping
	Workers    int
	OnFallback FallbackFunc
}

// RunStats summarises one run
type RunStats struct {
	Rows       int                     `json:"rows"`
	Written    int                     `json:"written"`
	Matched    int                     `json:"matched"`
	Fallback   int                     `json:"fallback"`
	Malformed  int                     `json:"malformed"`
	ByStrategy map[models.Strategy]int `json:"by_strategy"`
	Duration   time.Duration           `json:"duration"`
}

// Runner resolves the address columns of a table and streams the rows to a sink
type Runner struct {
	parser *parser.AddressParser
	master *masterdata.Master
	cfg    RunnerConfig
	logger *zap.Logger
}

// NewRunner creates a Runner over a loaded master list
func NewRunner(p *parser.AddressParser, master *masterdata.Master, cfg RunnerConfig, logger *zap.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{parser: p, master: master, cfg: cfg, logger: logger}
}

type rowResult struct {
	out       []string
	in        models.RawGeoInput
	resolved  models.ResolvedAddress
	malformed bool
}

// Run resolves every row of t and writes them to sink in input order.
// Malformed rows are counted and skipped; only binding, cancellation and
// sink I/O errors abort the run.
func (r *Runner) Run(ctx context.Context, t *Table, sink Sink) (RunStats, error) {
	start := time.Now()
	stats := RunStats{Rows: len(t.Rows), ByStrategy: make(map[models.Strategy]int)}

	b, err := r.cfg.Mapping.Bind(t.Header)
	if err != nil {
		return stats, err
	}

	results := make([]rowResult, len(t.Rows))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for i, row := range t.Rows {
		i, row := i, row
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return eris.Wrap(err, "etl: run cancelled")
			}
			if err := r.check(t.Header, b, row); err != nil {
				results[i].malformed = true
				r.logger.Debug("Skipping row", zap.Int("line", t.Line(i)), zap.Error(err))
				return nil
			}

			in := b.input(row)
			parsed := r.parser.Parse(in, r.master)
			results[i] = rowResult{
				out:      b.apply(row, parsed.Resolved),
				in:       in,
				resolved: parsed.Resolved,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	if err := sink.Begin(b.header(t.Header)); err != nil {
		return stats, err
	}

	for i, res := range results {
		if res.malformed {
			stats.Malformed++
			continue
		}

		if err := sink.Write(res.out); err != nil {
			if eris.Is(err, ErrBadValue) {
				stats.Malformed++
				r.logger.Warn("Skipping row", zap.Int("line", t.Line(i)), zap.Error(err))
				continue
			}
			return stats, err
		}

		stats.Written++
		stats.ByStrategy[res.resolved.Strategy]++
		if res.resolved.Matched {
			stats.Matched++
			continue
		}
		stats.Fallback++
		if r.cfg.OnFallback != nil {
			r.cfg.OnFallback(ctx, t.Line(i), res.in, res.resolved)
		}
	}

	if err := sink.Finish(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	r.logger.Info("Run complete",
		zap.Int("rows", stats.Rows),
		zap.Int("written", stats.Written),
		zap.Int("matched", stats.Matched),
		zap.Int("fallback", stats.Fallback),
		zap.Int("malformed", stats.Malformed),
		zap.Duration("duration", stats.Duration))

	return stats, nil
}

// check rejects rows whose width disagrees with the header, or that are
// too short to hold every mapped column
func (r *Runner) check(header []string, b binding, row []string) error {
	if header != nil && len(row) != len(header) {
		return eris.Wrapf(ErrMalformedRow, "etl: %d cells, header has %d", len(row), len(header))
	}
	if header == nil && len(row) < b.width {
		return eris.Wrapf(ErrMalformedRow, "etl: %d cells, mapping needs %d", len(row), b.width)
	}
	return nil
}
