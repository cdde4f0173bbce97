// Package pipeline runs the extraction over many input shards: a bounded
// pool of workers claims shards, extracts and classifies candidates record
// by record, and sends validated rows to a single controller that appends
// them to the sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlmine/internal/sink"
	"github.com/leapstack-labs/sqlmine/internal/state"
	"github.com/leapstack-labs/sqlmine/pkg/classify"
	"github.com/leapstack-labs/sqlmine/pkg/sandbox"
)

// ErrCancelled is returned by Run when it ended before every shard was
// processed, by a signal or by a worker fault.
var ErrCancelled = errors.New("processing was not completed")

// Default tuning values.
const (
	DefaultProgressInterval = 20 * time.Second
	DefaultFlushInterval    = 500 * time.Millisecond
	DefaultResultBuffer     = 1024
)

// Sink receives validated rows from the controller.
type Sink interface {
	Write(rows ...sink.Row) error
	Flush() error
}

// Ledger records run progress. *state.SQLiteStore satisfies it.
type Ledger interface {
	RecordShard(runID, shard string, c state.Counts) error
	RecordUnclassified(runID, engine, query, message string) error
}

// Progress is a sample of shard completion.
type Progress struct {
	Completed int
	Total     int
	Elapsed   time.Duration
}

// Percent returns the completed share in percent.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Completed) * 100 / float64(p.Total)
}

// Summary reports the totals of a run.
type Summary struct {
	Shards    int
	Completed int
	state.Counts
}

// Config holds pipeline configuration.
type Config struct {
	// Workers is the number of parallel workers. Zero means runtime.NumCPU.
	Workers int
	// Sandbox selects the engine each worker opens.
	Sandbox sandbox.Config
	// NewSandbox overrides how a worker obtains its sandbox.
	NewSandbox func(ctx context.Context) (sandbox.Sandbox, error)
	// Mode and Taxonomy configure each worker's classifier.
	Mode     classify.Mode
	Taxonomy *classify.Taxonomy

	ResultBuffer     int
	FlushInterval    time.Duration
	ProgressInterval time.Duration
	// OnProgress is called on every progress tick and once at the end.
	OnProgress func(Progress)

	// Ledger and RunID enable the run ledger (optional).
	Ledger Ledger
	RunID  string

	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Pipeline is the controller of one extraction run.
type Pipeline struct {
	cfg    Config
	out    Sink
	logger *slog.Logger

	completed  atomic.Int64
	records    atomic.Int64
	candidates atomic.Int64
	rows       atomic.Int64
	skipped    atomic.Int64
}

// New creates a pipeline writing to out.
func New(cfg Config, out Sink) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ResultBuffer < 1 {
		cfg.ResultBuffer = DefaultResultBuffer
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	if cfg.NewSandbox == nil {
		sbCfg := cfg.Sandbox
		cfg.NewSandbox = func(ctx context.Context) (sandbox.Sandbox, error) {
			return sandbox.Open(ctx, sbCfg, logger)
		}
	}
	return &Pipeline{cfg: cfg, out: out, logger: logger}
}

// Run processes shards until all are done, ctx is cancelled or a worker
// fails. Rows already received are always written before Run returns. The
// error wraps ErrCancelled unless every shard was processed.
func (p *Pipeline) Run(ctx context.Context, shards []string) (Summary, error) {
	start := time.Now()
	total := len(shards)

	queue := make(chan string, total)
	for _, s := range shards {
		queue <- s
	}
	close(queue)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	workers := min(p.cfg.Workers, max(total, 1))
	p.logger.Info("starting extraction", slog.Int("shards", total), slog.Int("workers", workers))

	results := make(chan sink.Row, p.cfg.ResultBuffer)
	g, gctx := errgroup.WithContext(ctx)
	for id := range workers {
		g.Go(func() error {
			return p.worker(gctx, id, queue, results)
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(results)
	}()

	sinkErr := p.drain(ctx, cancel, results, start, total)
	runErr := <-waitErr

	summary := p.summary(total)
	p.progress(start, total)

	switch {
	case runErr != nil:
		p.logger.Error("worker failed, run stopped", slog.String("error", runErr.Error()))
		return summary, fmt.Errorf("%w: %w", ErrCancelled, runErr)
	case sinkErr != nil:
		return summary, fmt.Errorf("%w: %w", ErrCancelled, sinkErr)
	case summary.Completed < total:
		cause := context.Cause(ctx)
		p.logger.Warn("run cancelled", slog.Int("completed", summary.Completed), slog.Int("shards", total))
		if cause != nil && !errors.Is(cause, context.Canceled) {
			return summary, fmt.Errorf("%w: %w", ErrCancelled, cause)
		}
		return summary, ErrCancelled
	}

	p.logger.Info("extraction complete",
		slog.Int64("records", summary.Records),
		slog.Int64("rows", summary.Rows),
		slog.Duration("elapsed", time.Since(start)))
	return summary, nil
}

// drain consumes results until the channel is closed, flushing batches to
// the sink on a fixed cadence. A sink failure cancels the workers; the
// channel is still drained so they never block.
func (p *Pipeline) drain(ctx context.Context, cancel context.CancelCauseFunc, results <-chan sink.Row, start time.Time, total int) error {
	flush := time.NewTicker(p.cfg.FlushInterval)
	defer flush.Stop()
	progress := time.NewTicker(p.cfg.ProgressInterval)
	defer progress.Stop()

	var (
		batch   []sink.Row
		sinkErr error
	)
	write := func() {
		if sinkErr != nil {
			batch = batch[:0]
			return
		}
		if len(batch) > 0 {
			sinkErr = p.out.Write(batch...)
			batch = batch[:0]
		}
		if sinkErr == nil {
			sinkErr = p.out.Flush()
		}
		if sinkErr != nil {
			p.logger.Error("failed to write output", slog.String("error", sinkErr.Error()))
			cancel(sinkErr)
		}
	}

	for {
		select {
		case row, ok := <-results:
			if !ok {
				write()
				return sinkErr
			}
			batch = append(batch, row)
			if len(batch) >= p.cfg.ResultBuffer {
				write()
			}
		case <-flush.C:
			write()
		case <-progress.C:
			p.progress(start, total)
		case <-ctx.Done():
			// Workers observe the same cancellation; keep draining until
			// they close the channel.
			ctx = context.Background()
		}
	}
}

func (p *Pipeline) progress(start time.Time, total int) {
	if p.cfg.OnProgress == nil {
		return
	}
	p.cfg.OnProgress(Progress{
		Completed: int(p.completed.Load()),
		Total:     total,
		Elapsed:   time.Since(start),
	})
}

func (p *Pipeline) summary(total int) Summary {
	return Summary{
		Shards:    total,
		Completed: int(p.completed.Load()),
		Counts: state.Counts{
			Records:    p.records.Load(),
			Candidates: p.candidates.Load(),
			Rows:       p.rows.Load(),
			Skipped:    p.skipped.Load(),
		},
	}
}
