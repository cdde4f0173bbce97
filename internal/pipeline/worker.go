package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/sqlmine/internal/shard"
	"github.com/leapstack-labs/sqlmine/internal/sink"
	"github.com/leapstack-labs/sqlmine/internal/state"
	"github.com/leapstack-labs/sqlmine/pkg/classify"
	"github.com/leapstack-labs/sqlmine/pkg/extract"
)

// worker claims shards until the queue is empty or ctx is cancelled. Any
// error it returns is fatal for the whole run.
func (p *Pipeline) worker(ctx context.Context, id int, queue <-chan string, results chan<- sink.Row) error {
	logger := p.logger.With(slog.Int("worker", id))

	sb, err := p.cfg.NewSandbox(ctx)
	if err != nil {
		return fmt.Errorf("worker %d: failed to open sandbox: %w", id, err)
	}
	defer func() {
		if cerr := sb.Close(); cerr != nil {
			logger.Warn("failed to close sandbox", slog.String("error", cerr.Error()))
		}
	}()

	cl := classify.New(sb, classify.Options{
		Mode:      p.cfg.Mode,
		Taxonomy:  p.cfg.Taxonomy,
		Logger:    logger,
		OnUnknown: p.unknownRecorder(sb.Name(), logger),
	})

	for {
		if ctx.Err() != nil {
			return nil
		}
		var path string
		select {
		case <-ctx.Done():
			return nil
		case next, ok := <-queue:
			if !ok {
				logger.Debug("shard queue empty")
				return nil
			}
			path = next
		}

		counts, err := p.processShard(ctx, cl, path, results, logger)
		if err != nil {
			return fmt.Errorf("worker %d: %w", id, err)
		}
		if ctx.Err() != nil {
			// The shard was cut short; it does not count as completed.
			return nil
		}

		p.completed.Add(1)
		p.recordShard(path, counts, logger)
	}
}

// processShard streams the records of one shard in file order.
func (p *Pipeline) processShard(ctx context.Context, cl *classify.Classifier, path string, results chan<- sink.Row, logger *slog.Logger) (state.Counts, error) {
	var counts state.Counts

	r, err := shard.Open(path)
	if err != nil {
		return counts, err
	}
	defer func() { _ = r.Close() }()

	logger.Debug("processing shard", slog.String("shard", path))

	for ctx.Err() == nil {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return counts, err
		}
		counts.Records++
		p.records.Add(1)

		rows, found, err := p.processRecord(ctx, cl, rec)
		counts.Candidates += int64(found)
		p.candidates.Add(int64(found))
		if err != nil {
			if !recoverable(err) {
				return counts, fmt.Errorf("%s:%d: %w", path, r.Line(), err)
			}
			logger.Debug("skipping record",
				slog.String("repo", rec.RepoName),
				slog.String("path", rec.Path),
				slog.String("reason", err.Error()))
			counts.Skipped++
			p.skipped.Add(1)
			continue
		}

		// The controller drains until every worker has returned, so rows
		// accepted after cancellation are still delivered.
		for _, row := range rows {
			results <- row
			counts.Rows++
			p.rows.Add(1)
		}
	}
	return counts, nil
}

// processRecord extracts the candidates of one record and returns the rows
// of those the classifier accepts, in reconstruction order. Cancellation is
// observed between candidates; a classification already started runs to
// completion.
func (p *Pipeline) processRecord(ctx context.Context, cl *classify.Classifier, rec shard.Record) ([]sink.Row, int, error) {
	src, err := rec.Source()
	if err != nil {
		return nil, 0, err
	}
	candidates, err := extract.Candidates(rec.Path, src)
	if err != nil {
		return nil, 0, err
	}

	attemptCtx := context.WithoutCancel(ctx)
	var rows []sink.Row
	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		if cl.Valid(attemptCtx, c) {
			rows = append(rows, sink.Row{Repo: rec.RepoName, Path: rec.Path, Query: c})
		}
	}
	return rows, len(candidates), nil
}

// recoverable reports whether err only affects a single record.
func recoverable(err error) bool {
	var perr *extract.ParsingError
	return errors.Is(err, shard.ErrMissingContent) ||
		errors.Is(err, extract.ErrUnsupportedFileType) ||
		errors.As(err, &perr)
}

func (p *Pipeline) recordShard(path string, counts state.Counts, logger *slog.Logger) {
	if p.cfg.Ledger == nil {
		return
	}
	if err := p.cfg.Ledger.RecordShard(p.cfg.RunID, filepath.Base(path), counts); err != nil {
		logger.Warn("failed to record shard", slog.String("shard", path), slog.String("error", err.Error()))
	}
}

func (p *Pipeline) unknownRecorder(engine string, logger *slog.Logger) func(query, message string) {
	if p.cfg.Ledger == nil {
		return nil
	}
	return func(query, message string) {
		if err := p.cfg.Ledger.RecordUnclassified(p.cfg.RunID, engine, query, message); err != nil {
			logger.Warn("failed to record unclassified error", slog.String("error", err.Error()))
		}
	}
}
