package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmine/internal/cli/config"
	"github.com/leapstack-labs/sqlmine/internal/pipeline"
	"github.com/leapstack-labs/sqlmine/internal/shard"
	"github.com/leapstack-labs/sqlmine/internal/sink"
	"github.com/leapstack-labs/sqlmine/internal/state"
	"github.com/leapstack-labs/sqlmine/pkg/classify"
)

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract INPUT_DIR OUTPUT_CSV",
		Short: "Mine SQL queries from a directory of source shards",
		Long: `Read every gzip-compressed NDJSON shard in INPUT_DIR, extract string
literals that look like SQL from each source file, keep those the SQL
sandbox classifies as valid and append them to OUTPUT_CSV.

Interrupting the run (Ctrl-C or SIGTERM) stops it cooperatively; rows
found so far stay in the output file.`,
		Example: `  # Mine with 8 workers, overwriting any previous output
  sqlmine extract ./bigquery-export queries.csv -p 8 -f

  # Validate against the dialect parser first and record the run
  sqlmine extract ./shards out.csv --mode strict --state .sqlmine/ledger.db`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], args[1])
		},
	}

	cmd.Flags().IntP("workers", "p", 0, "Number of parallel workers (default: number of CPUs)")
	cmd.Flags().BoolP("force-overwrite", "f", false, "Overwrite OUTPUT_CSV without asking")
	cmd.Flags().String("engine", "", "Sandbox engine (sqlite|duckdb|postgres)")
	cmd.Flags().String("mode", "", "Classification mode (sandbox|strict)")
	cmd.Flags().String("dsn", "", "Sandbox connection string (postgres)")
	cmd.Flags().String("state", "", "Path to the run ledger database (disabled when empty)")
	cmd.Flags().String("encoding", "", "Output file encoding (default utf-8)")
	cmd.Flags().String("taxonomy", "", "YAML file with extra error-message rules")
	cmd.Flags().Duration("progress-interval", 0, "Interval between progress lines")
	cmd.Flags().Duration("flush-interval", 0, "Interval between output flushes")
	cmd.Flags().Int("result-buffer", 0, "Capacity of the result channel")

	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(classify.ModeSandbox), string(classify.ModeStrict)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runExtract(cmd *cobra.Command, inputDir, outputPath string) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	op := newOperator(cmd.ErrOrStderr())

	if info, err := os.Stat(inputDir); err != nil || !info.IsDir() {
		return Usage(fmt.Errorf("input directory does not exist: %s", inputDir))
	}

	if err := confirmOverwrite(cmd, outputPath, cfg.ForceOverwrite); err != nil {
		return err
	}

	shards, err := shard.Discover(inputDir)
	if err != nil {
		return err
	}
	taxonomy, err := loadTaxonomy(cfg)
	if err != nil {
		return Usage(err)
	}
	mode, err := classify.ParseMode(cfg.Mode)
	if err != nil {
		return Usage(err)
	}

	ledger, err := openLedger(cfg, logger)
	if err != nil {
		return err
	}
	if ledger != nil {
		defer func() { _ = ledger.Close() }()
	}

	out, err := sink.Create(outputPath, cfg.OutputEncoding, logger)
	if err != nil {
		return err
	}

	pcfg := pipeline.Config{
		Workers:          cfg.Workers,
		Sandbox:          sandboxConfig(cfg),
		Mode:             mode,
		Taxonomy:         taxonomy,
		ResultBuffer:     cfg.ResultBuffer,
		FlushInterval:    cfg.FlushInterval,
		ProgressInterval: cfg.ProgressInterval,
		OnProgress:       op.progress,
		Logger:           logger,
	}

	var run *state.Run
	if ledger != nil {
		run, err = ledger.CreateRun(state.Run{
			InputDir:    inputDir,
			OutputPath:  outputPath,
			Engine:      cfg.Engine,
			Mode:        string(mode),
			Workers:     cfg.Workers,
			TotalShards: len(shards),
		})
		if err != nil {
			_ = out.Close()
			return err
		}
		pcfg.Ledger = ledger
		pcfg.RunID = run.ID
		logger.Info("recording run", slog.String("run_id", run.ID), slog.String("state", cfg.StatePath))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := pipeline.New(pcfg, out).Run(ctx, shards)
	if cerr := out.Close(); cerr != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close output: %w", cerr)
	}

	if ledger != nil {
		status, msg := runStatus(ctx, runErr)
		if err := ledger.CompleteRun(run.ID, status, msg, summary.Counts); err != nil {
			logger.Warn("failed to complete run", slog.String("run_id", run.ID), slog.String("error", err.Error()))
		}
	}

	if runErr != nil && ctx.Err() == nil && errors.Is(runErr, pipeline.ErrCancelled) {
		op.workerFault()
	}
	op.summary(summary, out.Written(), out.Skipped())
	if runErr != nil {
		op.incomplete()
		return runErr
	}
	op.complete()
	return nil
}

// runStatus maps the outcome of a run to its ledger status.
func runStatus(ctx context.Context, runErr error) (state.RunStatus, string) {
	switch {
	case runErr == nil:
		return state.RunStatusCompleted, ""
	case ctx.Err() != nil:
		return state.RunStatusCancelled, runErr.Error()
	default:
		return state.RunStatusFailed, runErr.Error()
	}
}

// confirmOverwrite refuses non-file output paths and asks before replacing
// an existing file. Without a terminal on stdin the answer is no.
func confirmOverwrite(cmd *cobra.Command, path string, force bool) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "ERROR: Expected %q to be a file, but it is not.\nExiting...\n", path)
		return fmt.Errorf("%w: %s", ErrOutputNotFile, path)
	}
	if force {
		return nil
	}

	if stdinIsTerminal() {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Overwrite file %q? [y/N] ", path)
		if confirmed(cmd.InOrStdin()) {
			return nil
		}
	}
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Not overwriting file.")
	return fmt.Errorf("%w: %s", ErrOverwriteDeclined, path)
}

func confirmed(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.ToLower(strings.TrimSpace(line)) == "y"
}
