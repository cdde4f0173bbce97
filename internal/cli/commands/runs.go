package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmine/internal/cli/config"
	"github.com/leapstack-labs/sqlmine/internal/state"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit        int
	Unclassified bool
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs [RUN_ID]",
		Short: "Show runs recorded in the run ledger",
		Long: `List recorded extraction runs, the shards completed by one run, or the
sandbox error messages that no classification rule matched.

The ledger is read from state_path (--state).`,
		Example: `  sqlmine runs --state .sqlmine/ledger.db
  sqlmine runs 6f1c... --state .sqlmine/ledger.db
  sqlmine runs --unclassified --state .sqlmine/ledger.db`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, args, opts)
		},
	}

	cmd.Flags().String("state", "", "Path to the run ledger database")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of entries")
	cmd.Flags().BoolVar(&opts.Unclassified, "unclassified", false, "List unclassified sandbox errors")

	return cmd
}

func runRuns(cmd *cobra.Command, args []string, opts *RunsOptions) error {
	cfg := getConfig()
	if cfg.StatePath == "" {
		return Usage(errors.New("no run ledger configured\nHint: pass --state or set state_path in sqlmine.yaml"))
	}

	store, err := openLedger(cfg, config.GetLogger(cmd.Context()))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	switch {
	case opts.Unclassified:
		errs, err := store.ListUnclassified(opts.Limit)
		if err != nil {
			return err
		}
		t.AppendHeader(table.Row{"Engine", "Count", "Message", "Sample query", "Last seen"})
		for _, e := range errs {
			t.AppendRow(table.Row{e.Engine, e.Occurrences, shorten(e.Message, 50), shorten(e.SampleQuery, 50), formatTime(e.LastSeen)})
		}
	case len(args) == 1:
		run, err := store.GetRun(args[0])
		if err != nil {
			return err
		}
		shards, err := store.ListShardRuns(run.ID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %s (%d/%d shards)\n", run.ID, run.Status, len(shards), run.TotalShards)
		if run.Error != "" {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Error: %s\n", run.Error)
		}
		t.AppendHeader(table.Row{"Shard", "Records", "Skipped", "Candidates", "Rows", "Completed"})
		for _, s := range shards {
			t.AppendRow(table.Row{s.Shard, s.Counts.Records, s.Counts.Skipped, s.Counts.Candidates, s.Counts.Rows, formatTime(s.CompletedAt)})
		}
	default:
		runs, err := store.ListRuns(opts.Limit)
		if err != nil {
			return err
		}
		t.AppendHeader(table.Row{"ID", "Status", "Started", "Duration", "Engine", "Shards", "Records", "Rows"})
		for _, r := range runs {
			t.AppendRow(table.Row{r.ID, r.Status, formatTime(r.StartedAt), runDuration(r), r.Engine, r.TotalShards, r.Counts.Records, r.Counts.Rows})
		}
	}

	t.Render()
	return nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func runDuration(r *state.Run) string {
	if r.CompletedAt == nil {
		return "-"
	}
	return r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
}
