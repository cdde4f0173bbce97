package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmine/internal/cli/config"
	"github.com/leapstack-labs/sqlmine/pkg/extract"
)

// ScanOptions holds options for the scan command.
type ScanOptions struct {
	All  bool
	Full bool
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	opts := &ScanOptions{}

	cmd := &cobra.Command{
		Use:   "scan FILE...",
		Short: "Show the SQL candidates found in local source files",
		Long: `Tokenize each file with the extractor selected by its extension and
print the reconstructed candidates. No classification is performed.

By default only candidates passing the structural filter are shown; use
--all to include every reconstructed literal.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "Show every reconstructed literal, not only plausible SQL")
	cmd.Flags().BoolVar(&opts.Full, "full", false, "Do not truncate candidates")

	return cmd
}

func runScan(cmd *cobra.Command, paths []string, opts *ScanOptions) error {
	logger := config.GetLogger(cmd.Context())

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Family", "#", "Candidate"})

	total := 0
	for _, path := range paths {
		content, err := os.ReadFile(path) //nolint:gosec // operator-chosen input
		if err != nil {
			return err
		}

		lang, ok := extract.LanguageOf(path)
		if !ok {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: skipped, %v\n", path, extract.ErrUnsupportedFileType)
			continue
		}

		var candidates []string
		if opts.All {
			candidates, err = extract.Extract(path, string(content))
		} else {
			candidates, err = extract.Candidates(path, string(content))
		}
		var perr *extract.ParsingError
		if errors.As(err, &perr) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d:%d: %s\n    %s\n", path, perr.Line, perr.Column, perr.Message, perr.LineContent)
			continue
		}
		if err != nil {
			return err
		}

		logger.Debug("scanned file", "path", path, "family", lang.String(), "candidates", len(candidates))
		for i, c := range candidates {
			shown := c
			if !opts.Full {
				shown = shorten(c, 80)
			}
			t.AppendRow(table.Row{path, lang, i + 1, shown})
		}
		total += len(candidates)
	}

	t.Render()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "(%d candidates)\n", total)
	return nil
}
