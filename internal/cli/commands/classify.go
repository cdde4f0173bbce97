package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmine/internal/cli/config"
	"github.com/leapstack-labs/sqlmine/pkg/classify"
	"github.com/leapstack-labs/sqlmine/pkg/sandbox"
)

// NewClassifyCommand creates the classify command.
func NewClassifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [SQL...]",
		Short: "Classify SQL strings as valid or invalid",
		Long: `Run the SQL validity classifier on each argument, or on each line of
standard input when no argument is given, and print the verdict with its
reason code.`,
		Example: `  sqlmine classify "SELECT * FROM users" "SELEC * FORM users"
  grep -h execute *.log | sqlmine classify --mode strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, args)
		},
	}

	cmd.Flags().String("engine", "", "Sandbox engine (sqlite|duckdb|postgres)")
	cmd.Flags().String("mode", "", "Classification mode (sandbox|strict)")
	cmd.Flags().String("dsn", "", "Sandbox connection string (postgres)")
	cmd.Flags().String("taxonomy", "", "YAML file with extra error-message rules")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	queries := args
	if len(queries) == 0 {
		var err error
		if queries, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	taxonomy, err := loadTaxonomy(cfg)
	if err != nil {
		return Usage(err)
	}
	mode, err := classify.ParseMode(cfg.Mode)
	if err != nil {
		return Usage(err)
	}

	sb, err := sandbox.Open(cmd.Context(), sandboxConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer func() { _ = sb.Close() }()

	cl := classify.New(sb, classify.Options{Mode: mode, Taxonomy: taxonomy, Logger: logger})

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Query", "Verdict", "Reason", "Message"})

	accepted := 0
	for i, q := range queries {
		v := cl.Classify(cmd.Context(), q)
		verdict := "rejected"
		if v.Accepted {
			verdict = "accepted"
			accepted++
		}
		t.AppendRow(table.Row{i + 1, shorten(q, 60), verdict, v.Reason, shorten(v.Message, 50)})
	}
	t.Render()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d accepted, engine %s, mode %s)\n", accepted, len(queries), sb.Name(), mode)
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

// shorten collapses whitespace and truncates s for table display.
func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
