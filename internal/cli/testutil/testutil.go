// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmine/internal/cli/config"
	fixtures "github.com/leapstack-labs/sqlmine/internal/testutil"
)

// Result holds the captured output of one command execution.
type Result struct {
	Out    string
	ErrOut string
	Err    error
}

// Execute runs root with args, feeding stdin, and captures both output
// streams. Configuration state from earlier executions is reset first.
func Execute(t *testing.T, root *cobra.Command, stdin io.Reader, args ...string) Result {
	t.Helper()
	config.ResetConfig()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(errOut)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)

	err := root.Execute()
	return Result{Out: out.String(), ErrOut: errOut.String(), Err: err}
}

// SetupShardDir creates an input directory holding one shard with a Python
// file, a Go file, a record without content and an unsupported file.
func SetupShardDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	fixtures.WriteShard(t, dir, "shard-000.json.gz",
		fixtures.RecordLine(t, "acme/api", "app/db.py", fixtures.Ptr(`cur.execute("SELECT id FROM users WHERE active = 1")`+"\n")),
		fixtures.RecordLine(t, "acme/api", "app/missing.py", nil),
		fixtures.RecordLine(t, "acme/web", "store/orders.go", fixtures.Ptr("rows, err := db.Query(\"SELECT * FROM orders\")\n")),
		fixtures.RecordLine(t, "acme/web", "README.md", fixtures.Ptr("SELECT nothing FROM here")),
	)
	return dir
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}

// AssertNotContains checks that the string does not contain the substring.
func AssertNotContains(t *testing.T, s, unexpected string) {
	t.Helper()
	if strings.Contains(s, unexpected) {
		t.Errorf("string %q unexpectedly contains %q", s, unexpected)
	}
}
