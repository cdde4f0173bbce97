// Package main provides the sqlmine command, which mines SQL queries from
// source code corpora.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlmine/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
