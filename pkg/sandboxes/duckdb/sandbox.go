// Package duckdb provides a DuckDB sandbox engine.
//
// Import this package with a blank identifier to register the engine:
//
//	import _ "github.com/leapstack-labs/sqlmine/pkg/sandboxes/duckdb"
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlmine/pkg/sandbox"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Name is the registered engine name.
const Name = "duckdb"

func init() {
	sandbox.Register(Name, func(logger *slog.Logger) sandbox.Sandbox { return New(logger) })
}

// Sandbox implements sandbox.Sandbox for DuckDB.
type Sandbox struct {
	sandbox.BaseSQLSandbox
}

// New creates a new DuckDB sandbox instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sandbox {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sandbox{
		BaseSQLSandbox: sandbox.BaseSQLSandbox{Logger: logger},
	}
}

// Name returns the registered engine name.
func (s *Sandbox) Name() string {
	return Name
}

// Connect establishes a connection to DuckDB.
// An empty DSN is an in-memory database.
func (s *Sandbox) Connect(ctx context.Context, cfg sandbox.Config) error {
	path := cfg.DSN
	if path == "" {
		path = ":memory:"
	}

	s.Open = func(ctx context.Context) (*sql.DB, error) {
		db, err := sql.Open("duckdb", path)
		if err != nil {
			return nil, fmt.Errorf("failed to open duckdb sandbox: %w", err)
		}
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping duckdb: %w", err)
		}
		return db, nil
	}

	db, err := s.Open(ctx)
	if err != nil {
		return err
	}
	s.DB = db
	s.Cfg = cfg
	return nil
}
