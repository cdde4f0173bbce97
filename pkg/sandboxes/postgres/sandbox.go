// Package postgres provides a PostgreSQL sandbox engine backed by a
// server. Every attempt runs in its own scratch schema inside a
// transaction that is rolled back.
//
// Import this package with a blank identifier to register the engine:
//
//	import _ "github.com/leapstack-labs/sqlmine/pkg/sandboxes/postgres"
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/leapstack-labs/sqlmine/pkg/sandbox"
)

// Name is the registered engine name.
const Name = "postgres"

func init() {
	sandbox.Register(Name, func(logger *slog.Logger) sandbox.Sandbox { return New(logger) })
}

var errMissingDSN = errors.New("postgres sandbox requires sandbox.dsn")

// Sandbox implements sandbox.Sandbox for PostgreSQL.
type Sandbox struct {
	sandbox.BaseSQLSandbox
}

// New creates a new PostgreSQL sandbox instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sandbox {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Sandbox{
		BaseSQLSandbox: sandbox.BaseSQLSandbox{Logger: logger},
	}
	s.Setup = scratchSchema
	return s
}

// Name returns the registered engine name.
func (s *Sandbox) Name() string {
	return Name
}

// Connect establishes a connection to PostgreSQL.
func (s *Sandbox) Connect(ctx context.Context, cfg sandbox.Config) error {
	if cfg.DSN == "" {
		return errMissingDSN
	}

	s.Open = func(ctx context.Context) (*sql.DB, error) {
		db, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres connection: %w", err)
		}
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		return db, nil
	}

	s.Logger.Debug("connecting to postgres sandbox")
	db, err := s.Open(ctx)
	if err != nil {
		return err
	}
	s.DB = db
	s.Cfg = cfg
	return nil
}

// scratchSchema creates a uniquely named schema and puts it first on the
// search path for the rest of the transaction.
func scratchSchema(ctx context.Context, tx *sql.Tx) error {
	name := schemaName(uuid.New())
	if _, err := tx.ExecContext(ctx, "CREATE SCHEMA "+name); err != nil {
		return fmt.Errorf("failed to create scratch schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "SET LOCAL search_path TO "+name); err != nil {
		return fmt.Errorf("failed to set search path: %w", err)
	}
	return nil
}

// schemaName returns a quoted identifier for a scratch schema.
func schemaName(id uuid.UUID) string {
	return `"sandbox_` + strings.ReplaceAll(id.String(), "-", "") + `"`
}
