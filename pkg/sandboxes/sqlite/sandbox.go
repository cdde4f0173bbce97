// Package sqlite provides the default SQLite sandbox engine.
//
// Import this package with a blank identifier to register the engine:
//
//	import _ "github.com/leapstack-labs/sqlmine/pkg/sandboxes/sqlite"
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlmine/pkg/sandbox"

	_ "modernc.org/sqlite" // sqlite driver
)

// Name is the registered engine name.
const Name = "sqlite"

func init() {
	sandbox.Register(Name, func(logger *slog.Logger) sandbox.Sandbox { return New(logger) })
}

// Sandbox implements sandbox.Sandbox for SQLite.
type Sandbox struct {
	sandbox.BaseSQLSandbox
}

// New creates a new SQLite sandbox instance.
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

// Connect opens the database. An empty DSN is a private in-memory
// database.
func (s *Sandbox) Connect(ctx context.Context, cfg sandbox.Config) error {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}

	s.Open = func(ctx context.Context) (*sql.DB, error) {
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite sandbox: %w", err)
		}
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping sqlite sandbox: %w", err)
		}
		return db, nil
	}

	s.Logger.Debug("opening sqlite sandbox", slog.String("dsn", dsn))
	db, err := s.Open(ctx)
	if err != nil {
		return err
	}
	s.DB = db
	s.Cfg = cfg
	return nil
}
