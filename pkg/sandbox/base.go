package sandbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var errNotConnected = errors.New("database connection not established")

// BaseSQLSandbox provides the database/sql attempt loop shared by engines.
// Embed this struct in concrete engines and set Open in Connect; the engine
// then gets Attempt, Reset and Close.
type BaseSQLSandbox struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger

	// Open opens a fresh database handle. Reset uses it to rebuild the
	// engine after an attempt escaped its transaction.
	Open func(ctx context.Context) (*sql.DB, error)

	// Setup runs inside each attempt's transaction before the attempted
	// text, e.g. to create a scratch schema.
	Setup func(ctx context.Context, tx *sql.Tx) error
}

// Close closes the database connection.
func (b *BaseSQLSandbox) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing sandbox connection")
		}
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLSandbox) IsConnected() bool {
	return b.DB != nil
}

// Attempt executes sqlStr in a transaction that is always rolled back. If
// the text ended the transaction itself (COMMIT, END, ...) the rollback
// fails and the engine is reset before returning, so no effect survives.
func (b *BaseSQLSandbox) Attempt(ctx context.Context, sqlStr string) error {
	if strings.IndexByte(sqlStr, 0) >= 0 {
		return ErrNullCharacter
	}
	if b.DB == nil {
		return &FailureError{Op: "attempt", Err: errNotConnected}
	}

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return &FailureError{Op: "begin", Err: err}
	}
	if b.Setup != nil {
		if err := b.Setup(ctx, tx); err != nil {
			_ = tx.Rollback()
			return &FailureError{Op: "setup", Err: err}
		}
	}

	_, execErr := tx.ExecContext(ctx, sqlStr)

	if err := tx.Rollback(); err != nil {
		b.logger().Debug("attempt escaped its transaction, resetting",
			slog.String("error", err.Error()))
		if rerr := b.Reset(ctx); rerr != nil {
			return &FailureError{Op: "reset", Err: rerr}
		}
	}
	return execErr
}

// Reset closes the current handle and opens a fresh one.
func (b *BaseSQLSandbox) Reset(ctx context.Context) error {
	if b.Open == nil {
		return fmt.Errorf("reset: %w", errNotConnected)
	}
	if b.DB != nil {
		_ = b.DB.Close()
		b.DB = nil
	}
	db, err := b.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to reopen sandbox: %w", err)
	}
	b.DB = db
	return nil
}

func (b *BaseSQLSandbox) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}
