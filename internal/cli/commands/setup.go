package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/leapstack-labs/sqlmine/internal/cli/config"
	"github.com/leapstack-labs/sqlmine/internal/state"
	"github.com/leapstack-labs/sqlmine/pkg/classify"
	"github.com/leapstack-labs/sqlmine/pkg/sandbox"
)

// Helper functions shared across commands

// getConfig returns the current configuration, or the defaults when none
// was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Defaults()
}

func sandboxConfig(cfg *config.Config) sandbox.Config {
	return sandbox.Config{Engine: cfg.Engine, DSN: cfg.Sandbox.DSN}
}

// loadTaxonomy returns the built-in taxonomy, extended by the configured
// override file.
func loadTaxonomy(cfg *config.Config) (*classify.Taxonomy, error) {
	if cfg.TaxonomyFile == "" {
		return classify.DefaultTaxonomy(), nil
	}
	return classify.LoadTaxonomy(cfg.TaxonomyFile)
}

// openLedger opens the run ledger at cfg.StatePath. It returns nil when no
// ledger is configured.
func openLedger(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if cfg.StatePath == "" {
		return nil, nil
	}

	// Ensure state directory exists
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	return store, nil
}

// stdinIsTerminal reports whether the process can prompt the operator.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
}

// writerIsTerminal reports whether w is a terminal that accepts styling.
func writerIsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
