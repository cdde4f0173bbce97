package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Sandbox)
)

// Register adds an engine factory to the registry.
// Called by engine implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Sandbox) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves an engine factory by name.
func Get(name string) (func(*slog.Logger) Sandbox, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates an unconnected sandbox for cfg.Engine.
// The logger parameter is passed to the engine constructor (nil uses discard logger).
func New(cfg Config, logger *slog.Logger) (Sandbox, error) {
	if cfg.Engine == "" {
		return nil, fmt.Errorf("sandbox engine not specified")
	}

	factory, ok := Get(cfg.Engine)
	if !ok {
		return nil, &UnknownEngineError{
			Engine:    cfg.Engine,
			Available: ListEngines(),
		}
	}
	return factory(logger), nil
}

// Open creates and connects a sandbox for cfg.Engine.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Sandbox, error) {
	sb, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := sb.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	return sb, nil
}

// ListEngines returns all registered engine names (sorted).
func ListEngines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an engine is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownEngineError is returned when an unknown engine is requested.
type UnknownEngineError struct {
	Engine    string
	Available []string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("unknown sandbox engine %q\nAvailable engines: %v\nHint: Check engine in sqlmine.yaml or --engine", e.Engine, e.Available)
}
