package sandbox

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownEngineError_Error(t *testing.T) {
	err := &UnknownEngineError{
		Engine:    "oracle",
		Available: []string{"duckdb", "sqlite"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "oracle", "error should mention the unknown engine")
	assert.Contains(t, msg, "duckdb")
	assert.Contains(t, msg, "sqlmine.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	Register("test_engine_internal", func(_ *slog.Logger) Sandbox { return nil })

	assert.True(t, IsRegistered("test_engine_internal"))
	assert.Contains(t, ListEngines(), "test_engine_internal")

	factory, ok := Get("test_engine_internal")
	assert.True(t, ok)
	assert.NotNil(t, factory)
}

func TestNew_EmptyEngine(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, "sandbox engine not specified", err.Error())
}

func TestNew_UnknownEngine(t *testing.T) {
	_, err := New(Config{Engine: "no_such_engine"}, nil)
	require.Error(t, err)

	var unknown *UnknownEngineError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "no_such_engine", unknown.Engine)
}

func TestOpen_UnknownEngine(t *testing.T) {
	_, err := Open(context.Background(), Config{Engine: "no_such_engine"}, nil)
	assert.Error(t, err)
}
