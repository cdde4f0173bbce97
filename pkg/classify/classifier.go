// Package classify decides whether a candidate string is real SQL.
//
// Validity is established in layers of increasing cost: structural
// pre-filters, an optional dialect parser (strict mode), and finally an
// attempt against a sandbox engine whose error message is translated into a
// Reason by the taxonomy.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlmine/pkg/sandbox"
)

// Mode selects the layer chain.
type Mode string

// Classification modes.
const (
	// ModeSandbox runs pre-filters then the sandbox.
	ModeSandbox Mode = "sandbox"
	// ModeStrict additionally requires the dialect parser to accept the
	// text before it reaches the sandbox.
	ModeStrict Mode = "strict"
)

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSandbox, ModeStrict:
		return Mode(s), nil
	case "":
		return ModeSandbox, nil
	}
	return "", fmt.Errorf("unknown classification mode %q (want sandbox or strict)", s)
}

// Verdict is the outcome of one classification.
type Verdict struct {
	Accepted bool
	Reason   Reason
	// Message is the engine or parser error text, if any.
	Message string
}

// Options configures a Classifier.
type Options struct {
	Mode     Mode
	Taxonomy *Taxonomy
	Logger   *slog.Logger
	// OnUnknown is called with the query and raw error text of every engine
	// error outside the taxonomy.
	OnUnknown func(query, message string)
}

// Classifier owns one sandbox and, in strict mode, one dialect parser. It is
// not safe for concurrent use; each worker creates its own.
type Classifier struct {
	sb        sandbox.Sandbox
	mode      Mode
	taxonomy  *Taxonomy
	parser    *dialectParser
	logger    *slog.Logger
	onUnknown func(query, message string)
}

// New creates a classifier attempting candidates against sb.
func New(sb sandbox.Sandbox, opts Options) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tax := opts.Taxonomy
	if tax == nil {
		tax = DefaultTaxonomy()
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeSandbox
	}

	c := &Classifier{
		sb:        sb,
		mode:      mode,
		taxonomy:  tax,
		logger:    logger,
		onUnknown: opts.OnUnknown,
	}
	if mode == ModeStrict {
		c.parser = newDialectParser()
	}
	return c
}

// Valid reports whether candidate is accepted.
func (c *Classifier) Valid(ctx context.Context, candidate string) bool {
	return c.Classify(ctx, candidate).Accepted
}

// Classify runs the layer chain on candidate. It never panics and never
// fails; sandbox malfunctions reject with ReasonSandboxFailure.
func (c *Classifier) Classify(ctx context.Context, candidate string) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("classifier panic", slog.String("query", candidate), slog.Any("panic", r))
			v = verdict(ReasonSandboxFailure, fmt.Sprint(r))
		}
	}()

	if reason := prefilter(candidate); reason != ReasonOK {
		return verdict(reason, "")
	}

	if c.parser != nil {
		if err := c.parser.check(candidate); err != nil {
			return verdict(ReasonDialectParse, err.Error())
		}
	}

	err := c.attempt(ctx, candidate)
	switch {
	case err == nil:
		return verdict(ReasonOK, "")
	case errors.Is(err, sandbox.ErrNullCharacter):
		return verdict(ReasonNullCharacter, err.Error())
	case sandbox.IsFailure(err):
		c.logger.Error("sandbox failure", slog.String("engine", c.sb.Name()), slog.String("error", err.Error()))
		return verdict(ReasonSandboxFailure, err.Error())
	}

	msg := err.Error()
	reason := c.taxonomy.Translate(msg)
	if reason == ReasonUnknown {
		c.logger.Warn("unclassified sandbox error",
			slog.String("engine", c.sb.Name()),
			slog.String("query", candidate),
			slog.String("error", msg))
		if c.onUnknown != nil {
			c.onUnknown(candidate, msg)
		}
	}
	return verdict(reason, msg)
}

// attempt runs candidate on the sandbox, resetting and retrying once after
// a sandbox malfunction.
func (c *Classifier) attempt(ctx context.Context, candidate string) error {
	err := c.sb.Attempt(ctx, candidate)
	if !sandbox.IsFailure(err) || ctx.Err() != nil {
		return err
	}

	c.logger.Debug("resetting sandbox after failure", slog.String("error", err.Error()))
	if rerr := c.sb.Reset(ctx); rerr != nil {
		return &sandbox.FailureError{Op: "reset", Err: rerr}
	}
	return c.sb.Attempt(ctx, candidate)
}

func verdict(r Reason, msg string) Verdict {
	return Verdict{Accepted: r.Accepted(), Reason: r, Message: msg}
}
