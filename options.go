package jsgate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-jsgate/engines/goja/evaluator"
)

const (
	// DefaultTimeout applies when a request asks for timeout 0.
	DefaultTimeout = time.Second

	// DefaultMaxTimeout caps any requested timeout.
	DefaultMaxTimeout = 30 * time.Second
)

// Option configures a Gateway.
type Option func(*Gateway) error

// WithPrelude sets the JavaScript that runs before the wrapper declaration.
func WithPrelude(prelude string) Option {
	return func(g *Gateway) error {
		g.prelude = prelude
		return nil
	}
}

// WithDefaultTimeout sets the timeout used when a request asks for 0. Zero here means
// requests without a timeout run unbounded unless WithMaxTimeout caps them.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(g *Gateway) error {
		if timeout < 0 {
			return fmt.Errorf("default timeout cannot be negative: %s", timeout)
		}
		g.defaultTimeout = timeout
		return nil
	}
}

// WithMaxTimeout caps every effective timeout. Zero disables the cap.
func WithMaxTimeout(timeout time.Duration) Option {
	return func(g *Gateway) error {
		if timeout < 0 {
			return fmt.Errorf("max timeout cannot be negative: %s", timeout)
		}
		g.maxTimeout = timeout
		return nil
	}
}

// WithMaxCallStackSize limits JS recursion depth in every evaluation.
func WithMaxCallStackSize(size int) Option {
	return func(g *Gateway) error {
		if size <= 0 {
			return fmt.Errorf("max call stack size must be positive: %d", size)
		}
		g.maxCallStackSize = size
		return nil
	}
}

// WithInterruptGrace sets how long an evaluation waits for an interrupted runtime.
func WithInterruptGrace(grace time.Duration) Option {
	return func(g *Gateway) error {
		if grace < 0 {
			return fmt.Errorf("interrupt grace cannot be negative: %s", grace)
		}
		g.interruptGrace = grace
		return nil
	}
}

// WithStrictNames rejects variables keys that are not plain identifiers.
func WithStrictNames(strict bool) Option {
	return func(g *Gateway) error {
		g.strictNames = strict
		return nil
	}
}

// WithStrictMode compiles the prelude and wrapper in ECMAScript strict mode.
func WithStrictMode(strict bool) Option {
	return func(g *Gateway) error {
		g.strictMode = strict
		return nil
	}
}

// WithLogHandler sets the log handler shared by the gateway and every evaluation.
func WithLogHandler(handler slog.Handler) Option {
	return func(g *Gateway) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		g.logHandler = handler
		return nil
	}
}

func (g *Gateway) applyDefaults() {
	g.defaultTimeout = DefaultTimeout
	g.maxTimeout = DefaultMaxTimeout
	g.maxCallStackSize = evaluator.DefaultMaxCallStackSize
	g.interruptGrace = evaluator.DefaultInterruptGrace
}
