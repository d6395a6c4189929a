package evaluator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-jsgate/internal/helpers"
)

const (
	// DefaultMaxCallStackSize bounds JS recursion depth.
	DefaultMaxCallStackSize = 1024

	// DefaultInterruptGrace is how long Eval waits for an interrupted runtime to unwind
	// before it gives up on the worker.
	DefaultInterruptGrace = 100 * time.Millisecond
)

// FunctionalOption is a function that configures an Evaluator instance
type FunctionalOption func(*Evaluator) error

// WithTimeout sets the wall-clock budget for one evaluation. Zero disables the deadline.
func WithTimeout(timeout time.Duration) FunctionalOption {
	return func(e *Evaluator) error {
		if timeout < 0 {
			return fmt.Errorf("timeout cannot be negative: %s", timeout)
		}
		e.timeout = timeout
		return nil
	}
}

// WithMaxCallStackSize limits the JS call stack; exceeding it is a runtime failure.
func WithMaxCallStackSize(size int) FunctionalOption {
	return func(e *Evaluator) error {
		if size <= 0 {
			return fmt.Errorf("max call stack size must be positive: %d", size)
		}
		e.maxCallStackSize = size
		return nil
	}
}

// WithInterruptGrace sets how long Eval waits for the runtime to stop after an interrupt.
func WithInterruptGrace(grace time.Duration) FunctionalOption {
	return func(e *Evaluator) error {
		if grace < 0 {
			return fmt.Errorf("interrupt grace cannot be negative: %s", grace)
		}
		e.interruptGrace = grace
		return nil
	}
}

// WithLogHandler creates an option to set the log handler for the goja evaluator.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(e *Evaluator) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		e.logHandler = handler
		e.logger = nil
		return nil
	}
}

// WithLogger creates an option to set a specific logger for the goja evaluator.
func WithLogger(logger *slog.Logger) FunctionalOption {
	return func(e *Evaluator) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		e.logger = logger
		e.logHandler = nil
		return nil
	}
}

func (e *Evaluator) setupLogger() {
	if e.logger != nil {
		e.logHandler = e.logger.Handler()
	} else {
		e.logHandler, e.logger = helpers.SetupLogger(e.logHandler, "goja", "Evaluator")
	}
}

func (e *Evaluator) applyDefaults() {
	e.maxCallStackSize = DefaultMaxCallStackSize
	e.interruptGrace = DefaultInterruptGrace
}
