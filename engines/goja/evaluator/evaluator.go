package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	gojaLib "github.com/dop251/goja"

	"github.com/robbyt/go-jsgate/engines/goja/internal"
	"github.com/robbyt/go-jsgate/engines/goja/wrapper"
	"github.com/robbyt/go-jsgate/platform"
	"github.com/robbyt/go-jsgate/platform/script"
)

// illegalReturn is the goja parser message for a top-level return statement.
const illegalReturn = "Illegal return statement"

// Evaluator runs one executable unit on a fresh goja runtime.
type Evaluator struct {
	execUnit *script.ExecutableUnit

	timeout          time.Duration
	maxCallStackSize int
	interruptGrace   time.Duration

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates an Evaluator for execUnit.
func New(
	handler slog.Handler,
	execUnit *script.ExecutableUnit,
	opts ...FunctionalOption,
) (*Evaluator, error) {
	e := &Evaluator{
		execUnit:   execUnit,
		logHandler: handler,
	}
	e.applyDefaults()

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("error applying evaluator option: %w", err)
		}
	}

	e.setupLogger()
	return e, nil
}

func (e *Evaluator) String() string {
	return "goja.Evaluator"
}

// outcome is what the worker goroutine reports back.
type outcome struct {
	value any
	err   error
}

// Eval runs the unit: it installs the prelude and wrapper, calls
// wrapper(snippet, variables), and converts the return value to the JSON model.
// It returns within the configured timeout plus the interrupt grace.
func (e *Evaluator) Eval(ctx context.Context) (platform.EvaluatorResponse, error) {
	logger := e.logger.WithGroup("Eval")
	if e.execUnit == nil {
		return nil, ErrExecUnitNil
	}

	content := e.execUnit.GetContent()
	if content == nil {
		return nil, ErrContentNil
	}

	prog, ok := content.GetByteCode().(*gojaLib.Program)
	if !ok || prog == nil {
		return nil, fmt.Errorf(
			"%w: expected *goja.Program, got %T", ErrBytecodeInvalid, content.GetByteCode())
	}

	exeID := e.execUnit.GetID()
	logger = logger.With("exeID", exeID)
	logger.DebugContext(ctx, "starting evaluation",
		"compiler", e.execUnit.GetCompiler(),
		"loader", e.execUnit.GetLoader(),
		"unitAge", time.Since(e.execUnit.GetCreatedAt()),
	)

	variables, err := e.loadInputData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get input data: %w", err)
	}

	startTime := time.Now()
	value, err := e.exec(ctx, prog, e.execUnit.GetSnippet(), variables)
	execTime := time.Since(startTime)
	if err != nil {
		logger.WarnContext(ctx, "evaluation failed", "error", err, "execTime", execTime)
		return nil, err
	}

	result := newEvalResult(e.logHandler, value, execTime, exeID)
	logger.DebugContext(ctx, "exec complete", "result", result)
	return result, nil
}

// loadInputData retrieves the variables object from the unit's data provider.
func (e *Evaluator) loadInputData(ctx context.Context) (map[string]any, error) {
	provider := e.execUnit.GetDataProvider()
	if provider == nil {
		e.logger.WarnContext(ctx, "no data provider available, using empty data")
		return map[string]any{}, nil
	}
	return provider.GetData(ctx)
}

// exec runs the program on a worker goroutine and enforces the deadline.
func (e *Evaluator) exec(
	ctx context.Context,
	prog *gojaLib.Program,
	snippet string,
	variables map[string]any,
) (any, error) {
	logger := e.logger.WithGroup("exec")

	var runCtx context.Context
	var cancel context.CancelFunc
	if e.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	vm := gojaLib.New()
	vm.SetMaxCallStackSize(e.maxCallStackSize)

	var interrupted atomic.Bool
	done := make(chan outcome, 1)
	go func() {
		value, err := e.run(vm, prog, snippet, variables, interrupted.Load)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-runCtx.Done():
	}

	interrupted.Store(true)
	vm.Interrupt(runCtx.Err())
	stopErr := e.stopError(ctx)
	logger.WarnContext(ctx, "interrupting runtime", "timeout", e.timeout, "error", stopErr)

	grace := time.NewTimer(e.interruptGrace)
	defer grace.Stop()

	select {
	case out := <-done:
		if out.err == nil {
			// finished right at the deadline
			return out.value, nil
		}
		return nil, stopErr
	case <-grace.C:
		logger.ErrorContext(ctx, "runtime did not stop within grace period, abandoning worker",
			"grace", e.interruptGrace)
		return nil, stopErr
	}
}

// stopError classifies why the run context ended: the caller's context or our own deadline.
func (e *Evaluator) stopError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRuntimeFailure, err)
	}
	return fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
}

// run executes on the worker goroutine and owns vm for its whole lifetime.
func (e *Evaluator) run(
	vm *gojaLib.Runtime,
	prog *gojaLib.Program,
	snippet string,
	variables map[string]any,
	stop func() bool,
) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("%w: panic: %v", ErrRuntimeFailure, r)
		}
	}()

	// built before the prelude or snippet can reassign the globals it snapshots
	conv := internal.NewResultConverter(vm, stop)

	if _, err := vm.RunProgram(prog); err != nil {
		return nil, fmt.Errorf("%w: prelude: %w", ErrCompileFailure, describeRuntimeError(err))
	}

	entry, ok := gojaLib.AssertFunction(vm.Get(wrapper.EntryPoint))
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a function", ErrCompileFailure, wrapper.EntryPoint)
	}

	arg, err := internal.ConvertToGojaValue(vm, variables)
	if err != nil {
		return nil, fmt.Errorf("%w: variables: %w", ErrRuntimeFailure, err)
	}

	ret, err := entry(gojaLib.Undefined(), vm.ToValue(snippet), arg)
	if err != nil && isIllegalReturn(err, snippet) {
		e.logger.Debug("snippet uses top-level return, retrying as function body")
		ret, err = entry(gojaLib.Undefined(), vm.ToValue(asFunctionBody(snippet)), arg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntimeFailure, describeRuntimeError(err))
	}

	value, err = conv.Convert(ret)
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, internal.ErrUnsupportedValue):
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedResultType, err)
	default:
		return nil, fmt.Errorf("%w: %w", ErrRuntimeFailure, err)
	}
}

// isIllegalReturn reports whether err is the SyntaxError eval raises for a top-level return.
// The thrown value must be a SyntaxError and the snippet itself must fail to parse for that
// reason, so a snippet that throws the same message at run time is never executed twice.
func isIllegalReturn(err error, snippet string) bool {
	var exc *gojaLib.Exception
	if !errors.As(err, &exc) {
		return false
	}
	thrown, ok := exc.Value().(*gojaLib.Object)
	if !ok || thrown.ClassName() != "Error" {
		return false
	}
	if name := thrown.Get("name"); name == nil || name.String() != "SyntaxError" {
		return false
	}
	if !strings.Contains(exc.Error(), illegalReturn) {
		return false
	}

	_, parseErr := gojaLib.Compile("", snippet, false)
	var syntaxErr *gojaLib.CompilerSyntaxError
	return errors.As(parseErr, &syntaxErr) && strings.Contains(syntaxErr.Error(), illegalReturn)
}

// describeRuntimeError replaces errors whose text carries no information.
func describeRuntimeError(err error) error {
	var overflow *gojaLib.StackOverflowError
	if errors.As(err, &overflow) {
		return ErrStackOverflow
	}
	return err
}

// asFunctionBody wraps a statement list so a top-level return yields its value while the
// enclosing wrapper bindings stay in scope.
func asFunctionBody(snippet string) string {
	return "(function(){" + snippet + "\n}).call(this)"
}
