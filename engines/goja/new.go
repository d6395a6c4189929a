// Package goja evaluates untrusted JavaScript snippets against a JSON variables object.
//
// A request is turned into a wrapper unit (see package wrapper), compiled with goja,
// and run on a fresh runtime under a wall-clock deadline.
package goja

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-jsgate/engines/goja/compiler"
	"github.com/robbyt/go-jsgate/engines/goja/evaluator"
	"github.com/robbyt/go-jsgate/engines/goja/wrapper"
	"github.com/robbyt/go-jsgate/internal/helpers"
	"github.com/robbyt/go-jsgate/platform/binding"
	"github.com/robbyt/go-jsgate/platform/data"
	"github.com/robbyt/go-jsgate/platform/request"
	"github.com/robbyt/go-jsgate/platform/script"
	"github.com/robbyt/go-jsgate/platform/script/loader"
)

// Option adjusts how NewEvaluator builds a unit.
type Option func(*settings)

type settings struct {
	strictNames    bool
	compilerOpts   []compiler.FunctionalOption
	evaluatorOpts  []evaluator.FunctionalOption
	unitIDOverride string
}

// WithStrictNames rejects variables keys that are not plain identifiers before synthesis.
func WithStrictNames(strict bool) Option {
	return func(s *settings) {
		s.strictNames = strict
	}
}

// WithCompilerOptions passes options through to the goja compiler.
func WithCompilerOptions(opts ...compiler.FunctionalOption) Option {
	return func(s *settings) {
		s.compilerOpts = append(s.compilerOpts, opts...)
	}
}

// WithEvaluatorOptions passes options through to the evaluator. They are applied after
// the request's own timeout, so WithTimeout here overrides it.
func WithEvaluatorOptions(opts ...evaluator.FunctionalOption) Option {
	return func(s *settings) {
		s.evaluatorOpts = append(s.evaluatorOpts, opts...)
	}
}

// WithUnitID sets the executable unit ID instead of generating a random one.
func WithUnitID(id string) Option {
	return func(s *settings) {
		s.unitIDOverride = id
	}
}

// NewEvaluator resolves the bindings of req, synthesizes the wrapper around prelude,
// compiles it, and returns an evaluator ready to run req.Script.
func NewEvaluator(
	handler slog.Handler,
	prelude string,
	req *request.EvaluationRequest,
	opts ...Option,
) (*evaluator.Evaluator, error) {
	handler, logger := helpers.SetupLogger(handler, "goja", "NewEvaluator")
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", request.ErrParse)
	}

	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	bindings, err := binding.Resolve(req.Variables)
	if err != nil {
		return nil, err
	}
	if s.strictNames {
		if err := binding.Validate(bindings); err != nil {
			return nil, err
		}
	}
	logger.Debug("bindings resolved", "bindings", bindings)

	source, err := wrapper.Render(prelude, bindings)
	if err != nil {
		return nil, err
	}

	sourceLoader, err := loader.NewFromString(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", wrapper.ErrRender, err)
	}

	compilerOpts := append([]compiler.FunctionalOption{compiler.WithLogHandler(handler)}, s.compilerOpts...)
	comp, err := compiler.New(compilerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create compiler: %w", err)
	}

	// Resolve already guaranteed the object shape.
	variables, _ := req.Variables.(map[string]any)
	unit, err := script.NewExecutableUnit(
		handler,
		s.unitIDOverride,
		sourceLoader,
		comp,
		data.NewStaticProvider(variables),
		req.Script,
	)
	if err != nil {
		return nil, err
	}

	evalOpts := append(
		[]evaluator.FunctionalOption{evaluator.WithTimeout(req.TimeoutDuration())},
		s.evaluatorOpts...,
	)
	return evaluator.New(handler, unit, evalOpts...)
}
