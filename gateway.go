// Package jsgate is a JSON gateway that evaluates untrusted JavaScript snippets.
//
// A request names a snippet, a variables object and an optional timeout:
//
//	{"script": "a + 3", "variables": {"a": 3}, "timeout": 100}
//
// Every key of variables becomes a name the snippet can reference. The snippet runs on a
// fresh goja runtime after the operator's prelude, and the result is returned as JSON:
//
//	gw, _ := jsgate.New(jsgate.WithPrelude(prelude))
//	res := gw.Evaluate(ctx, payload)
//	os.Stdout.Write(res.Body) // 6
package jsgate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	gojaEngine "github.com/robbyt/go-jsgate/engines/goja"
	"github.com/robbyt/go-jsgate/engines/goja/compiler"
	"github.com/robbyt/go-jsgate/engines/goja/evaluator"
	"github.com/robbyt/go-jsgate/internal/helpers"
	"github.com/robbyt/go-jsgate/platform/request"
)

// Gateway evaluates requests. It is immutable after New and safe for concurrent use.
type Gateway struct {
	prelude          string
	defaultTimeout   time.Duration
	maxTimeout       time.Duration
	maxCallStackSize int
	interruptGrace   time.Duration
	strictNames      bool
	strictMode       bool

	logHandler slog.Handler
	logger     *slog.Logger
}

// Result is the outcome of one evaluation.
type Result struct {
	// Body is the encoded response: the result JSON, or an error envelope.
	Body []byte

	// Kind is KindOK on success.
	Kind Kind

	// Err is the failure, nil on success.
	Err error

	// Value is the JSON-model result, nil on failure.
	Value any

	// ID identifies the executable unit, empty when the request could not be parsed.
	ID string

	// Timeout is the effective deadline that was applied, zero when unbounded.
	Timeout time.Duration

	// ExecTime covers the whole request: parsing, synthesis, compilation and evaluation.
	ExecTime time.Duration
}

// OK reports whether the evaluation succeeded.
func (r *Result) OK() bool {
	return r.Kind == KindOK
}

// New creates a Gateway.
func New(opts ...Option) (*Gateway, error) {
	g := &Gateway{}
	g.applyDefaults()

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("error applying gateway option: %w", err)
		}
	}

	g.logHandler, g.logger = helpers.SetupLogger(g.logHandler, "jsgate", "Gateway")

	if g.defaultTimeout == 0 && g.maxTimeout == 0 {
		g.logger.Warn("no default or maximum timeout configured, requests without a timeout run unbounded")
	}
	if g.maxTimeout > 0 && g.defaultTimeout > g.maxTimeout {
		g.logger.Warn("default timeout exceeds max timeout and will be capped",
			"default", g.defaultTimeout, "max", g.maxTimeout)
	}
	return g, nil
}

func (g *Gateway) String() string {
	return fmt.Sprintf("jsgate.Gateway{DefaultTimeout: %s, MaxTimeout: %s, PreludeChars: %d}",
		g.defaultTimeout, g.maxTimeout, len(g.prelude))
}

// EffectiveTimeout applies the gateway's timeout policy to a requested timeout.
// Zero requests the default; every timeout is capped by the maximum when one is set.
// A zero return means the evaluation has no deadline.
func (g *Gateway) EffectiveTimeout(requested time.Duration) time.Duration {
	timeout := requested
	if timeout == 0 {
		timeout = g.defaultTimeout
	}
	if g.maxTimeout > 0 && (timeout == 0 || timeout > g.maxTimeout) {
		timeout = g.maxTimeout
	}
	return timeout
}

// Evaluate runs the wire request raw and always returns a Result with an encoded body.
func (g *Gateway) Evaluate(ctx context.Context, raw []byte) *Result {
	logger := g.logger.WithGroup("Evaluate")
	start := time.Now()

	res := &Result{}
	value, err := g.evaluate(ctx, raw, res)
	res.Body, res.Kind = encode(value, err)
	res.ExecTime = time.Since(start)

	if res.Kind == KindOK {
		res.Value = value
		logger.DebugContext(ctx, "evaluation succeeded", "id", res.ID, "execTime", res.ExecTime)
		return res
	}

	res.Err = err
	if res.Err == nil {
		res.Err = fmt.Errorf("%w: result could not be encoded", ErrInternal)
	}
	logger.InfoContext(ctx, "evaluation failed",
		"id", res.ID, "kind", res.Kind, "error", res.Err, "execTime", res.ExecTime)
	return res
}

func (g *Gateway) evaluate(ctx context.Context, raw []byte, res *Result) (any, error) {
	req, err := request.Parse(raw)
	if err != nil {
		return nil, err
	}

	res.Timeout = g.EffectiveTimeout(req.TimeoutDuration())
	if res.Timeout == 0 {
		g.logger.WarnContext(ctx, "evaluating without a deadline")
	}

	res.ID = uuid.NewString()
	eval, err := gojaEngine.NewEvaluator(g.logHandler, g.prelude, req,
		gojaEngine.WithUnitID(res.ID),
		gojaEngine.WithStrictNames(g.strictNames),
		gojaEngine.WithCompilerOptions(compiler.WithStrict(g.strictMode)),
		gojaEngine.WithEvaluatorOptions(
			evaluator.WithTimeout(res.Timeout),
			evaluator.WithMaxCallStackSize(g.maxCallStackSize),
			evaluator.WithInterruptGrace(g.interruptGrace),
		),
	)
	if err != nil {
		return nil, err
	}

	resp, err := eval.Eval(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Interface(), nil
}
