package evaluator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-jsgate/internal/helpers"
	"github.com/robbyt/go-jsgate/platform/data"
)

// execResult holds the JSON-model value returned by the wrapper.
type execResult struct {
	value       any
	execTime    time.Duration
	scriptExeID string
	logHandler  slog.Handler
	logger      *slog.Logger
}

func newEvalResult(
	handler slog.Handler,
	value any,
	execTime time.Duration,
	versionID string,
) *execResult {
	handler, logger := helpers.SetupLogger(handler, "goja", "execResult")
	return &execResult{
		value:       value,
		execTime:    execTime,
		scriptExeID: versionID,
		logHandler:  handler,
		logger:      logger,
	}
}

func (r *execResult) String() string {
	return fmt.Sprintf(
		"ExecResult{Type: %s, Value: %s, ExecTime: %s, ScriptExeID: %s}",
		r.Type(), r.Inspect(), r.GetExecTime(), r.GetScriptExeID())
}

func (r *execResult) Type() data.Types {
	return data.TypeOf(r.value)
}

// Inspect returns the value as compact JSON.
func (r *execResult) Inspect() string {
	b, err := json.Marshal(r.value)
	if err != nil {
		r.logger.Error("failed to marshal result", "error", err)
		return fmt.Sprintf("%v", r.value)
	}
	return string(b)
}

func (r *execResult) Interface() any {
	return r.value
}

func (r *execResult) GetScriptExeID() string {
	return r.scriptExeID
}

func (r *execResult) GetExecTime() string {
	return r.execTime.String()
}
