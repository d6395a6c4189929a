package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	gojaLib "github.com/dop251/goja"

	"github.com/robbyt/go-jsgate/platform/script"
)

// sourceName is the file name goja reports in stack traces and syntax errors.
const sourceName = "wrapper.js"

// Compiler turns synthesized wrapper source into a *goja.Program.
type Compiler struct {
	strict     bool
	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a goja Compiler with the provided options.
func New(opts ...FunctionalOption) (*Compiler, error) {
	c := &Compiler{}
	c.applyDefaults()

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("error applying compiler option: %w", err)
		}
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid compiler configuration: %w", err)
	}

	c.setupLogger()
	return c, nil
}

func (c *Compiler) String() string {
	return "goja.Compiler"
}

// Compile reads and closes scriptReader, then compiles its content.
func (c *Compiler) Compile(scriptReader io.ReadCloser) (script.ExecutableContent, error) {
	if scriptReader == nil {
		return nil, ErrContentNil
	}

	scriptBodyBytes, err := io.ReadAll(scriptReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	if err := scriptReader.Close(); err != nil {
		return nil, fmt.Errorf("failed to close reader: %w", err)
	}

	return c.compile(scriptBodyBytes)
}

func (c *Compiler) compile(scriptBodyBytes []byte) (*Executable, error) {
	logger := c.logger.WithGroup("compile")
	if len(scriptBodyBytes) == 0 {
		logger.Error("Compile called with empty script")
		return nil, ErrContentNil
	}
	if !utf8.Valid(scriptBodyBytes) {
		return nil, fmt.Errorf("%w: source is not valid UTF-8", ErrCompileFailure)
	}

	source := string(scriptBodyBytes)
	logger.Debug("Starting compilation", "strict", c.strict, "bytes", len(scriptBodyBytes))

	program, err := gojaLib.Compile(sourceName, source, c.strict)
	if err != nil {
		logger.Warn("Compilation failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCompileFailure, err)
	}

	exe := NewExecutable(source, program)
	if exe == nil {
		logger.Error("Compilation returned nil program")
		return nil, ErrExecCreationFailed
	}

	logger.Debug("Compilation completed")
	return exe, nil
}
