package script

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/robbyt/go-jsgate/internal/helpers"
	"github.com/robbyt/go-jsgate/platform/data"
	"github.com/robbyt/go-jsgate/platform/script/loader"
)

const snippetPreviewLength = 64

// ExecutableUnit is one compiled wrapper unit together with the snippet and variables it
// will be invoked with. Units are created per request and never reused.
type ExecutableUnit struct {
	// ID is a unique identifier for this unit, a random UUID unless the caller supplies one.
	ID string

	// CreatedAt records when this executable unit was instantiated.
	CreatedAt time.Time

	// ScriptLoader provided the synthesized source (prelude plus wrapper declaration).
	ScriptLoader loader.Loader

	// Compiler is the engine-specific compiler that was used to compile this unit.
	Compiler Compiler

	// Content holds the compiled program and its source.
	Content ExecutableContent

	// Snippet is the untrusted text handed to the wrapper's first parameter. It is never
	// compiled here; the interpreter evaluates it at call time.
	Snippet string

	// DataProvider supplies the variables object handed to the wrapper's second parameter.
	DataProvider data.Provider

	logHandler slog.Handler
	logger     *slog.Logger
}

// NewExecutableUnit loads the source from scriptLoader and compiles it with compiler.
// A nil dataProvider is replaced with an empty StaticProvider.
func NewExecutableUnit(
	handler slog.Handler,
	versionID string,
	scriptLoader loader.Loader,
	compiler Compiler,
	dataProvider data.Provider,
	snippet string,
) (*ExecutableUnit, error) {
	handler, logger := helpers.SetupLogger(handler, "script", "ExecutableUnit")

	if compiler == nil {
		return nil, ErrCompilerNil
	}
	if scriptLoader == nil {
		return nil, ErrLoaderNil
	}

	reader, err := scriptLoader.GetReader()
	if err != nil {
		return nil, fmt.Errorf("failed to get reader from loader: %w", err)
	}

	exe, err := compiler.Compile(reader)
	if err != nil {
		return nil, fmt.Errorf("compiler failed: %w", err)
	}

	if versionID == "" {
		versionID = uuid.NewString()
	}

	if dataProvider == nil {
		dataProvider = data.NewStaticProvider(nil)
	}

	logger = logger.With("ID", versionID)
	logger.Debug("executable unit created", "snippet", helpers.Preview(snippet, snippetPreviewLength))

	return &ExecutableUnit{
		ID:           versionID,
		CreatedAt:    time.Now(),
		ScriptLoader: scriptLoader,
		Compiler:     compiler,
		Content:      exe,
		Snippet:      snippet,
		DataProvider: dataProvider,
		logHandler:   handler,
		logger:       logger,
	}, nil
}

func (exe *ExecutableUnit) String() string {
	return fmt.Sprintf("ExecutableUnit{ID: %s, CreatedAt: %s, Compiler: %s, Loader: %s}",
		exe.ID, exe.CreatedAt, exe.Compiler, exe.ScriptLoader)
}

// GetID returns the unique identifier for this unit.
func (exe *ExecutableUnit) GetID() string {
	return exe.ID
}

// GetContent returns the compiled content.
func (exe *ExecutableUnit) GetContent() ExecutableContent {
	return exe.Content
}

// GetCreatedAt returns the timestamp when the unit was created.
func (exe *ExecutableUnit) GetCreatedAt() time.Time {
	return exe.CreatedAt
}

// GetCompiler returns the compiler used to build this unit.
func (exe *ExecutableUnit) GetCompiler() Compiler {
	return exe.Compiler
}

// GetLoader returns the loader used to load the source.
func (exe *ExecutableUnit) GetLoader() loader.Loader {
	return exe.ScriptLoader
}

// GetSnippet returns the untrusted snippet this unit will evaluate.
func (exe *ExecutableUnit) GetSnippet() string {
	return exe.Snippet
}

// GetDataProvider returns the data provider for this executable unit.
func (exe *ExecutableUnit) GetDataProvider() data.Provider {
	return exe.DataProvider
}
