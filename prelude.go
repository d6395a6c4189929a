package jsgate

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/robbyt/go-jsgate/platform/script/loader"
)

// LoadPrelude reads the whole prelude from l. The prelude is operator-trusted JavaScript
// that runs before the wrapper declaration in every evaluation.
func LoadPrelude(l loader.Loader) (string, error) {
	if l == nil {
		return "", fmt.Errorf("prelude loader is nil")
	}

	reader, err := l.GetReader()
	if err != nil {
		return "", fmt.Errorf("failed to open prelude %s: %w", l.GetSourceURL(), err)
	}
	defer func() { _ = reader.Close() }()

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read prelude %s: %w", l.GetSourceURL(), err)
	}
	if !utf8.Valid(body) {
		return "", fmt.Errorf("prelude %s is not valid UTF-8", l.GetSourceURL())
	}
	return string(body), nil
}
