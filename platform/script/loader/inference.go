package loader

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// InferLoader picks a loader from the shape of input:
//   - http:// or https:// URLs load over HTTP with DefaultHTTPOptions
//   - file:// URLs and absolute paths load from disk
//   - anything else is treated as inline script text
func InferLoader(input string) (Loader, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrInputEmpty
	}

	if parsed, err := url.Parse(input); err == nil && parsed.Scheme != "" {
		switch parsed.Scheme {
		case "http", "https":
			return NewFromHTTP(input)
		case "file":
			if !filepath.IsAbs(parsed.Path) {
				return nil, fmt.Errorf("%w: relative paths are not supported", ErrScriptNotAvailable)
			}
			return NewFromDisk(parsed.Path)
		}
	}

	// a single line starting at the root is a path, not JavaScript
	if filepath.IsAbs(input) && !strings.ContainsAny(input, "\n;(){}") {
		return NewFromDisk(input)
	}

	return NewFromString(input)
}
