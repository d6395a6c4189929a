// Package loader reads script text (preludes and synthesized wrapper units) from
// inline strings, local files, or HTTP endpoints.
package loader

import (
	"io"
	"net/url"
)

// Loader is an interface used by the engines to load script source.
type Loader interface {
	GetReader() (io.ReadCloser, error)
	GetSourceURL() *url.URL
}
