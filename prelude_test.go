package jsgate

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-jsgate/platform/script/loader"
)

func TestLoadPrelude(t *testing.T) {
	t.Parallel()

	t.Run("from string", func(t *testing.T) {
		l, err := loader.NewFromString("var PI = 3.14;")
		require.NoError(t, err)

		prelude, err := LoadPrelude(l)
		require.NoError(t, err)
		assert.Equal(t, "var PI = 3.14;", prelude)
	})

	t.Run("from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prelude.js")
		require.NoError(t, os.WriteFile(path, []byte("function id(x) { return x }\n"), 0o600))

		l, err := loader.NewFromDisk(path)
		require.NoError(t, err)

		prelude, err := LoadPrelude(l)
		require.NoError(t, err)
		assert.Equal(t, "function id(x) { return x }\n", prelude)

		gw := newTestGateway(t, WithPrelude(prelude))
		res := gw.Evaluate(t.Context(), []byte(`{"script": "id(v)", "variables": {"v": [1]}}`))
		assert.Equal(t, "[1]", string(res.Body))
	})

	t.Run("nil loader", func(t *testing.T) {
		_, err := LoadPrelude(nil)
		require.Error(t, err)
	})

	t.Run("reader error", func(t *testing.T) {
		l := &loader.MockLoader{}
		l.On("GetReader").Return(nil, loader.ErrScriptNotAvailable)
		l.On("GetSourceURL").Return(&url.URL{Scheme: "mock"})

		_, err := LoadPrelude(l)
		require.ErrorIs(t, err, loader.ErrScriptNotAvailable)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		l := loader.NewMockLoaderWithContent([]byte("var s = '\xff';"))
		l.On("GetSourceURL").Return(&url.URL{Scheme: "mock"})
		_, err := LoadPrelude(l)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UTF-8")
	})

	t.Run("read failure", func(t *testing.T) {
		l := &loader.MockLoader{}
		l.On("GetReader").Return(io.NopCloser(errReader{}), nil)
		l.On("GetSourceURL").Return(&url.URL{Scheme: "mock"})

		_, err := LoadPrelude(l)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read prelude")
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }
