package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-jsgate/internal/config"
)

// writeTestConfig keeps logs quiet and optionally appends extra YAML.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jsgate.yaml")
	body := "log:\n  level: error\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEvalCommand(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	t.Run("success from stdin", func(t *testing.T) {
		out, _, err := runCLI(t, `{"script": "a+3", "variables": {"a": 3}, "timeout": 100}`,
			"eval", "--config", cfgPath)
		require.NoError(t, err)
		assert.Equal(t, "6\n", out)
	})

	t.Run("success from file", func(t *testing.T) {
		reqPath := filepath.Join(t.TempDir(), "req.json")
		require.NoError(t, os.WriteFile(reqPath,
			[]byte(`{"script": "return 1", "variables": {"a": 2, "b": [1, 2, 3]}}`), 0o600))

		out, _, err := runCLI(t, "", "eval", "--config", cfgPath, "--file", reqPath)
		require.NoError(t, err)
		assert.Equal(t, "1\n", out)
	})

	t.Run("failure prints envelope and errors", func(t *testing.T) {
		out, _, err := runCLI(t, `{"script": "1", "variables": [1, 2, 3]}`, "eval", "--config", cfgPath)
		require.ErrorIs(t, err, errEvaluationFailed)
		assert.Contains(t, out, `"kind":"binding_error"`)
	})

	t.Run("timeout", func(t *testing.T) {
		out, _, err := runCLI(t, `{"script": "while(true){}", "variables": {}, "timeout": 50}`,
			"eval", "--config", cfgPath)
		require.ErrorIs(t, err, errEvaluationFailed)
		assert.Contains(t, out, `"kind":"timeout"`)
	})

	t.Run("missing request file", func(t *testing.T) {
		_, _, err := runCLI(t, "", "eval", "--config", cfgPath, "--file", "/does/not/exist.json")
		require.Error(t, err)
		assert.NotErrorIs(t, err, errEvaluationFailed)
	})

	t.Run("prelude override", func(t *testing.T) {
		out, _, err := runCLI(t, `{"script": "twice(a)", "variables": {"a": 4}}`,
			"eval", "--config", cfgPath, "--prelude", "function twice(x) { return x * 2 }")
		require.NoError(t, err)
		assert.Equal(t, "8\n", out)
	})

	t.Run("bad config", func(t *testing.T) {
		_, _, err := runCLI(t, "{}", "eval", "--config", writeTestConfig(t, "server:\n  max_concurrent: -1\n"))
		require.Error(t, err)
	})
}

func TestPreludeLoader(t *testing.T) {
	t.Parallel()

	t.Run("none configured", func(t *testing.T) {
		l, err := preludeLoader(config.PreludeConfig{}, "")
		require.NoError(t, err)
		assert.Nil(t, l)
	})

	t.Run("inline", func(t *testing.T) {
		l, err := preludeLoader(config.PreludeConfig{Inline: "var x = 1;"}, "")
		require.NoError(t, err)
		assert.Equal(t, "string", l.GetSourceURL().Scheme)
	})

	t.Run("path", func(t *testing.T) {
		l, err := preludeLoader(config.PreludeConfig{Path: "/etc/jsgate/prelude.js"}, "")
		require.NoError(t, err)
		assert.Equal(t, "file", l.GetSourceURL().Scheme)
	})

	t.Run("relative path rejected", func(t *testing.T) {
		_, err := preludeLoader(config.PreludeConfig{Path: "prelude.js"}, "")
		require.Error(t, err)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := preludeLoader(config.PreludeConfig{URL: "ftp://example.com/p.js"}, "")
		require.Error(t, err)
	})

	t.Run("override wins", func(t *testing.T) {
		l, err := preludeLoader(config.PreludeConfig{Inline: "var x = 1;"}, "https://example.com/p.js")
		require.NoError(t, err)
		assert.Equal(t, "https", l.GetSourceURL().Scheme)
	})
}

func TestBuildGatewayHTTPPrelude(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("var BASE = 40;"))
	}))
	t.Cleanup(ts.Close)

	cfg, err := config.Load(writeTestConfig(t, "prelude:\n  url: "+ts.URL+"\n  headers:\n    X-Token: secret\n"))
	require.NoError(t, err)

	gw, err := buildGateway(cfg, cfg.Log.Handler(&bytes.Buffer{}), "")
	require.NoError(t, err)

	res := gw.Evaluate(t.Context(), []byte(`{"script": "BASE + n", "variables": {"n": 2}}`))
	assert.Equal(t, "42", string(res.Body))
}
