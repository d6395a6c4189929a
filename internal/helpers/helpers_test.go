package helpers

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty string",
			in:   "",
			want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name: "basic string",
			in:   "hello world",
			want: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SHA256(tt.in))
		})
	}
}

func TestShortSHA256(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "b94d27b9", ShortSHA256("hello world", 8))
	assert.Len(t, ShortSHA256("hello world", 0), 64)
	assert.Len(t, ShortSHA256("hello world", 100), 64)
}

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("nil handler falls back to default", func(t *testing.T) {
		handler, logger := SetupLogger(nil, "goja", "Evaluator")
		require.NotNil(t, handler)
		require.NotNil(t, logger)
	})

	t.Run("group is applied", func(t *testing.T) {
		var buf bytes.Buffer
		base := slog.NewTextHandler(&buf, nil)
		handler, logger := SetupLogger(base, "goja", "Evaluator")
		assert.Equal(t, base, handler)

		logger.Info("hello", "key", "value")
		assert.Contains(t, buf.String(), "Evaluator.key=value")
	})

	t.Run("no group", func(t *testing.T) {
		var buf bytes.Buffer
		_, logger := SetupLogger(slog.NewTextHandler(&buf, nil), "goja", "")
		logger.Info("hello", "key", "value")
		assert.Contains(t, buf.String(), " key=value")
	})
}

func TestPreview(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abc", Preview("abc", 10))
	assert.Equal(t, "ab...", Preview("abcdef", 2))
	assert.Equal(t, "abcdef", Preview("abcdef", 0))
	// "é" is two bytes; cutting inside it backs off to the boundary
	assert.Equal(t, "a...", Preview("aéb", 2))
}
