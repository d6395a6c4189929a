package helpers

import (
	"log/slog"
	"os"
)

// SetupLogger returns the handler to hand down to child components and a logger for the
// caller. A nil handler is replaced with a text handler on stdout, grouped under component.
//
// Parameters:
//   - handler: The slog.Handler to use, or nil for defaults
//   - component: The name of the subsystem (e.g., "goja", "gateway")
//   - groupName: Optional additional group name within the component
func SetupLogger(
	handler slog.Handler,
	component string,
	groupName string,
) (slog.Handler, *slog.Logger) {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, nil).WithGroup(component)
		slog.New(handler).Warn("Handler is nil, using the default logger configuration.")
	}

	if groupName == "" {
		return handler, slog.New(handler)
	}
	return handler, slog.New(handler.WithGroup(groupName))
}

// Preview shortens untrusted text for log attributes.
func Preview(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	// back off to a rune boundary
	for limit > 0 && limit < len(s) && !isRuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
