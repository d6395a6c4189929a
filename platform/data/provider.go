package data

import (
	"context"
)

// Provider supplies the variables object bound into a script evaluation.
type Provider interface {
	// GetData returns the variables for one evaluation. Implementations must return a
	// map the caller may not mutate back into the provider.
	GetData(ctx context.Context) (map[string]any, error)
}
