package ports

import (
	"context"

	"github.com/aretw0/cedar/pkg/domain"
)

// DefinitionStore persists chart definitions so they can be rendered later
// (e.g. by the HTTP server or the MCP adapter).
type DefinitionStore interface {
	// Save persists the definition under the given ID, replacing any previous one.
	Save(ctx context.Context, id string, def *domain.Definition) error

	// Load retrieves a definition by ID.
	// Returns domain.ErrDefinitionNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.Definition, error)

	// Delete removes the definition for a given ID.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored definitions.
	List(ctx context.Context) ([]string, error)
}
