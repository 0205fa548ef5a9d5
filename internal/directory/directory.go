package directory

import (
	"context"

	"github.com/muurk/nameloc/internal/roster"
)

// Directory is the external collaborator consulted by the form.
type Directory interface {
	// Locations returns the ordered set of selectable locations.
	Locations(ctx context.Context) ([]roster.Location, error)

	// CheckName reports whether name is available.
	CheckName(ctx context.Context, name string) (bool, error)
}
