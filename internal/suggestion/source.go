package suggestion

import (
	"context"

	"github.com/julianstephens/gradually/internal/models"
)

// Source produces newline-delimited suggestion text from a habit snapshot.
// Implementations may be slow or fail; callers bound them with a timeout.
type Source interface {
	GenerateSuggestions(ctx context.Context, habits []models.HabitData) (string, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context, habits []models.HabitData) (string, error)

func (f SourceFunc) GenerateSuggestions(ctx context.Context, habits []models.HabitData) (string, error) {
	return f(ctx, habits)
}
