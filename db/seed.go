package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"student-manager-go/models"
)

var seedStudents = []models.Draft{
	{Name: "Ana Torres", Phone: "555-0101", Address: "Av. Central 12", Note: "Delegada de curso"},
	{Name: "Luis Pérez", Phone: "555-0102", Address: "Calle 8 #34"},
	{Name: "María Gómez", Address: "Pasaje Los Olivos 5", Note: "Beca parcial\nRevisar en marzo"},
}

// SeedIfEmpty inserts sample students when the store has no rows. It
// reports whether anything was inserted.
func SeedIfEmpty(ctx context.Context, store DataStore, logger *zap.Logger) (bool, error) {
	existing, err := store.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existing students: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("Found existing students, skipping seed", zap.Int("count", len(existing)))
		return false, nil
	}

	logger.Info("No students found, adding sample data")
	for _, d := range seedStudents {
		if _, err := store.Insert(ctx, d); err != nil {
			return false, fmt.Errorf("failed to seed student %q: %w", d.Name, err)
		}
	}
	return true, nil
}
