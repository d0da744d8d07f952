package aspect

import (
	"context"
	"fmt"
	"log"

	"projector-server/internal/models"
)

// Repository lists and saves projector records during the classification pass
type Repository interface {
	ListAll(ctx context.Context) ([]*models.Projector, error)
	Save(ctx context.Context, projector *models.Projector) error
}

// MigrateAll assigns every stored projector its canonical aspect ratio.
// Records are processed sequentially; records saved before a failure stay saved.
func MigrateAll(ctx context.Context, repo Repository) (int, error) {
	projectors, err := repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list projectors: %w", err)
	}

	migrated := 0
	for _, projector := range projectors {
		ratio := Classify(projector.Width, projector.Height)
		projector.AspectRatioNumerator = ratio.Numerator
		projector.AspectRatioDenominator = ratio.Denominator

		if err := repo.Save(ctx, projector); err != nil {
			return migrated, fmt.Errorf("failed to save projector %s: %w", projector.ID, err)
		}
		migrated++
	}

	log.Printf("Aspect ratios assigned to %d projectors", migrated)
	return migrated, nil
}
