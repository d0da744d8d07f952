package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"projector-server/internal/aspect"
	"projector-server/internal/models"
)

var (
	ErrProjectorNotFound = errors.New("projector not found")
	ErrInvalidSize       = errors.New("width and height must be positive")
)

const projectorColumns = `id, name, width, height, aspect_ratio_numerator,
	aspect_ratio_denominator, created_at, updated_at`

// ProjectorService manages stored projector records
type ProjectorService struct {
	database *sql.DB
}

// NewProjectorService creates a new projector service
func NewProjectorService(database *sql.DB) *ProjectorService {
	return &ProjectorService{
		database: database,
	}
}

// Create stores a projector with its classified aspect ratio
func (ps *ProjectorService) Create(ctx context.Context, name string, width, height float64) (*models.Projector, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}

	ratio := aspect.Classify(width, height)
	now := time.Now()
	projector := &models.Projector{
		ID:                     uuid.NewString(),
		Name:                   strings.TrimSpace(name),
		Width:                  width,
		Height:                 height,
		AspectRatioNumerator:   ratio.Numerator,
		AspectRatioDenominator: ratio.Denominator,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	query := `INSERT INTO projectors
		(id, name, width, height, aspect_ratio_numerator, aspect_ratio_denominator, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := ps.database.ExecContext(ctx, query,
		projector.ID, projector.Name, projector.Width, projector.Height,
		projector.AspectRatioNumerator, projector.AspectRatioDenominator,
		projector.CreatedAt, projector.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert projector: %w", err)
	}

	log.Printf("Projector created: ID=%s, size=%vx%v, ratio=%d:%d",
		projector.ID, width, height, ratio.Numerator, ratio.Denominator)
	return projector, nil
}

// Get returns a projector by ID
func (ps *ProjectorService) Get(ctx context.Context, id string) (*models.Projector, error) {
	row := ps.database.QueryRowContext(ctx,
		`SELECT `+projectorColumns+` FROM projectors WHERE id = ?`, id)

	projector, err := scanProjector(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrProjectorNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query projector: %w", err)
	}
	return projector, nil
}

// ListAll returns every projector, oldest first
func (ps *ProjectorService) ListAll(ctx context.Context) ([]*models.Projector, error) {
	rows, err := ps.database.QueryContext(ctx,
		`SELECT `+projectorColumns+` FROM projectors ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projectors: %w", err)
	}
	defer rows.Close()

	var projectors []*models.Projector
	for rows.Next() {
		projector, err := scanProjector(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan projector: %w", err)
		}
		projectors = append(projectors, projector)
	}

	return projectors, rows.Err()
}

// Save writes the projector's name, size and aspect ratio back
func (ps *ProjectorService) Save(ctx context.Context, projector *models.Projector) error {
	projector.UpdatedAt = time.Now()

	query := `UPDATE projectors
		SET name = ?, width = ?, height = ?, aspect_ratio_numerator = ?,
			aspect_ratio_denominator = ?, updated_at = ?
		WHERE id = ?`

	result, err := ps.database.ExecContext(ctx, query,
		projector.Name, projector.Width, projector.Height,
		projector.AspectRatioNumerator, projector.AspectRatioDenominator,
		projector.UpdatedAt, projector.ID)
	if err != nil {
		return fmt.Errorf("failed to update projector: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrProjectorNotFound, projector.ID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProjector(row rowScanner) (*models.Projector, error) {
	var projector models.Projector
	err := row.Scan(
		&projector.ID,
		&projector.Name,
		&projector.Width,
		&projector.Height,
		&projector.AspectRatioNumerator,
		&projector.AspectRatioDenominator,
		&projector.CreatedAt,
		&projector.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &projector, nil
}
