package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

// InvigilatorRepository reads the invigilator pool.
type InvigilatorRepository struct {
	db *sqlx.DB
}

// NewInvigilatorRepository constructs an InvigilatorRepository.
func NewInvigilatorRepository(db *sqlx.DB) *InvigilatorRepository {
	return &InvigilatorRepository{db: db}
}

// List returns the pool ordered by name then id.
func (r *InvigilatorRepository) List(ctx context.Context) ([]models.Invigilator, error) {
	const query = `SELECT id, name, dept FROM invigilators ORDER BY name ASC, id ASC`
	var invigilators []models.Invigilator
	if err := r.db.SelectContext(ctx, &invigilators, query); err != nil {
		return nil, fmt.Errorf("list invigilators: %w", err)
	}
	return invigilators, nil
}
