package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

// HallRepository reads the hall inventory.
type HallRepository struct {
	db *sqlx.DB
}

// NewHallRepository constructs a HallRepository.
func NewHallRepository(db *sqlx.DB) *HallRepository {
	return &HallRepository{db: db}
}

// List returns all halls. Callers apply natural ordering on hall number.
func (r *HallRepository) List(ctx context.Context) ([]models.Hall, error) {
	const query = `SELECT id, hall_no, capacity, block, columns FROM halls ORDER BY hall_no ASC`
	var halls []models.Hall
	if err := r.db.SelectContext(ctx, &halls, query); err != nil {
		return nil, fmt.Errorf("list halls: %w", err)
	}
	return halls, nil
}
