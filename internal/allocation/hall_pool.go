package allocation

import (
	"context"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

type hallLister interface {
	List(ctx context.Context) ([]models.Hall, error)
}

// HallPool exposes the halls usable for a session in allocation order.
type HallPool struct {
	halls hallLister
}

// NewHallPool wraps the hall inventory.
func NewHallPool(halls hallLister) *HallPool {
	return &HallPool{halls: halls}
}

// Slots returns halls with positive capacity sorted by natural hall number and block.
func (p *HallPool) Slots(ctx context.Context) ([]models.Hall, error) {
	halls, err := p.halls.List(ctx)
	if err != nil {
		return nil, err
	}

	usable := make([]models.Hall, 0, len(halls))
	for _, h := range halls {
		if h.Capacity <= 0 {
			continue
		}
		usable = append(usable, h)
	}
	SortHalls(usable)

	return usable, nil
}
