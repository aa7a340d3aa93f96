package allocation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

type stubHallLister struct {
	halls []models.Hall
	err   error
}

func (s stubHallLister) List(ctx context.Context) ([]models.Hall, error) {
	return s.halls, s.err
}

func TestHallPoolSlots(t *testing.T) {
	pool := NewHallPool(stubHallLister{halls: []models.Hall{
		{HallNo: "H10", Capacity: 20},
		{HallNo: "H2", Capacity: 0},
		{HallNo: "H1", Capacity: 30},
	}})

	halls, err := pool.Slots(context.Background())
	require.NoError(t, err)
	require.Len(t, halls, 2)
	assert.Equal(t, "H1", halls[0].HallNo)
	assert.Equal(t, "H10", halls[1].HallNo)
}

func TestHallPoolSlotsError(t *testing.T) {
	pool := NewHallPool(stubHallLister{err: errors.New("boom")})

	_, err := pool.Slots(context.Background())
	assert.Error(t, err)
}
