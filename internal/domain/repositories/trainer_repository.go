package repositories

import (
	"context"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
)

// TrainerRepository is the availability registry
type TrainerRepository interface {
	// GetByID retrieves a trainer with shifts
	GetByID(ctx context.Context, id int64) (*entities.Trainer, error)

	// List returns all trainers with shifts, ascending by ID
	List(ctx context.Context) ([]*entities.Trainer, error)
}
