package repositories

import (
	"context"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
)

// ClientRepository defines read access to clients and their credit balance
type ClientRepository interface {
	// GetByID retrieves a client with default slots in stored order
	GetByID(ctx context.Context, id int64) (*entities.Client, error)

	// ListWithDefaultSlots returns clients that have at least one default slot, ascending by ID
	ListWithDefaultSlots(ctx context.Context) ([]*entities.Client, error)

	// AdjustCredits adds delta to the balance and returns the new value.
	// It fails with a quota error instead of letting the balance go negative.
	AdjustCredits(ctx context.Context, id int64, delta int) (int, error)
}
