package services

import (
	"context"
	"fmt"
	"time"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

// QuotaTracker checks weekly limits and credit balances
type QuotaTracker struct {
	appointments repositories.AppointmentRepository
}

// NewQuotaTracker creates a tracker bound to a session's ledger
func NewQuotaTracker(appointments repositories.AppointmentRepository) *QuotaTracker {
	return &QuotaTracker{appointments: appointments}
}

// WeeklyCount counts the client's active appointments in [weekStart, weekStart+7d)
func (q *QuotaTracker) WeeklyCount(ctx context.Context, clientID int64, weekStart time.Time) (int, error) {
	return q.appointments.CountActiveByClientBetween(ctx, clientID, weekStart, entities.WeekEnd(weekStart))
}

// RemainingQuota is the weekly limit minus the weekly count
func (q *QuotaTracker) RemainingQuota(ctx context.Context, client *entities.Client, weekStart time.Time) (int, error) {
	count, err := q.WeeklyCount(ctx, client.ID, weekStart)
	if err != nil {
		return 0, err
	}
	return client.WeeklyLimit - count, nil
}

// CheckWeeklyLimit fails when the client has no quota left in the week
func (q *QuotaTracker) CheckWeeklyLimit(ctx context.Context, client *entities.Client, weekStart time.Time) error {
	remaining, err := q.RemainingQuota(ctx, client, weekStart)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return apperrors.NewQuotaExceededError(fmt.Sprintf(
			"Weekly workout limit reached (%d sessions/week).", client.WeeklyLimit))
	}
	return nil
}

// CheckCredits fails when the client cannot pay for a booking
func (q *QuotaTracker) CheckCredits(client *entities.Client) error {
	if client.Credits <= 0 {
		return apperrors.NewQuotaExceededError("Client has 0 workout credits.")
	}
	return nil
}
