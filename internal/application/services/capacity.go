package services

import (
	"context"
	"fmt"
	"time"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	"github.com/zatekoja/gymscheduler/pkg/config"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

// CapacityLimits are the per-timestamp caps enforced on the ledger
type CapacityLimits struct {
	TrainerCapacity   int
	MaxActiveTrainers int
	GymCapacity       int
}

// DefaultCapacityLimits returns 2 clients per trainer, 3 trainers and 6 clients per timestamp.
func DefaultCapacityLimits() CapacityLimits {
	return LimitsFromConfig(config.DefaultScheduling())
}

// LimitsFromConfig extracts the capacity limits from the scheduling configuration.
func LimitsFromConfig(cfg config.SchedulingConfig) CapacityLimits {
	return CapacityLimits{
		TrainerCapacity:   cfg.TrainerCapacity,
		MaxActiveTrainers: cfg.MaxActiveTrainers,
		GymCapacity:       cfg.GymCapacity,
	}
}

// CapacityEvaluator answers occupancy questions against one session.
// It holds no state, so every answer reflects the writes made so far in the session.
type CapacityEvaluator struct {
	appointments repositories.AppointmentRepository
	limits       CapacityLimits
}

// NewCapacityEvaluator creates an evaluator bound to a session's ledger
func NewCapacityEvaluator(appointments repositories.AppointmentRepository, limits CapacityLimits) *CapacityEvaluator {
	return &CapacityEvaluator{appointments: appointments, limits: limits}
}

// TrainerLoad counts the trainer's active appointments at ts
func (e *CapacityEvaluator) TrainerLoad(ctx context.Context, trainerID int64, ts time.Time) (int, error) {
	return e.appointments.CountActiveByTrainerAt(ctx, trainerID, ts)
}

// ActiveTrainerCount counts trainers with at least one active appointment at ts
func (e *CapacityEvaluator) ActiveTrainerCount(ctx context.Context, ts time.Time) (int, error) {
	return e.appointments.CountActiveTrainersAt(ctx, ts)
}

// GymLoad counts all active appointments at ts
func (e *CapacityEvaluator) GymLoad(ctx context.Context, ts time.Time) (int, error) {
	return e.appointments.CountActiveAt(ctx, ts)
}

// ShiftCovers reports whether one of the trainer's shifts on day contains the time of ts
func (e *CapacityEvaluator) ShiftCovers(trainer *entities.Trainer, day int, ts time.Time) bool {
	minute := entities.MinuteOfDay(ts)
	for _, shift := range trainer.Shifts {
		if shift.Covers(day, minute) {
			return true
		}
	}
	return false
}

// canTake applies the trainer and shift caps given fresh counts.
func (e *CapacityEvaluator) canTake(load, active int) bool {
	if load >= e.limits.TrainerCapacity {
		return false
	}
	return load > 0 || active < e.limits.MaxActiveTrainers
}

// CanAssign reports whether one more client fits with the trainer at ts
func (e *CapacityEvaluator) CanAssign(ctx context.Context, trainerID int64, ts time.Time) (bool, error) {
	load, err := e.TrainerLoad(ctx, trainerID, ts)
	if err != nil {
		return false, err
	}
	active, err := e.ActiveTrainerCount(ctx, ts)
	if err != nil {
		return false, err
	}
	return e.canTake(load, active), nil
}

// Candidates returns, in the order given, the trainers that cover (day, ts) and can take one more client.
// A full gym yields no candidates.
func (e *CapacityEvaluator) Candidates(ctx context.Context, trainers []*entities.Trainer, day int, ts time.Time) ([]*entities.Trainer, error) {
	gym, err := e.GymLoad(ctx, ts)
	if err != nil {
		return nil, err
	}
	if gym >= e.limits.GymCapacity {
		return nil, nil
	}

	active, err := e.ActiveTrainerCount(ctx, ts)
	if err != nil {
		return nil, err
	}

	var candidates []*entities.Trainer
	for _, trainer := range trainers {
		if !e.ShiftCovers(trainer, day, ts) {
			continue
		}
		load, err := e.TrainerLoad(ctx, trainer.ID, ts)
		if err != nil {
			return nil, err
		}
		if e.canTake(load, active) {
			candidates = append(candidates, trainer)
		}
	}
	return candidates, nil
}

// CheckBooking returns a capacity error when one more client with the trainer at ts would break a cap.
func (e *CapacityEvaluator) CheckBooking(ctx context.Context, trainerID int64, ts time.Time) error {
	gym, err := e.GymLoad(ctx, ts)
	if err != nil {
		return err
	}
	if gym >= e.limits.GymCapacity {
		return apperrors.NewCapacityExceededError(fmt.Sprintf(
			"Gym capacity reached for this time slot (Max %d clients).", e.limits.GymCapacity))
	}

	load, err := e.TrainerLoad(ctx, trainerID, ts)
	if err != nil {
		return err
	}
	if load >= e.limits.TrainerCapacity {
		return apperrors.NewCapacityExceededError(fmt.Sprintf(
			"Trainer is fully booked for this time slot (Max %d clients).", e.limits.TrainerCapacity))
	}

	if load == 0 {
		active, err := e.ActiveTrainerCount(ctx, ts)
		if err != nil {
			return err
		}
		if active >= e.limits.MaxActiveTrainers {
			return apperrors.NewCapacityExceededError(fmt.Sprintf(
				"Shift capacity reached (Max %d trainers per shift).", e.limits.MaxActiveTrainers))
		}
	}
	return nil
}
