package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
)

var (
	trainerColumns = []interface{}{"id", "name", "created_at"}
	shiftColumns   = []interface{}{"id", "trainer_id", "day_of_week", "start_time", "end_time"}
)

// TrainerAdapter implements the TrainerRepository interface
type TrainerAdapter struct {
	db DBTX
}

// NewTrainerAdapter creates a new trainer adapter
func NewTrainerAdapter(db DBTX) *TrainerAdapter {
	return &TrainerAdapter{db: db}
}

// GetByID retrieves a trainer with shifts
func (a *TrainerAdapter) GetByID(ctx context.Context, id int64) (*entities.Trainer, error) {
	query, args, err := build(dialect.From(tableTrainers).Select(trainerColumns...).
		Where(goqu.C("id").Eq(id)).Prepared(true))
	if err != nil {
		return nil, err
	}

	trainer := &entities.Trainer{}
	if err := a.db.GetContext(ctx, trainer, query, args...); err != nil {
		return nil, mapError(err, fmt.Sprintf("trainer with id %d not found", id), "failed to get trainer")
	}

	shifts, err := a.shifts(ctx, goqu.C("trainer_id").Eq(id))
	if err != nil {
		return nil, err
	}
	trainer.Shifts = shifts
	return trainer, nil
}

// List returns all trainers with shifts, ascending by ID
func (a *TrainerAdapter) List(ctx context.Context) ([]*entities.Trainer, error) {
	query, args, err := build(dialect.From(tableTrainers).Select(trainerColumns...).
		Order(goqu.C("id").Asc()).Prepared(true))
	if err != nil {
		return nil, err
	}

	trainers := []*entities.Trainer{}
	if err := a.db.SelectContext(ctx, &trainers, query, args...); err != nil {
		return nil, mapError(err, "", "failed to list trainers")
	}

	shifts, err := a.shifts(ctx, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*entities.Trainer, len(trainers))
	for _, t := range trainers {
		byID[t.ID] = t
	}
	for _, s := range shifts {
		if t, ok := byID[s.TrainerID]; ok {
			t.Shifts = append(t.Shifts, s)
		}
	}
	return trainers, nil
}

func (a *TrainerAdapter) shifts(ctx context.Context, where exp.Expression) ([]entities.Shift, error) {
	ds := dialect.From(tableShifts).Select(shiftColumns...)
	if where != nil {
		ds = ds.Where(where)
	}
	query, args, err := build(ds.Order(goqu.C("trainer_id").Asc(), goqu.C("day_of_week").Asc(), goqu.C("start_time").Asc()).Prepared(true))
	if err != nil {
		return nil, err
	}

	shifts := []entities.Shift{}
	if err := a.db.SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, mapError(err, "", "failed to list shifts")
	}
	return shifts, nil
}

var _ repositories.TrainerRepository = (*TrainerAdapter)(nil)
