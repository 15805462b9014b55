package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

const truncateAll = `TRUNCATE TABLE
	notifications,
	appointments,
	client_default_slots,
	clients,
	shifts,
	trainers,
	system_settings
RESTART IDENTITY CASCADE`

// SeedRoster upserts trainers and clients with their explicit IDs and replaces
// their shifts and default slots. With reset, every table is truncated first.
func SeedRoster(ctx context.Context, db DBTX, roster *entities.Roster, reset bool) error {
	if reset {
		if _, err := db.ExecContext(ctx, truncateAll); err != nil {
			return apperrors.NewInternalError("failed to truncate tables", err)
		}
	}

	for _, t := range roster.Trainers {
		if err := exec(ctx, db, dialect.Insert(tableTrainers).
			Rows(goqu.Record{"id": t.ID, "name": t.Name}).
			OnConflict(goqu.DoUpdate("id", goqu.Record{"name": goqu.L("EXCLUDED.name")})).
			Prepared(true), "failed to seed trainer"); err != nil {
			return err
		}
		if err := exec(ctx, db, dialect.Delete(tableShifts).
			Where(goqu.C("trainer_id").Eq(t.ID)).Prepared(true), "failed to clear shifts"); err != nil {
			return err
		}
		for _, s := range t.Shifts {
			if err := exec(ctx, db, dialect.Insert(tableShifts).Rows(goqu.Record{
				"trainer_id":  t.ID,
				"day_of_week": s.DayOfWeek,
				"start_time":  s.StartTime,
				"end_time":    s.EndTime,
			}).Prepared(true), "failed to seed shift"); err != nil {
				return err
			}
		}
	}

	for _, c := range roster.Clients {
		if err := exec(ctx, db, dialect.Insert(tableClients).Rows(goqu.Record{
			"id":           c.ID,
			"email":        c.Email,
			"name":         c.Name,
			"phone_number": c.PhoneNumber,
			"weekly_limit": c.WeeklyLimit,
			"credits":      c.Credits,
		}).OnConflict(goqu.DoUpdate("id", goqu.Record{
			"email":        goqu.L("EXCLUDED.email"),
			"name":         goqu.L("EXCLUDED.name"),
			"phone_number": goqu.L("EXCLUDED.phone_number"),
			"weekly_limit": goqu.L("EXCLUDED.weekly_limit"),
			"credits":      goqu.L("EXCLUDED.credits"),
		})).Prepared(true), "failed to seed client"); err != nil {
			return err
		}
		if err := exec(ctx, db, dialect.Delete(tableDefaultSlots).
			Where(goqu.C("client_id").Eq(c.ID)).Prepared(true), "failed to clear default slots"); err != nil {
			return err
		}
		for _, s := range c.DefaultSlots {
			if err := exec(ctx, db, dialect.Insert(tableDefaultSlots).Rows(goqu.Record{
				"client_id":   c.ID,
				"day_of_week": s.DayOfWeek,
				"start_time":  s.StartTime,
				"position":    s.Position,
			}).Prepared(true), "failed to seed default slot"); err != nil {
				return err
			}
		}
	}

	// explicit IDs bypass the sequences
	for _, table := range []string{tableTrainers, tableClients} {
		stmt := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), COALESCE((SELECT MAX(id) FROM " + table + "), 1))"
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return apperrors.NewInternalError("failed to advance id sequence", err)
		}
	}
	return nil
}

func exec(ctx context.Context, db DBTX, ds sqlBuilder, msg string) error {
	query, args, err := build(ds)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "", msg)
	}
	return nil
}
