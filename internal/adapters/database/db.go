package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

// DBTX is the subset of *sqlx.DB and *sqlx.Tx the adapters need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var dialect = goqu.Dialect("postgres")

const (
	tableAppointments = "appointments"
	tableClients      = "clients"
	tableDefaultSlots = "client_default_slots"
	tableTrainers     = "trainers"
	tableShifts       = "shifts"
	tableNotification = "notifications"
	tableSettings     = "system_settings"

	uniqueViolation = "23505"
)

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

func build(b sqlBuilder) (string, []interface{}, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return "", nil, apperrors.NewInternalError("failed to build query", err)
	}
	return query, args, nil
}

// mapError converts driver errors into application errors.
func mapError(err error, notFound, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != "" {
		return apperrors.NewNotFoundError(notFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperrors.NewInternalError(fmt.Sprintf("%s: unique constraint %s violated", message, pqErr.Constraint), err)
	}
	return apperrors.NewInternalError(message, err)
}
