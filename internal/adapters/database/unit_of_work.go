package database

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

// UnitOfWork implements repositories.UnitOfWork on PostgreSQL transactions
type UnitOfWork struct {
	client  *postgres.Client
	metrics *observability.Metrics
}

// NewUnitOfWork creates a new unit of work
func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	return &UnitOfWork{client: client}
}

// SetMetrics enables transaction duration metrics
func (u *UnitOfWork) SetMetrics(m *observability.Metrics) {
	u.metrics = m
}

// Do runs fn inside a transaction and commits when fn returns nil
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s repositories.Session) error) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBMetric(ctx, u.metrics, "unit_of_work", time.Since(start))
	}()

	tx, err := u.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, NewSession(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, context.Canceled) {
			log.Warn().Err(rbErr).Msg("Transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}

type session struct {
	db DBTX
}

// NewSession binds repositories to db, usually a *sqlx.Tx
func NewSession(db DBTX) repositories.Session {
	return &session{db: db}
}

func (s *session) Appointments() repositories.AppointmentRepository {
	return NewAppointmentAdapter(s.db)
}

func (s *session) Clients() repositories.ClientRepository {
	return NewClientAdapter(s.db)
}

func (s *session) Trainers() repositories.TrainerRepository {
	return NewTrainerAdapter(s.db)
}

func (s *session) Notifications() repositories.NotificationRepository {
	return NewNotificationAdapter(s.db)
}

func (s *session) Settings() repositories.SettingsRepository {
	return NewSettingsAdapter(s.db)
}

var (
	_ repositories.UnitOfWork = (*UnitOfWork)(nil)
	_ DBTX                    = (*sqlx.Tx)(nil)
	_ DBTX                    = (*sqlx.DB)(nil)
)
