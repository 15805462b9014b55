package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

var monday9 = time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "postgres")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func appointmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "trainer_id", "client_id", "client_name", "client_email",
		"start_time", "status", "created_at", "updated_at",
	})
}

func TestAppointmentAdapter_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO "appointments" .* RETURNING "id", "created_at", "updated_at"`).
		WithArgs("ada@gym.test", int64(1), "Ada", monday9, "confirmed", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	appt := &entities.Appointment{
		TrainerID:   2,
		ClientID:    1,
		ClientName:  "Ada",
		ClientEmail: "ada@gym.test",
		StartTime:   monday9,
		Status:      entities.AppointmentStatusConfirmed,
	}
	require.NoError(t, NewAppointmentAdapter(db).Create(context.Background(), appt))
	assert.Equal(t, int64(11), appt.ID)
	assert.Equal(t, now, appt.CreatedAt)
}

func TestAppointmentAdapter_CreateUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`INSERT INTO "appointments"`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_appointments_client_start"})

	err := NewAppointmentAdapter(db).Create(context.Background(), &entities.Appointment{StartTime: monday9})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.Contains(t, err.Error(), "uq_appointments_client_start")
}

func TestAppointmentAdapter_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM "appointments" WHERE \("id" = \$1\)`).
		WithArgs(int64(5)).
		WillReturnRows(appointmentRows().AddRow(int64(5), int64(2), int64(1), "Ada", "ada@gym.test", monday9, "confirmed", now, now))
	mock.ExpectQuery(`SELECT .* FROM "appointments"`).
		WithArgs(int64(6)).
		WillReturnRows(appointmentRows())

	adapter := NewAppointmentAdapter(db)
	appt, err := adapter.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, entities.AppointmentStatusConfirmed, appt.Status)
	assert.Equal(t, monday9, appt.StartTime)

	_, err = adapter.GetByID(context.Background(), 6)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestAppointmentAdapter_UpdateMissing(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec(`UPDATE "appointments" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewAppointmentAdapter(db).Update(context.Background(), &entities.Appointment{ID: 9, StartTime: monday9})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestAppointmentAdapter_Counts(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewAppointmentAdapter(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "appointments" WHERE \(\("trainer_id" = \$1\) AND \("start_time" = \$2\) AND \("status" != \$3\)\)`).
		WithArgs(int64(1), monday9, "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT\("trainer_id"\)\) FROM "appointments"`).
		WithArgs(monday9, "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "appointments" WHERE \(\("client_id" = \$1\) AND \("start_time" >= \$2\) AND \("start_time" < \$3\)`).
		WithArgs(int64(4), monday9, monday9.AddDate(0, 0, 7), "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	load, err := adapter.CountActiveByTrainerAt(ctx, 1, monday9)
	require.NoError(t, err)
	assert.Equal(t, 2, load)

	active, err := adapter.CountActiveTrainersAt(ctx, monday9)
	require.NoError(t, err)
	assert.Equal(t, 3, active)

	weekly, err := adapter.CountActiveByClientBetween(ctx, 4, monday9, monday9.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, 1, weekly)
}

func TestAppointmentAdapter_ListActiveAtOrdersByID(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM "appointments" WHERE .* ORDER BY "id" ASC`).
		WithArgs(monday9, "cancelled").
		WillReturnRows(appointmentRows().
			AddRow(int64(1), int64(1), int64(2), "Bo", "bo@gym.test", monday9, "confirmed", now, now).
			AddRow(int64(2), int64(1), int64(3), "Cy", "cy@gym.test", monday9, "confirmed", now, now))

	out, err := NewAppointmentAdapter(db).ListActiveAt(context.Background(), monday9)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].ClientID)
}

func TestAppointmentAdapter_ListFilter(t *testing.T) {
	db, mock := setupMockDB(t)
	clientID := int64(3)
	to := monday9.AddDate(0, 0, 7)

	mock.ExpectQuery(`SELECT .* FROM "appointments" WHERE .* ORDER BY "start_time" ASC, "id" ASC LIMIT \$4 OFFSET \$5`).
		WithArgs(clientID, monday9, to, int64(10), int64(20)).
		WillReturnRows(appointmentRows())

	out, err := NewAppointmentAdapter(db).List(context.Background(), repositories.AppointmentFilter{
		ClientID: &clientID, From: &monday9, To: &to, Limit: 10, Offset: 20,
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAppointmentAdapter_DeleteBetween(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec(`DELETE FROM "appointments" WHERE`).
		WithArgs(monday9, monday9.AddDate(0, 0, 7)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := NewAppointmentAdapter(db).DeleteBetween(context.Background(), monday9, monday9.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestClientAdapter_AdjustCredits(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewClientAdapter(db)
	ctx := context.Background()

	mock.ExpectQuery(`UPDATE "clients" SET .*credits \+ \$.* RETURNING "credits"`).
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(9))
	remaining, err := adapter.AdjustCredits(ctx, 1, -1)
	require.NoError(t, err)
	assert.Equal(t, 9, remaining)

	mock.ExpectQuery(`UPDATE "clients" SET`).WillReturnRows(sqlmock.NewRows([]string{"credits"}))
	mock.ExpectQuery(`SELECT "credits" FROM "clients"`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(0))
	_, err = adapter.AdjustCredits(ctx, 1, -1)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeQuotaExceeded))
	assert.Contains(t, err.Error(), "Client has 0 workout credits.")

	mock.ExpectQuery(`UPDATE "clients" SET`).WillReturnRows(sqlmock.NewRows([]string{"credits"}))
	mock.ExpectQuery(`SELECT "credits" FROM "clients"`).WillReturnRows(sqlmock.NewRows([]string{"credits"}))
	_, err = adapter.AdjustCredits(ctx, 99, 1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestClientAdapter_ListWithDefaultSlots(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now().UTC()
	phone := "+2348012345678"

	mock.ExpectQuery(`SELECT .* FROM "clients" WHERE \("id" IN \(SELECT "client_id" FROM "client_default_slots"\)\) ORDER BY "id" ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "phone_number", "weekly_limit", "credits", "created_at", "updated_at"}).
			AddRow(int64(1), "ada@gym.test", "Ada", phone, 3, 10, now, now).
			AddRow(int64(2), "bo@gym.test", "", nil, 2, 5, now, now))
	mock.ExpectQuery(`SELECT .* FROM "client_default_slots" WHERE \("client_id" IN \(\$1, \$2\)\) ORDER BY "client_id" ASC, "position" ASC`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "day_of_week", "start_time", "position"}).
			AddRow(int64(10), int64(1), 0, "09:00", 0).
			AddRow(int64(11), int64(1), 2, "17:00", 1).
			AddRow(int64(12), int64(2), 1, "10:00", 0))

	clients, err := NewClientAdapter(db).ListWithDefaultSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 2)
	require.NotNil(t, clients[0].PhoneNumber)
	assert.Equal(t, phone, *clients[0].PhoneNumber)
	assert.Nil(t, clients[1].PhoneNumber)
	require.Len(t, clients[0].DefaultSlots, 2)
	assert.Equal(t, "Wednesday 17:00", clients[0].DefaultSlots[1].Label())
	assert.Len(t, clients[1].DefaultSlots, 1)
}

func TestTrainerAdapter_List(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT "id", "name", "created_at" FROM "trainers" ORDER BY "id" ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow(int64(1), "Coach 1", now).
			AddRow(int64(2), "Coach 2", now))
	mock.ExpectQuery(`SELECT .* FROM "shifts" ORDER BY`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trainer_id", "day_of_week", "start_time", "end_time"}).
			AddRow(int64(1), int64(2), 0, "09:00", "12:00"))

	trainers, err := NewTrainerAdapter(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, trainers, 2)
	assert.Empty(t, trainers[0].Shifts)
	require.Len(t, trainers[1].Shifts, 1)
	assert.True(t, trainers[1].Shifts[0].Covers(0, 9*60))
}

func TestSettingsAdapter(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewSettingsAdapter(db)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO "system_settings" .* ON CONFLICT \(key\) DO UPDATE SET "value"=EXCLUDED.value`).
		WithArgs("system_week", "2030-01-07").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, adapter.Set(ctx, entities.SettingSystemWeek, "2030-01-07"))

	mock.ExpectQuery(`SELECT "value" FROM "system_settings"`).
		WithArgs("system_week").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, err := adapter.Get(ctx, entities.SettingSystemWeek)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestNotificationAdapter_MarkRead(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE "notifications" SET "is_read"=\$1 WHERE \("id" = \$2\) RETURNING`).
		WithArgs(true, "n-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "client_id", "notification_type", "channel", "recipient", "message", "status",
			"is_read", "message_id", "error_message", "created_at", "sent_at",
		}).AddRow("n-1", int64(1), "schedule_failure", "in_app", "", "msg", "sent", true, nil, nil, now, nil))

	n, err := NewNotificationAdapter(db).MarkRead(context.Background(), "n-1")
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	assert.Equal(t, entities.NotificationScheduleFailure, n.Type)
	assert.Nil(t, n.MessageID)
}

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	db, mock := setupMockDB(t)
	uow := NewUnitOfWork(postgres.NewClientFromDB(db))
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "appointments"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := uow.Do(ctx, func(ctx context.Context, s repositories.Session) error {
		_, err := s.Appointments().DeleteBetween(ctx, monday9, monday9.AddDate(0, 0, 7))
		return err
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = uow.Do(ctx, func(ctx context.Context, s repositories.Session) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestMigrate(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS clients`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, Migrate(context.Background(), db))
}

func TestSeedRoster(t *testing.T) {
	db, mock := setupMockDB(t)
	phone := "+2348012345678"

	roster := &entities.Roster{
		Trainers: []*entities.Trainer{{
			ID: 1, Name: "Coach 1",
			Shifts: []entities.Shift{{TrainerID: 1, DayOfWeek: 0, StartTime: "09:00", EndTime: "12:00"}},
		}},
		Clients: []*entities.Client{{
			ID: 10, Email: "ada@gym.test", PhoneNumber: &phone, WeeklyLimit: 3, Credits: 10,
			DefaultSlots: []entities.DefaultSlot{{ClientID: 10, DayOfWeek: 0, StartTime: "09:00"}},
		}},
	}

	mock.ExpectExec(`TRUNCATE TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "trainers" .* ON CONFLICT \(id\) DO UPDATE`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "shifts" WHERE \("trainer_id" = \$1\)`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "shifts"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "clients" .* ON CONFLICT \(id\) DO UPDATE`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "client_default_slots"`).WithArgs(int64(10)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "client_default_slots"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SELECT setval\(pg_get_serial_sequence\('trainers'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SELECT setval\(pg_get_serial_sequence\('clients'`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, SeedRoster(context.Background(), db, roster, true))
}
