package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/gymscheduler/internal/adapters/cache"
	"github.com/zatekoja/gymscheduler/internal/adapters/memory"
	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

func newScheduler(store *memory.Store) *SchedulerService {
	return NewSchedulerService(store, DefaultCapacityLimits(), NewNotificationService(store, nil))
}

func saturatedStore() *memory.Store {
	store := memory.NewStore()
	for id := int64(1); id <= 3; id++ {
		addTrainer(store, id, shift(0, "09:00", "10:00"))
	}
	for id := int64(1); id <= 15; id++ {
		addClient(store, id, 3, 10, slot(0, "09:00"))
	}
	return store
}

func TestSchedulerService_Saturation(t *testing.T) {
	store := saturatedStore()
	svc := newScheduler(store)

	report, err := svc.RunAutoSchedule(context.Background(), testWeek)
	require.NoError(t, err)

	assert.Equal(t, testWeek, report.WeekStart)
	assert.Equal(t, 6, report.SuccessCount)
	assert.Equal(t, 9, report.TotalFailures)
	require.Len(t, report.FailedAssignments, 9)
	assert.Empty(t, report.NonCriticalFailures)
	for i, f := range report.FailedAssignments {
		assert.Equal(t, int64(i+7), f.ClientID)
		assert.Equal(t, entities.ReasonNoTrainer, f.Reason)
		assert.Equal(t, "Monday 09:00", f.Slot)
		assert.Equal(t, "2030-01-07T09:00:00", f.Timestamp)
	}

	booked := activeAt(store, monday9)
	require.Len(t, booked, 6)
	wantTrainers := []int64{1, 1, 2, 2, 3, 3}
	for i, a := range booked {
		assert.Equal(t, int64(i+1), a.ClientID)
		assert.Equal(t, wantTrainers[i], a.TrainerID)
		assert.Equal(t, 9, store.Client(a.ClientID).Credits)
	}
	assertCapacityInvariants(t, store, DefaultCapacityLimits())

	notes := store.Notifications()
	require.Len(t, notes, 9)
	assert.Equal(t, "Could not auto-schedule Monday at 09:00: No available trainer or gym full.", notes[0].Message)
	assert.Equal(t, entities.ChannelInApp, notes[0].Channel)
	assert.Equal(t, entities.NotificationScheduleFailure, notes[0].Type)
}

func TestSchedulerService_Idempotent(t *testing.T) {
	store := saturatedStore()
	svc := newScheduler(store)
	ctx := context.Background()

	_, err := svc.RunAutoSchedule(ctx, testWeek)
	require.NoError(t, err)

	second, err := svc.RunAutoSchedule(ctx, testWeek)
	require.NoError(t, err)
	assert.Equal(t, 0, second.SuccessCount)
	assert.Len(t, store.Appointments(), 6)
	assert.Equal(t, 9, store.Client(1).Credits)
}

func TestSchedulerService_LowestTrainerFirstAndShiftCoverage(t *testing.T) {
	store := memory.NewStore()
	addTrainer(store, 3, shift(0, "09:00", "10:00"))
	addTrainer(store, 2, shift(0, "09:00", "10:00"))
	addTrainer(store, 1, shift(1, "09:00", "10:00"), shift(0, "08:00", "09:00"))
	addClient(store, 1, 3, 10, slot(0, "09:00"))

	report, err := newScheduler(store).RunAutoSchedule(context.Background(), testWeek)
	require.NoError(t, err)
	require.Equal(t, 1, report.SuccessCount)

	booked := activeAt(store, monday9)
	require.Len(t, booked, 1)
	assert.Equal(t, int64(2), booked[0].TrainerID, "trainer 1 shift ends at 09:00 and must not cover it")
}

func TestSchedulerService_QuotaAndCredits(t *testing.T) {
	store := memory.NewStore()
	addTrainer(store, 1, shift(0, "07:00", "20:00"), shift(1, "07:00", "20:00"))
	addTrainer(store, 2, shift(0, "07:00", "20:00"), shift(1, "07:00", "20:00"))
	addClient(store, 1, 2, 10, slot(0, "09:00"), slot(0, "17:00"), slot(1, "10:00"))
	addClient(store, 2, 3, 1, slot(0, "09:00"), slot(1, "10:00"))

	report, err := newScheduler(store).RunAutoSchedule(context.Background(), testWeek)
	require.NoError(t, err)

	assert.Equal(t, 3, report.SuccessCount)
	assert.Equal(t, 2, report.TotalFailures)

	require.Len(t, report.NonCriticalFailures, 1)
	assert.Equal(t, int64(1), report.NonCriticalFailures[0].ClientID)
	assert.Equal(t, entities.ReasonQuotaExceeded, report.NonCriticalFailures[0].Reason)
	assert.Equal(t, "Tuesday 10:00", report.NonCriticalFailures[0].Slot)

	require.Len(t, report.FailedAssignments, 1)
	assert.Equal(t, int64(2), report.FailedAssignments[0].ClientID)
	assert.Equal(t, entities.ReasonNoCredits, report.FailedAssignments[0].Reason)

	assert.Equal(t, 8, store.Client(1).Credits)
	assert.Equal(t, 0, store.Client(2).Credits)
}

func TestSchedulerService_InvalidSlotIsReported(t *testing.T) {
	store := memory.NewStore()
	addTrainer(store, 1, shift(0, "07:00", "20:00"))
	addClient(store, 1, 3, 10, slot(0, "9am"), slot(0, "09:00"))

	report, err := newScheduler(store).RunAutoSchedule(context.Background(), testWeek)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount)
	require.Len(t, report.FailedAssignments, 1)
	assert.Equal(t, entities.ReasonInvalidSlot, report.FailedAssignments[0].Reason)
}

func TestSchedulerService_RejectsNonMonday(t *testing.T) {
	_, err := newScheduler(memory.NewStore()).RunAutoSchedule(context.Background(), "2030-01-09")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = newScheduler(memory.NewStore()).RunAutoSchedule(context.Background(), "next week")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSchedulerService_CachesReport(t *testing.T) {
	store := saturatedStore()
	reports := NewReportCache(cache.NewMemoryCache())
	svc := newScheduler(store)
	svc.SetReportCache(reports)
	ctx := context.Background()

	_, err := reports.Get(ctx, testWeek)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	report, err := svc.RunAutoSchedule(ctx, testWeek)
	require.NoError(t, err)

	cached, err := reports.Get(ctx, testWeek)
	require.NoError(t, err)
	assert.Equal(t, report.SuccessCount, cached.SuccessCount)
	assert.Len(t, cached.FailedAssignments, 9)
}

func TestSchedulerService_PublishesBookedEvents(t *testing.T) {
	store := saturatedStore()
	bus := &recordingBus{}
	svc := newScheduler(store)
	svc.SetEventBus(bus)

	_, err := svc.RunAutoSchedule(context.Background(), testWeek)
	require.NoError(t, err)
	assert.Len(t, bus.types(), 6)
}

func TestSchedulerService_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScheduler(saturatedStore()).RunAutoSchedule(ctx, testWeek)
	assert.Error(t, err)
}

func TestSchedulerService_GymCapacity(t *testing.T) {
	store := memory.NewStore()
	for id := int64(1); id <= 3; id++ {
		addTrainer(store, id, shift(0, "09:00", "10:00"))
	}
	for id := int64(1); id <= 6; id++ {
		addClient(store, id, 3, 10, slot(0, "09:00"))
	}
	limits := CapacityLimits{TrainerCapacity: 2, MaxActiveTrainers: 3, GymCapacity: 4}
	svc := NewSchedulerService(store, limits, NewNotificationService(store, nil))

	report, err := svc.RunAutoSchedule(context.Background(), testWeek)
	require.NoError(t, err)

	assert.Equal(t, 4, report.SuccessCount)
	require.Len(t, report.FailedAssignments, 2)
	for _, f := range report.FailedAssignments {
		assert.Equal(t, entities.ReasonNoTrainer, f.Reason)
	}
	assert.Len(t, activeAt(store, monday9), 4)
	assertCapacityInvariants(t, store, limits)
}
