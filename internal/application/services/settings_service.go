package services

import (
	"context"
	"errors"
	"time"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/providers"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

// SettingsService manages the planning week shown to the front desk
type SettingsService struct {
	uow   repositories.UnitOfWork
	cache providers.CacheProvider
	now   func() time.Time
}

// NewSettingsService creates a settings service. cache may be nil.
func NewSettingsService(uow repositories.UnitOfWork, cache providers.CacheProvider) *SettingsService {
	return &SettingsService{uow: uow, cache: cache, now: time.Now}
}

// SystemWeek is the response of the system week endpoints
type SystemWeek struct {
	WeekStart string `json:"week_start_date"`
}

// GetSystemWeek returns the stored week, falling back to the current week when none was set.
func (s *SettingsService) GetSystemWeek(ctx context.Context) (*SystemWeek, error) {
	logger := observability.LoggerFromContext(ctx)

	if s.cache != nil {
		data, err := s.cache.Get(ctx, systemWeekKey())
		if err == nil {
			return &SystemWeek{WeekStart: string(data)}, nil
		}
		if !errors.Is(err, providers.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("System week cache read failed")
		}
	}

	var value string
	err := s.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		var err error
		value, err = sess.Settings().Get(ctx, entities.SettingSystemWeek)
		return err
	})
	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeNotFound):
		return &SystemWeek{WeekStart: entities.WeekStartOf(entities.Naive(s.now())).Format(entities.DateLayout)}, nil
	case err != nil:
		return nil, asAppError(err, "failed to read system week")
	}

	s.remember(ctx, value)
	return &SystemWeek{WeekStart: value}, nil
}

// SetSystemWeek stores a new planning week; it must be a Monday.
func (s *SettingsService) SetSystemWeek(ctx context.Context, weekStart string) (*SystemWeek, error) {
	if _, err := entities.ParseWeekStart(weekStart); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	err := s.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		return sess.Settings().Set(ctx, entities.SettingSystemWeek, weekStart)
	})
	if err != nil {
		return nil, asAppError(err, "failed to store system week")
	}

	s.remember(ctx, weekStart)
	return &SystemWeek{WeekStart: weekStart}, nil
}

func (s *SettingsService) remember(ctx context.Context, value string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, systemWeekKey(), []byte(value), systemWeekTTL); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("System week cache write failed")
	}
}
