package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/providers"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

const (
	// ReportTTL is how long the last schedule report of a week stays readable.
	ReportTTL = 24 * time.Hour

	systemWeekTTL = time.Hour
)

func scheduleReportKey(weekStart string) string {
	return fmt.Sprintf("schedule_report:%s", weekStart)
}

func systemWeekKey() string {
	return "settings:" + entities.SettingSystemWeek
}

// ReportCache keeps the last schedule report per week
type ReportCache struct {
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewReportCache creates a report cache on top of a cache provider
func NewReportCache(cache providers.CacheProvider) *ReportCache {
	return &ReportCache{cache: cache}
}

// SetMetrics enables hit/miss counters
func (c *ReportCache) SetMetrics(m *observability.Metrics) {
	c.metrics = m
}

// Store replaces the cached report for the report's week
func (c *ReportCache) Store(ctx context.Context, report *entities.ScheduleReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule report: %w", err)
	}
	return c.cache.Set(ctx, scheduleReportKey(report.WeekStart), data, ReportTTL)
}

// Get returns the cached report for weekStart or a not found error
func (c *ReportCache) Get(ctx context.Context, weekStart string) (*entities.ScheduleReport, error) {
	if _, err := entities.ParseWeekStart(weekStart); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	data, err := c.cache.Get(ctx, scheduleReportKey(weekStart))
	observability.RecordCacheResult(ctx, c.metrics, "schedule_report", err == nil)
	if errors.Is(err, providers.ErrCacheMiss) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no schedule report cached for week %s", weekStart))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read schedule report", err)
	}

	var report entities.ScheduleReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, apperrors.NewInternalError("failed to decode schedule report", err)
	}
	return &report, nil
}
