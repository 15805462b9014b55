package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/gymscheduler/internal/api/handlers"
	"github.com/zatekoja/gymscheduler/internal/api/routes"
	"github.com/zatekoja/gymscheduler/internal/app"
	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/metrics"
	"github.com/zatekoja/gymscheduler/pkg/config"
)

func newServer(t *testing.T) (*httptest.Server, *app.Container) {
	t.Helper()

	c, err := app.New(&config.Config{
		App:        config.AppConfig{StorageDriver: app.StorageDriverMemory},
		Scheduling: config.DefaultScheduling(),
	}, nil)
	require.NoError(t, err)
	c.Booking.SetClock(func() time.Time { return time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC) })

	phone := "+2348012345678"
	c.Memory.Seed(&entities.Roster{
		Trainers: []*entities.Trainer{
			{ID: 1, Name: "Coach 1", Shifts: []entities.Shift{{TrainerID: 1, DayOfWeek: 0, StartTime: "09:00", EndTime: "12:00"}}},
		},
		Clients: []*entities.Client{
			{ID: 1, Email: "ada@gym.test", PhoneNumber: &phone, WeeklyLimit: 3, Credits: 10,
				DefaultSlots: []entities.DefaultSlot{{ClientID: 1, DayOfWeek: 0, StartTime: "09:00"}}},
			{ID: 2, Email: "bo@gym.test", WeeklyLimit: 3, Credits: 0},
		},
	})

	router := routes.NewRouter(
		handlers.NewAppointmentHandler(c.Booking),
		handlers.NewScheduleHandler(c.Scheduler, c.Resolver, c.Reports),
		handlers.NewNotificationHandler(c.Notifications),
		handlers.NewSettingsHandler(c.Settings),
		[]string{"*"},
		nil,
	)
	metrics.Register()
	router.SetMetricsHandler(metrics.Handler())

	srv := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(srv.Close)
	return srv, c
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newServer(t)

	resp, _ := do(t, "GET", srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "gym_scheduler_")
}

func TestBookCancelFlow(t *testing.T) {
	srv, c := newServer(t)

	resp, body := do(t, "POST", srv.URL+"/api/appointments",
		`{"trainer_id":1,"client_id":1,"start_time":"2030-01-07T09:00:00"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := int64(body["id"].(float64))
	assert.Equal(t, 9, c.Memory.Client(1).Credits)

	resp, body = do(t, "POST", srv.URL+"/api/appointments",
		`{"trainer_id":1,"client_id":1,"start_time":"2030-01-07T09:00:00"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_BOOKING", body["type"])

	resp, body = do(t, "POST", srv.URL+"/api/appointments",
		`{"trainer_id":1,"client_id":2,"start_time":"2030-01-07T09:00:00"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Client has 0 workout credits.", body["error"])

	resp, body = do(t, "GET", srv.URL+"/api/appointments?client_id=1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])

	cancelURL := srv.URL + "/api/appointments/" + jsonNumber(id) + "/cancel"
	resp, body = do(t, "PUT", cancelURL, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", body["status"])
	assert.Equal(t, 10, c.Memory.Client(1).Credits)

	resp, _ = do(t, "PUT", cancelURL, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, "PUT", srv.URL+"/api/appointments/999/cancel", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScheduleReportAndWeekEndpoints(t *testing.T) {
	srv, _ := newServer(t)

	resp, _ := do(t, "GET", srv.URL+"/api/schedule-reports/2030-01-07", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := do(t, "POST", srv.URL+"/api/appointments/auto-schedule", `{"week_start_date":"2030-01-07"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["success_count"])

	resp, body = do(t, "GET", srv.URL+"/api/schedule-reports/2030-01-07", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["success_count"])

	resp, body = do(t, "POST", srv.URL+"/api/appointments/auto-resolve", `{"week_start_date":"2030-01-07"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["resolved_count"])

	resp, _ = do(t, "PUT", srv.URL+"/api/system/week", `{"week_start_date":"2030-01-08"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, "PUT", srv.URL+"/api/system/week", `{"week_start_date":"2030-01-14"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, body = do(t, "GET", srv.URL+"/api/system/week", "")
	assert.Equal(t, "2030-01-14", body["week_start_date"])

	resp, body = do(t, "DELETE", srv.URL+"/api/appointments/week/2030-01-07", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["deleted_count"])
}

func TestNotificationEndpoints(t *testing.T) {
	srv, c := newServer(t)

	resp, _ := do(t, "GET", srv.URL+"/api/clients/42/notifications", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := do(t, "GET", srv.URL+"/api/clients/2/notifications", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["count"])

	resp, _ = do(t, "POST", srv.URL+"/api/appointments", `{"trainer_id":1,"client_id":1,"start_time":"2030-01-07T09:00:00"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	stored := c.Memory.Notifications()
	require.Len(t, stored, 1)
	assert.Equal(t, entities.NotificationBookingConfirmation, stored[0].Type)
	assert.Equal(t, entities.NotificationStatusSent, stored[0].Status)

	_, body = do(t, "GET", srv.URL+"/api/clients/1/notifications", "")
	assert.EqualValues(t, 1, body["count"])

	resp, body = do(t, "PUT", srv.URL+"/api/notifications/"+stored[0].ID+"/read", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_read"])
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newServer(t)

	req, err := http.NewRequest("OPTIONS", srv.URL+"/api/appointments", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://desk.gym.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
