package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quickavail/backend/internal/domain"
	"github.com/quickavail/backend/internal/handler"
)

// mockScheduleServicer is a test double for handler.ScheduleServicer.
// Set only the method fields your test needs.
type mockScheduleServicer struct {
	create func(ctx context.Context, in domain.NewScheduleInput) (domain.Schedule, error)
	get    func(ctx context.Context, shareID string) (domain.ScheduleView, error)
	export func(ctx context.Context, shareID string) (domain.Schedule, []domain.ExportRow, error)
}

func (m *mockScheduleServicer) Create(ctx context.Context, in domain.NewScheduleInput) (domain.Schedule, error) {
	return m.create(ctx, in)
}
func (m *mockScheduleServicer) Get(ctx context.Context, shareID string) (domain.ScheduleView, error) {
	return m.get(ctx, shareID)
}
func (m *mockScheduleServicer) Export(ctx context.Context, shareID string) (domain.Schedule, []domain.ExportRow, error) {
	return m.export(ctx, shareID)
}

// compile-time check: mockScheduleServicer must satisfy handler.ScheduleServicer.
var _ handler.ScheduleServicer = (*mockScheduleServicer)(nil)

// mockAdminServicer is a test double for handler.AdminServicer.
type mockAdminServicer struct {
	authorize func(key string) error
	cleanup   func(ctx context.Context, key string, req domain.CleanupRequest) (domain.CleanupReport, error)
	report    func(ctx context.Context, key string) (domain.UsageReport, error)
}

func (m *mockAdminServicer) Authorize(key string) error {
	return m.authorize(key)
}
func (m *mockAdminServicer) Cleanup(ctx context.Context, key string, req domain.CleanupRequest) (domain.CleanupReport, error) {
	return m.cleanup(ctx, key, req)
}
func (m *mockAdminServicer) Report(ctx context.Context, key string) (domain.UsageReport, error) {
	return m.report(ctx, key)
}

var _ handler.AdminServicer = (*mockAdminServicer)(nil)

// mockPinger is a test double for handler.Pinger.
type mockPinger struct {
	err error
}

func (m mockPinger) Ping(context.Context) error { return m.err }

// ---- helpers ---------------------------------------------------------------

const testAdminKey = "s3cret"

// newHTTPHandler wires a Server with the given mocks into the chi router.
// This mirrors how main.go wires it in production, minus global middleware.
func newHTTPHandler(schedules handler.ScheduleServicer, admin handler.AdminServicer) http.Handler {
	srv := handler.NewServer(schedules, admin, nil, handler.Config{BaseURL: "https://quickavail.example"}, slog.New(slog.DiscardHandler))
	return srv.Routes()
}

// keyChecker returns an authorize func accepting only testAdminKey.
func keyChecker(key string) error {
	if key != testAdminKey {
		return domain.ErrUnauthorized
	}
	return nil
}

var createdAt = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

func scheduleFixture() domain.Schedule {
	selected := domain.SelectedDates{
		"general": {
			"2025-03-12": {QuickSlots: []domain.QuickSlotID{domain.QuickSlotMorning}, CustomSlots: []domain.CustomSlot{}},
		},
	}
	return domain.Schedule{
		ShareID:         "AbCdEfGhIjK",
		PersonName:      "Ada Lovelace",
		PersonEmail:     "ada@example.com",
		SelectedProject: "general",
		Projects:        domain.DefaultProjects(),
		SelectedDates:   selected,
		CreatedAt:       createdAt,
		ExpiresAt:       createdAt.Add(7 * 24 * time.Hour),
		UserTimezone:    "Europe/London",
		LastViewedAt:    createdAt,
		Analytics:       domain.ComputeScheduleAnalytics(selected),
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// errorCode decodes an error envelope and returns its code.
func errorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error.Code
}
