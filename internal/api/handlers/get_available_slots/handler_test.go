package get_available_slots

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type stubUseCase struct {
	got *getAvailableSlots.Request
	err error
}

func (s *stubUseCase) Execute(_ context.Context, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	return &getAvailableSlots.Response{
		Date:            time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		ResourceID:      req.ResourceID,
		TimeZone:        "UTC",
		DurationMinutes: req.DurationMinutes,
		Slots: []domain.TimeSlot{
			{StartTime: start, EndTime: start.Add(time.Hour), IsAvailable: true, WindowID: 3},
			{StartTime: start.Add(30 * time.Minute), EndTime: start.Add(90 * time.Minute), WindowID: 3, Reason: "booking_conflict"},
		},
	}, nil
}

func route(h *Handler, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/resources/{resourceId}/slots", h.Handle).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), 1, 100))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Slots(t *testing.T) {
	uc := &stubUseCase{}
	rec := route(NewHandler(uc, logger.NewNop()), "/api/v1/resources/10/slots?date=2024-01-15&duration=60&tz=Europe/Moscow&assigneeId=5")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, uc.got)
	assert.Equal(t, int64(10), uc.got.ResourceID)
	assert.Equal(t, 60, uc.got.DurationMinutes)
	assert.Equal(t, "Europe/Moscow", uc.got.TimeZone)
	require.NotNil(t, uc.got.AssigneeID)
	assert.Equal(t, int64(5), *uc.got.AssigneeID)

	var body AvailableSlotsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "2024-01-15", body.Date)
	assert.Equal(t, 1, body.AvailableCount)
	require.Len(t, body.Slots, 2)
	assert.Equal(t, "booking_conflict", body.Slots[1].Reason)
}

func TestHandler_BadParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"bad resource id", "/api/v1/resources/abc/slots?date=2024-01-15&duration=60", http.StatusBadRequest},
		{"missing date", "/api/v1/resources/10/slots?duration=60", http.StatusBadRequest},
		{"missing duration", "/api/v1/resources/10/slots?date=2024-01-15", http.StatusBadRequest},
		{"bad date", "/api/v1/resources/10/slots?date=15.01.2024&duration=60", http.StatusBadRequest},
		{"bad duration", "/api/v1/resources/10/slots?date=2024-01-15&duration=hour", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubUseCase{}
			rec := route(NewHandler(uc, logger.NewNop()), tt.target)
			assert.Equal(t, tt.want, rec.Code)
			assert.Nil(t, uc.got)
		})
	}
}

func TestHandler_UseCaseValidation(t *testing.T) {
	uc := &stubUseCase{err: domain.ErrValidation}
	rec := route(NewHandler(uc, logger.NewNop()), "/api/v1/resources/10/slots?date=2024-01-15&duration=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
