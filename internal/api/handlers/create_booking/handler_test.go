package create_booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type stubUseCase struct {
	got  *createBooking.Request
	resp *models.BookingResponse
	err  error
}

func (s *stubUseCase) Execute(_ context.Context, req *createBooking.Request) (*models.BookingResponse, error) {
	s.got = req
	return s.resp, s.err
}

func newRequest(body string, withIdentity bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	if withIdentity {
		req = req.WithContext(middleware.WithIdentity(req.Context(), 1, 100))
	}
	return req
}

func TestHandler_Created(t *testing.T) {
	uc := &stubUseCase{resp: &models.BookingResponse{ID: 1, Reference: "BK202401150001", Status: "pending"}}
	h := NewHandler(uc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Handle(rec, newRequest(`{"resourceId":10,"startTime":"2024-01-15T10:00:00Z","endTime":"2024-01-15T11:00:00Z","notes":"ключи у консьержа"}`, true))

	require.Equal(t, http.StatusCreated, rec.Code)
	var body models.BookingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "BK202401150001", body.Reference)

	require.NotNil(t, uc.got)
	assert.Equal(t, int64(1), uc.got.TenantID)
	assert.Equal(t, int64(100), uc.got.RequesterID)
	assert.Equal(t, int64(10), uc.got.ResourceID)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), uc.got.StartTime.UTC())
	require.NotNil(t, uc.got.Notes)
}

func TestHandler_Errors(t *testing.T) {
	body := `{"resourceId":10,"startTime":"2024-01-15T10:30:00Z","endTime":"2024-01-15T11:30:00Z"}`

	tests := []struct {
		name         string
		body         string
		withIdentity bool
		ucErr        error
		wantStatus   int
		wantCode     string
	}{
		{name: "missing identity", body: body, wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "malformed body", body: `{"resourceId":`, withIdentity: true, wantStatus: http.StatusBadRequest, wantCode: "validation_error"},
		{name: "unknown field", body: `{"companyId":1}`, withIdentity: true, wantStatus: http.StatusBadRequest, wantCode: "validation_error"},
		{name: "conflict", body: body, withIdentity: true, ucErr: domain.NewConflictError(1), wantStatus: http.StatusConflict, wantCode: "booking_conflict"},
		{name: "no window", body: body, withIdentity: true, ucErr: domain.ErrNoCoveringWindow, wantStatus: http.StatusUnprocessableEntity, wantCode: "availability_violation"},
		{name: "exhausted", body: body, withIdentity: true, ucErr: domain.ErrAllocationExhausted, wantStatus: http.StatusServiceUnavailable, wantCode: "allocation_exhausted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&stubUseCase{err: tt.ucErr}, logger.NewNop())

			rec := httptest.NewRecorder()
			h.Handle(rec, newRequest(tt.body, tt.withIdentity))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp handlers.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}
