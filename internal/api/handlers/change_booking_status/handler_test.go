package change_booking_status

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

func TestHandler_Transition(t *testing.T) {
	var got *models.StatusChangeRequest
	confirm := func(_ context.Context, req *models.StatusChangeRequest) (*models.BookingResponse, error) {
		got = req
		if req.BookingID == 404 {
			return nil, fmt.Errorf("%w: id=%d", domain.ErrBookingNotFound, req.BookingID)
		}
		if req.BookingID == 409 {
			return nil, domain.ErrInvalidTransition
		}
		return &models.BookingResponse{ID: req.BookingID, Status: "confirmed"}, nil
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/bookings/{bookingId}/confirm", NewHandler("confirm", confirm, logger.NewNop()).Handle).
		Methods(http.MethodPatch)

	call := func(id string) int {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/"+id+"/confirm", nil)
		req = req.WithContext(middleware.WithIdentity(req.Context(), 2, 20))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("7"))
	require.NotNil(t, got)
	assert.Equal(t, models.StatusChangeRequest{TenantID: 2, UserID: 20, BookingID: 7}, *got)

	assert.Equal(t, http.StatusNotFound, call("404"))
	assert.Equal(t, http.StatusConflict, call("409"))
	assert.Equal(t, http.StatusBadRequest, call("-1"))
}
