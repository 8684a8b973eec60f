package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuth(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		tenantID string
		want     int
	}{
		{name: "both headers", userID: "7", tenantID: "3", want: http.StatusOK},
		{name: "missing user", tenantID: "3", want: http.StatusUnauthorized},
		{name: "missing tenant", userID: "7", want: http.StatusUnauthorized},
		{name: "non numeric user", userID: "abc", tenantID: "3", want: http.StatusUnauthorized},
		{name: "zero tenant", userID: "7", tenantID: "0", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser, gotTenant int64
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = GetUserID(r.Context())
				gotTenant, _ = GetTenantID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
			if tt.userID != "" {
				req.Header.Set(HeaderUserID, tt.userID)
			}
			if tt.tenantID != "" {
				req.Header.Set(HeaderTenantID, tt.tenantID)
			}
			rec := httptest.NewRecorder()

			Auth(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, int64(7), gotUser)
				assert.Equal(t, int64(3), gotTenant)
			}
		})
	}
}
