package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/internal/resources/10", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.Header.Get("X-Tenant-ID"))
		_, _ = w.Write([]byte(`{"id":10,"tenant_id":1,"title":"Flat","active":true}`))
	})
	mux.HandleFunc("/internal/resources/11", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":11,"tenant_id":1,"active":false}`))
	})
	mux.HandleFunc("/internal/users/5", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	})
	mux.HandleFunc("/internal/users/6", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":6,"tenant_id":1,"name":"Agent","active":true}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GetResource(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, time.Second, logger.NewNop())
	ctx := context.Background()

	resource, err := client.GetResource(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Flat", resource.Title)

	_, err = client.GetResource(ctx, 1, 11)
	assert.ErrorIs(t, err, ErrResourceNotFound, "inactive resource")

	_, err = client.GetResource(ctx, 1, 12)
	assert.ErrorIs(t, err, ErrResourceNotFound, "unknown resource")
}

func TestClient_GetUser(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, time.Second, logger.NewNop())
	ctx := context.Background()

	user, err := client.GetUser(ctx, 1, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(6), user.ID)

	_, err = client.GetUser(ctx, 1, 5)
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = client.GetUser(ctx, 1, 7)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAllowAll(t *testing.T) {
	resource, err := AllowAll{}.GetResource(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.True(t, resource.Active)
}
