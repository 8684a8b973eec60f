package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	tenantIDKey contextKey = "tenantID"

	HeaderUserID   = "X-User-ID"
	HeaderTenantID = "X-Tenant-ID"
)

const (
	msgMissingUserID   = "отсутствует или некорректен заголовок X-User-ID"
	msgMissingTenantID = "отсутствует или некорректен заголовок X-Tenant-ID"
)

// Auth извлекает ID пользователя и арендатора из заголовков
// Аутентификация выполняется шлюзом, сервис доверяет заголовкам
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseHeaderID(r, HeaderUserID)
		if !ok {
			handlers.RespondUnauthorized(w, msgMissingUserID)
			return
		}

		tenantID, ok := parseHeaderID(r, HeaderTenantID)
		if !ok {
			handlers.RespondUnauthorized(w, msgMissingTenantID)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, tenantIDKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID возвращает ID пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// GetTenantID возвращает ID арендатора из контекста
func GetTenantID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(tenantIDKey).(int64)
	return id, ok
}

// WithIdentity кладет ID пользователя и арендатора в контекст
func WithIdentity(ctx context.Context, tenantID, userID int64) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

func parseHeaderID(r *http.Request, header string) (int64, bool) {
	raw := r.Header.Get(header)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
