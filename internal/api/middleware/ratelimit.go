package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

const (
	msgRateLimited        = "слишком много запросов, повторите позже"
	msgRateLimiterFailure = "ограничитель запросов недоступен"
)

// Фиксированное окно: счетчик живет window миллисекунд с первого запроса
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimiter ограничитель частоты изменяющих запросов на базе Redis
// Ключ строится по арендатору и пользователю, при их отсутствии по IP
type RateLimiter struct {
	rdb      redis.Scripter
	limit    int
	window   time.Duration
	prefix   string
	failOpen bool
	logger   handlers.Logger
}

// NewRateLimiter создает ограничитель
func NewRateLimiter(rdb redis.Scripter, limit int, window time.Duration, prefix string, failOpen bool, logger handlers.Logger) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RateLimiter{
		rdb:      rdb,
		limit:    limit,
		window:   window,
		prefix:   prefix,
		failOpen: failOpen,
		logger:   logger,
	}
}

// Middleware ограничивает только изменяющие методы, чтение не лимитируется
func (rl *RateLimiter) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := rl.prefix + ":" + clientKey(r)
			count, err := rl.incr(r.Context(), key)
			if err != nil {
				rl.logger.Warn("RateLimiter: redis error for key=%s: %v", key, err)
				if rl.failOpen {
					next.ServeHTTP(w, r)
					return
				}
				handlers.RespondError(w, http.StatusServiceUnavailable, "rate_limiter_unavailable", msgRateLimiterFailure)
				return
			}

			if count > int64(rl.limit) {
				rl.logger.Warn("RateLimiter: limit exceeded for key=%s (%d/%d)", key, count, rl.limit)
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
				handlers.RespondError(w, http.StatusTooManyRequests, "rate_limited", msgRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) incr(ctx context.Context, key string) (int64, error) {
	ms := rl.window.Milliseconds()
	res, err := fixedWindowScript.Run(ctx, rl.rdb, []string{key}, ms).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}

func clientKey(r *http.Request) string {
	tenantID, okTenant := GetTenantID(r.Context())
	userID, okUser := GetUserID(r.Context())
	if okTenant && okUser {
		return fmt.Sprintf("t%d:u%d", tenantID, userID)
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return "ip:" + strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
