package middleware

import (
	"net/http"

	logpkg "github.com/benvon/memtodo/internal/logger"
	"go.uber.org/zap"
)

// Audit logs abuse-related responses: rate limit hits and oversized bodies
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := newStatusRecorder(w)
			next.ServeHTTP(wrapped, r)

			var event string
			switch wrapped.statusCode {
			case http.StatusTooManyRequests:
				event = "rate_limit_violation"
			case http.StatusRequestEntityTooLarge:
				event = "oversized_request"
			default:
				return
			}

			logger.Warn(event,
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(clientIP(r), logpkg.MaxGeneralStringLength)),
			)
		})
	}
}
