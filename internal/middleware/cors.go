package middleware

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// CORS creates CORS middleware backed by rs/cors. "*" in allowedOrigins
// permits any origin. Preflight requests are answered by the middleware.
func CORS(allowedOrigins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	logger.Info("cors_configured", zap.Strings("allowed_origins", allowedOrigins))

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400, // cache preflight for 24 hours
	})
	return c.Handler
}
