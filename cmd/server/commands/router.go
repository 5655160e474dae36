package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/memtodo/api/openapi"
	"github.com/benvon/memtodo/internal/config"
	"github.com/benvon/memtodo/internal/handlers"
	"github.com/benvon/memtodo/internal/middleware"
	"github.com/benvon/memtodo/internal/queue"
	"github.com/benvon/memtodo/internal/services/todos"
	"github.com/benvon/memtodo/internal/telemetry"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// routerDeps are the optional connections the router reports on and uses
type routerDeps struct {
	redis     *middleware.RedisClient
	publisher queue.EventPublisher
	tracing   bool
}

// newRouter builds the HTTP handler. Middleware registered first wraps
// outermost. mux only runs middleware for matched routes, so security
// headers and CORS wrap the router itself; that also answers preflight
// requests for every path.
func newRouter(cfg *config.Config, logger *zap.Logger, service *todos.Service, deps routerDeps) (http.Handler, error) {
	r := mux.NewRouter()
	notFound := jsonStatusHandler(http.StatusNotFound, "not found")
	methodNotAllowed := jsonStatusHandler(http.StatusMethodNotAllowed, "method not allowed")
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = methodNotAllowed

	if deps.tracing {
		r.Use(telemetry.Middleware(telemetry.ServiceName))
	}
	// Logging and audit sit outside the request guards so rejected requests are logged
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Audit(logger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(time.Duration(cfg.RequestTimeoutSecs) * time.Second))
	r.Use(middleware.ErrorHandler(logger))

	// Operational routes are not rate limited
	var redisPinger handlers.Pinger
	if deps.redis != nil {
		redisPinger = deps.redis
	}
	healthChecker := handlers.NewHealthCheckerWithDeps(service, redisPinger, deps.publisher)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", versionHandler).Methods(http.MethodGet)

	openAPIHandler, err := handlers.NewOpenAPIHandler(openapi.Spec, openapi.JSON)
	if err != nil {
		return nil, err
	}
	openAPIHandler.RegisterRoutes(r)

	// A subrouter answers its own method mismatches; the parent's handler is never consulted
	todosRouter := r.PathPrefix("/todos").Subrouter()
	todosRouter.NotFoundHandler = notFound
	todosRouter.MethodNotAllowedHandler = methodNotAllowed
	if cfg.RateLimitEnabled() {
		store, err := middleware.NewRateLimitStore(deps.redis)
		if err != nil {
			return nil, err
		}
		rateLimitMW, err := middleware.RateLimit(store, cfg.RateLimit, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		todosRouter.Use(rateLimitMW)
	}
	handlers.NewTodoHandler(service, logger).RegisterRoutes(todosRouter)

	handler := middleware.CORS(cfg.CORSAllowedOrigins, logger)(r)
	return middleware.SecurityHeaders(cfg.EnableHSTS)(handler), nil
}

func jsonStatusHandler(status int, message string) http.Handler {
	body := fmt.Sprintf("{%q:%q}\n", "error", message)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}
