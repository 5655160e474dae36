package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/memtodo/internal/services/todos"
)

const healthCheckTimeout = 5 * time.Second

// StatsProvider reports the sizes of the in-memory state
type StatsProvider interface {
	Stats() todos.Stats
}

// Pinger is implemented by connections that can be probed, such as Redis
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueChecker is implemented by the change event publisher
type QueueChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthChecker handles health check requests
type HealthChecker struct {
	stats StatsProvider
	redis Pinger
	queue QueueChecker
}

// NewHealthChecker creates a health checker for the in-memory state only
func NewHealthChecker(stats StatsProvider) *HealthChecker {
	return &HealthChecker{stats: stats}
}

// NewHealthCheckerWithDeps creates a health checker that also probes the
// optional Redis and RabbitMQ connections. Nil dependencies are skipped.
func NewHealthCheckerWithDeps(stats StatsProvider, redis Pinger, queue QueueChecker) *HealthChecker {
	return &HealthChecker{stats: stats, redis: redis, queue: queue}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Stats     *todos.Stats      `json:"stats,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		checks := map[string]string{"store": "healthy"}

		if h.redis != nil {
			checks["redis"] = checkStatus(r.Context(), h.redis.Ping)
		}
		if h.queue != nil {
			checks["rabbitmq"] = checkStatus(r.Context(), h.queue.HealthCheck)
		}
		for _, status := range checks {
			if status != "healthy" {
				response.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
			}
		}

		if h.stats != nil {
			stats := h.stats.Stats()
			response.Stats = &stats
		}
		response.Checks = checks
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func checkStatus(ctx context.Context, check func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := check(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}
