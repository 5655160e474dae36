package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/memtodo/internal/config"
	"github.com/benvon/memtodo/internal/models"
	"github.com/benvon/memtodo/internal/services/todos"
	"go.uber.org/zap"
)

func testConfig(rateLimit string) *config.Config {
	return &config.Config{
		ServerPort:         "4000",
		CORSAllowedOrigins: []string{"*"},
		RateLimit:          rateLimit,
		RequestTimeoutSecs: 5,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (http.Handler, *todos.Service) {
	t.Helper()

	service := todos.NewService(zap.NewNop())
	handler, err := newRouter(cfg, zap.NewNop(), service, routerDeps{})
	if err != nil {
		t.Fatalf("newRouter() error = %v", err)
	}
	return handler, service
}

func serve(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:40000"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func TestRouter_TodoScenario(t *testing.T) {
	t.Parallel()
	h, _ := newTestServer(t, testConfig(config.RateLimitOff))

	w := serve(t, h, http.MethodPost, "/todos", `{"title":"buy milk"}`, jsonHeaders)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Todo
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = serve(t, h, http.MethodPost, "/todos/"+created.ID+"/toggle", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(t, h, http.MethodGet, "/todos/"+created.ID+"/history", "", nil)
	var view models.HistoryView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(view.History) != 2 || view.History[0].Action != "addTodo" || view.History[1].Action != "toggleTodo" {
		t.Errorf("Unexpected history %+v", view.History)
	}
	if view.Flagged {
		t.Error("Expected flagged=false")
	}

	w = serve(t, h, http.MethodPost, "/todos/UNKNOWN/toggle", "", nil)
	if w.Code != http.StatusNotFound || strings.TrimSpace(w.Body.String()) != `{"error":"not found"}` {
		t.Errorf("unknown toggle: got %d %s", w.Code, w.Body.String())
	}
}

func TestRouter_Middleware(t *testing.T) {
	t.Parallel()
	h, _ := newTestServer(t, testConfig(config.RateLimitOff))

	t.Run("security headers and request id", func(t *testing.T) {
		t.Parallel()
		w := serve(t, h, http.MethodGet, "/todos", "", nil)
		if w.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("Expected security headers on API responses")
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Error("Expected a request id")
		}
	})

	t.Run("cors any origin", func(t *testing.T) {
		t.Parallel()
		w := serve(t, h, http.MethodGet, "/todos", "", map[string]string{"Origin": "http://localhost:5173"})
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Access-Control-Allow-Origin = %q, want '*'", got)
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		t.Parallel()
		w := serve(t, h, http.MethodOptions, "/todos/abc/flag", "", map[string]string{
			"Origin":                        "http://localhost:5173",
			"Access-Control-Request-Method": http.MethodDelete,
		})
		if w.Code < 200 || w.Code >= 300 {
			t.Errorf("Expected 2xx for preflight, got %d", w.Code)
		}
		if w.Header().Get("Access-Control-Allow-Origin") == "" {
			t.Error("Expected allow-origin on preflight")
		}
	})

	t.Run("form body rejected", func(t *testing.T) {
		t.Parallel()
		w := serve(t, h, http.MethodPost, "/todos", "title=x", map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
		if w.Code != http.StatusUnsupportedMediaType {
			t.Errorf("Expected 415, got %d", w.Code)
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()
		body := `{"title":"` + strings.Repeat("a", 70<<10) + `"}`
		w := serve(t, h, http.MethodPost, "/todos", body, jsonHeaders)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected 413, got %d", w.Code)
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		t.Parallel()
		w := serve(t, h, http.MethodGet, "/nope", "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON 404, got Content-Type %q", ct)
		}
	})

	wrongMethods := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/todos"},
		{http.MethodPatch, "/todos/abc"},
		{http.MethodGet, "/todos/abc/toggle"},
		{http.MethodPut, "/todos/abc/flag"},
		{http.MethodPut, "/healthz"},
	}
	for _, tt := range wrongMethods {
		t.Run("wrong method "+tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()
			w := serve(t, h, tt.method, tt.path, "", nil)
			if w.Code != http.StatusMethodNotAllowed {
				t.Fatalf("Expected 405, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected JSON 405, got Content-Type %q", ct)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["error"] != "method not allowed" {
				t.Errorf("Expected error body, got %v (%v)", body, err)
			}
		})
	}

	t.Run("unknown todo sub-route", func(t *testing.T) {
		t.Parallel()
		w := serve(t, h, http.MethodGet, "/todos/abc/nope", "", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}

func TestRouter_OperationalRoutes(t *testing.T) {
	t.Parallel()
	h, service := newTestServer(t, testConfig(config.RateLimitOff))
	service.Bootstrap(t.Context())

	w := serve(t, h, http.MethodGet, "/healthz?mode=extended", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", w.Code)
	}
	var health struct {
		Status string      `json:"status"`
		Stats  todos.Stats `json:"stats"`
	}
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "healthy" || health.Stats.Todos != 4 {
		t.Errorf("Unexpected health %+v", health)
	}

	w = serve(t, h, http.MethodGet, "/version", "", nil)
	var info VersionInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if info.Version != Version {
		t.Errorf("Expected version %q, got %q", Version, info.Version)
	}

	w = serve(t, h, http.MethodGet, "/openapi.json", "", nil)
	if w.Code != http.StatusOK || !json.Valid(w.Body.Bytes()) {
		t.Errorf("openapi.json: got %d", w.Code)
	}
}

func TestRouter_RateLimitTodosOnly(t *testing.T) {
	t.Parallel()
	h, _ := newTestServer(t, testConfig("2-M"))

	for i := 0; i < 2; i++ {
		if w := serve(t, h, http.MethodGet, "/todos", "", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	if w := serve(t, h, http.MethodGet, "/todos", "", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", w.Code)
	}
	if w := serve(t, h, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Errorf("Expected health checks to bypass the limiter, got %d", w.Code)
	}
}

func TestOpenAPICmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "yaml", args: nil, want: "openapi: 3.0.3"},
		{name: "json", args: []string{"--json"}, want: `"openapi":"3.0.3"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			cmd := NewOpenAPICmd()
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("Expected output to contain %q", tt.want)
			}
		})
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), Version) {
		t.Errorf("Expected version in output, got %q", out.String())
	}
}

func TestHealthcheckCmd(t *testing.T) {
	t.Parallel()
	h, _ := newTestServer(t, testConfig(config.RateLimitOff))
	srv := httptest.NewServer(h)
	defer srv.Close()

	var out bytes.Buffer
	cmd := NewHealthcheckCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--url", srv.URL, "--extended"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "status: healthy") || !strings.Contains(out.String(), "store: healthy") {
		t.Errorf("Unexpected output %q", out.String())
	}
}
