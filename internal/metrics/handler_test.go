package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// TestHandler_ServesMetrics はスクレイプでメトリクスが返ることを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordAuthEvent("signup", "success")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "pinkpulse_auth_events_total") {
		t.Error("response should contain pinkpulse_auth_events_total metric")
	}
}

// ルートラベルには生のパスではなくchiのルートパターンが使われる
func TestHTTPMiddleware_UsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	r := chi.NewRouter()
	r.Use(NewHTTPMiddleware(c))
	r.Get("/api/clinic/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/api/clinic/1", "/api/clinic/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	mf := findMetricFamily(t, reg, "pinkpulse_http_requests_total")
	if mf == nil {
		t.Fatal("pinkpulse_http_requests_total metric not found")
	}
	if len(mf.GetMetric()) != 1 {
		t.Fatalf("expected a single series, got %d", len(mf.GetMetric()))
	}
	m := mf.GetMetric()[0]
	if got := labelValue(m, "route"); got != "/api/clinic/{id}" {
		t.Errorf("route = %q, want %q", got, "/api/clinic/{id}")
	}
	if got := labelValue(m, "status"); got != "418" {
		t.Errorf("status = %q, want %q", got, "418")
	}
	if got := m.GetCounter().GetValue(); got != 2 {
		t.Errorf("count = %v, want 2", got)
	}
}

func TestHTTPMiddleware_UnmatchedRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	r := chi.NewRouter()
	r.Use(NewHTTPMiddleware(c))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/does/not/exist", nil))

	mf := findMetricFamily(t, reg, "pinkpulse_http_requests_total")
	if mf == nil {
		t.Fatal("pinkpulse_http_requests_total metric not found")
	}
	m := mf.GetMetric()[0]
	if got := labelValue(m, "route"); got != unmatchedRoute {
		t.Errorf("route = %q, want %q", got, unmatchedRoute)
	}
	if got := labelValue(m, "status"); got != "404" {
		t.Errorf("status = %q, want %q", got, "404")
	}
}

// ハンドラーがWriteHeaderを呼ばない場合は200として記録される
func TestHTTPMiddleware_ImplicitOK(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	r := chi.NewRouter()
	r.Use(NewHTTPMiddleware(c))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	mf := findMetricFamily(t, reg, "pinkpulse_http_requests_total")
	if got := labelValue(mf.GetMetric()[0], "status"); got != "200" {
		t.Errorf("status = %q, want %q", got, "200")
	}
}
