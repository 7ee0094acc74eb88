package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/images/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/images/1", "/images/2", "/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/images/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/ok", "200")))
}

func TestObserveToggle(t *testing.T) {
	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveToggle("vote", "up", "create") })

	m := New()
	m.ObserveToggle("vote", "up", "create")
	m.ObserveToggle("vote", "up", "create")
	m.ObserveToggle("favourite", "add", "rejected")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToggleTransitions.WithLabelValues("vote", "up", "create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToggleTransitions.WithLabelValues("favourite", "add", "rejected")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveToggle("vote", "undo", "delete")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "imgshare_toggle_transitions_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
