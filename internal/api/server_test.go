package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	requests := prometheus.NewCounter(prometheus.CounterOpts{Name: "wallet_requests_total", Help: "requests"})
	reg.MustRegister(requests)
	requests.Inc()

	s := NewServer("127.0.0.1:0")
	s.AppendRoute("/health", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}, http.MethodGet)
	s.AppendRoute("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP, http.MethodGet)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	tests := []struct {
		method string
		path   string
		code   int
		body   string
	}{
		{http.MethodGet, "/health", http.StatusOK, "ok"},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/metrics", http.StatusOK, "wallet_requests_total 1"},
		{http.MethodPost, "/metrics", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, tt.code, resp.StatusCode, tt.method+" "+tt.path)
		if tt.body != "" {
			assert.Contains(t, string(body), tt.body)
		}
	}
}
