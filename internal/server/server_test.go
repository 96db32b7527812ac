package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	httperr "github.com/xcity-lab/telemetry/internal/core/errors"
)

type fakeStore struct{ err error }

func (f fakeStore) Ping(context.Context) error { return f.err }

type fakeSubscriber struct{ topic string }

func (f *fakeSubscriber) ServeWS(w http.ResponseWriter, _ *http.Request, topic string) {
	f.topic = topic
	w.WriteHeader(http.StatusAccepted)
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := New(":0", fakeStore{}, "release")
		resp := get(s.Engine, "/health")
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), "healthy")
	})

	t.Run("store down", func(t *testing.T) {
		s := New(":0", fakeStore{err: errors.New("refused")}, "release")
		resp := get(s.Engine, "/health")
		require.Equal(t, http.StatusServiceUnavailable, resp.Code)
		require.Contains(t, resp.Body.String(), "unhealthy")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(":0", fakeStore{}, "release")
	get(s.Engine, "/health")

	resp := get(s.Engine, "/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "telemetry_http_requests_total")
}

func TestMountSubscriptions(t *testing.T) {
	s := New(":0", fakeStore{}, "release")
	sub := &fakeSubscriber{}
	s.MountSubscriptions(sub)

	resp := get(s.Engine, "/api/v1/ws")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = get(s.Engine, "/api/v1/ws?topic=/topic/traffic")
	require.Equal(t, http.StatusAccepted, resp.Code)
	require.Equal(t, "/topic/traffic", sub.topic)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/notify", RateLimit(1, 2), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader("{}")))
		statuses = append(statuses, resp.Code)
		if resp.Code == http.StatusTooManyRequests {
			var body httperr.ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			require.Equal(t, httperr.HttpRateLimitedError, body.ErrorType)
		}
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/notify", RateLimit(0, 0), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for i := 0; i < 5; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/notify", nil))
		require.Equal(t, http.StatusOK, resp.Code)
	}
}
