package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	up   = PingFunc(func(context.Context) error { return nil })
	down = PingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func ready(t *testing.T, h *Handler) (int, ReadinessResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler("scheduling-service", down, nil).Live(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		redis    Pinger
		code     int
		status   string
		redisDep string
	}{
		{"all up", up, up, http.StatusOK, statusOK, statusOK},
		{"redis disabled", up, nil, http.StatusOK, statusOK, ""},
		{"redis down", up, down, http.StatusOK, statusDegraded, statusDown},
		{"db down", down, up, http.StatusServiceUnavailable, statusError, statusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := ready(t, NewHandler("svc", tt.db, tt.redis))
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, tt.redisDep, body.Dependencies["redis"])
		})
	}
}
