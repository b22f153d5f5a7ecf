package staffservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func TestClient_Providers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/internal/providers/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"name":"Anna","role":"provider","active":true}`))
	})
	mux.HandleFunc("/internal/providers/2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":2,"name":"Oleg","role":"provider","active":false}`))
	})
	mux.HandleFunc("/internal/providers/3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":3,"name":"Maria","role":"receptionist","active":true}`))
	})
	mux.HandleFunc("/internal/providers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "provider", r.URL.Query().Get("role"))
		_, _ = w.Write([]byte(`[{"id":5,"active":true},{"id":1,"active":true},{"id":9,"active":false}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nopLogger{})
	ctx := context.Background()

	ok, err := client.IsActiveProvider(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.IsActiveProvider(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok, "inactive")

	ok, err = client.IsActiveProvider(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok, "wrong role")

	ok, err = client.IsActiveProvider(ctx, 404)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := client.ListProvidersWithRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 1}, ids)
}
