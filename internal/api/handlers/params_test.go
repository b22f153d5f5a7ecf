package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathID(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"appointmentId": "15"})
	id, err := PathID(req, "appointmentId")
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)

	for _, raw := range []string{"", "abc", "0", "-3"} {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"appointmentId": raw})
		_, err := PathID(req, "appointmentId")
		assert.Error(t, err, raw)
	}
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?providerId=3&from=2025-03-10&includeCancelled=true&serviceIds=1,%202", nil)

	providerID, err := QueryInt64(req, "providerId")
	require.NoError(t, err)
	assert.Equal(t, int64(3), *providerID)

	missing, err := QueryInt64(req, "clientId")
	require.NoError(t, err)
	assert.Nil(t, missing)

	from, err := QueryDate(req, "from")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", from.Format("2006-01-02"))

	include, err := QueryBool(req, "includeCancelled", false)
	require.NoError(t, err)
	assert.True(t, include)

	ids, err := QueryInt64List(req, "serviceIds")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	bad := httptest.NewRequest(http.MethodGet, "/?serviceIds=1,x&from=10.03.2025", nil)
	_, err = QueryInt64List(bad, "serviceIds")
	assert.Error(t, err)
	_, err = QueryDate(bad, "from")
	assert.Error(t, err)
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var v struct {
		Status string `json:"status"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"confirmed"}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, "confirmed", v.Status)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"state":"confirmed"}`))
	assert.Error(t, DecodeJSON(req, &v))
}
