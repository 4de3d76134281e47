package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/statistics", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_alerts":7,"auto_remediated":3,"mode":"semi_auto","kill_switch":false}`))
	}))
	defer srv.Close()

	stats, err := New(srv.URL).Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.TotalAlerts)
	assert.Equal(t, int64(3), stats.AutoRemediated)
}

func TestApprove_SendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/approvals/abc/approve", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"approved"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).Approve(context.Background(), "abc", "oncall@example.com")
	assert.NoError(t, err)
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"no pending approval with that id"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).Approve(context.Background(), "missing", "someone")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "no pending approval")
}

func TestSubmitAlert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/alerts", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"alert_id":"alert-42","status":"accepted"}`))
	}))
	defer srv.Close()

	id, err := New(srv.URL).SubmitAlert(context.Background(), "cli", "high", "disk full", "web-01", nil)
	require.NoError(t, err)
	assert.Equal(t, "alert-42", id)
}

func TestSetKillSwitch_Paths(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.SetKillSwitch(context.Background(), true))
	assert.Equal(t, "/api/v1/killswitch/enable", path)

	require.NoError(t, c.SetKillSwitch(context.Background(), false))
	assert.Equal(t, "/api/v1/killswitch/disable", path)
}
