package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyBarsSkipsBadRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sh.600000", r.URL.Query().Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"error_code": "0",
			"data": [
				{"date":"2026-08-03","open":"10.0","high":"10.5","low":"9.8","close":"10.2","pctChg":"2.0"},
				{"date":"bad-date","open":"10.0","high":"10.5","low":"9.8","close":"10.2","pctChg":"2.0"},
				{"date":"2026-08-04","open":"10.2","high":"11.3","low":"10.1","close":"11.22","pctChg":"10.0"},
				{"date":"2026-08-05","open":"","high":"11.5","low":"11.0","close":"11.4"},
				{"date":"2026-08-06","open":"11.4","high":"11.6","low":"11.1","close":"11.3","pctChg":"-0.9"}
			]
		}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, 5*time.Second)
	require.NoError(t, err)

	bars, err := c.DailyBars(context.Background(), "sh.600000",
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local),
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, 11.22, bars[1].Close)
	assert.Equal(t, 10.0, bars[1].PctChg)
	assert.True(t, bars[0].Date.Before(bars[1].Date))
}

func TestDailyBarsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error_code":"10001","error_msg":"login required"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, 5*time.Second)
	require.NoError(t, err)

	_, err = c.DailyBars(context.Background(), "sh.600000", time.Now().AddDate(0, 0, -10), time.Now())
	assert.ErrorContains(t, err, "login required")
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", time.Second)
	assert.Error(t, err)
}
