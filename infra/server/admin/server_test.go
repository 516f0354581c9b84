package admin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/checkin-notifier/internal/metrics"
)

type fixedCount int

func (c fixedCount) Len() int { return int(c) }

func TestRouter(t *testing.T) {
	m := metrics.New()
	m.ConnectAttempt()
	router := NewRouter(m, fixedCount(2))

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/surfaces", http.StatusOK, `{"open":2}`},
		{"/metrics", http.StatusOK, "checkin_notifier_connect_attempts_total 1"},
		{"/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewRouter(metrics.New(), fixedCount(0)), slog.New(slog.NewTextHandler(io.Discard, nil)))

	addr, err := srv.Start()
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	require.NoError(t, srv.Stop(context.Background()))
}
