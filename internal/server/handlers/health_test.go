package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/babysteps/pkg/api"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		pingErr    error
		name       string
		wantStatus int
		wantDB     string
	}{
		{name: "database up", wantStatus: http.StatusOK, wantDB: "ok"},
		{name: "database down", pingErr: errors.New("closed"), wantStatus: http.StatusServiceUnavailable, wantDB: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(testLogger(), stubPinger{err: tt.pingErr}, "1.2.3")

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp api.HealthResponse
			decodeBody(t, w, &resp)
			assert.Equal(t, tt.wantDB, resp.Database)
			assert.Equal(t, "1.2.3", resp.Version)
		})
	}
}
