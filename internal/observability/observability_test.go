package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/library-api/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ObservabilityConfig
		wantErr bool
	}{
		{"json info", config.ObservabilityConfig{LogLevel: "info", LogFormat: "json"}, false},
		{"console debug", config.ObservabilityConfig{LogLevel: "debug", LogFormat: "console"}, false},
		{"default format", config.ObservabilityConfig{LogLevel: "warn"}, false},
		{"bad level", config.ObservabilityConfig{LogLevel: "loud", LogFormat: "json"}, true},
		{"bad format", config.ObservabilityConfig{LogLevel: "info", LogFormat: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/authors", http.StatusOK, 10*time.Millisecond)
	m.ObserveSaveChanges("success", time.Millisecond)
	m.AddAuditTrails("Author", "Create", 6)
	m.AddAuditTrails("Author", "Create", 0)
	m.IncLoginAttempt("failure")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/authors", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saveChanges.WithLabelValues("success")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.auditTrails.WithLabelValues("Author", "Create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues("failure")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.AddAuditTrails("Book", "Delete", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "library_api_audit_trails_written_total")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/", 200, time.Second)
		m.ObserveSaveChanges("error", time.Second)
		m.AddAuditTrails("User", "Update", 1)
		m.IncLoginAttempt("success")
	})
	assert.Nil(t, m.Registry())
}
