package metrics_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbscrape/internal/metrics"
)

// New registers on the default prometheus registry, so the whole test binary
// shares one instance.
var shared = metrics.New("127.0.0.1:0")

func get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	shared.Handler().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, "/healthz")
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCountersExposed(t *testing.T) {
	shared.EventScraped()
	shared.EventScraped()
	shared.EventFailed()
	shared.EventWritten("new")
	shared.EventWritten("unchanged")
	shared.RunCompleted(false)
	shared.RunCompleted(true)

	rec := get(t, "/metrics")
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "fbscrape_events_scraped_total 2")
	assert.Contains(t, body, "fbscrape_events_failed_total 1")
	assert.Contains(t, body, `fbscrape_events_written_total{result="new"} 1`)
	assert.Contains(t, body, `fbscrape_events_written_total{result="unchanged"} 1`)
	assert.Contains(t, body, `fbscrape_runs_total{status="ok"} 1`)
	assert.Contains(t, body, `fbscrape_runs_total{status="error"} 1`)
	assert.Contains(t, body, "fbscrape_last_run_timestamp_seconds")
}
