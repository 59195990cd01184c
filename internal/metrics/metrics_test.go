package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.CommandHandled("cat", "ok")
	m.CommandHandled("cat", "ok")
	m.CommandHandled("dog", "no_photo")
	m.FetchFailed("dog", "tls")
	m.MessageSent("photo")
	m.PollCrashed()

	if got := testutil.ToFloat64(m.CommandCounter.WithLabelValues("cat", "ok")); got != 2 {
		t.Errorf("cat ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CommandCounter.WithLabelValues("dog", "no_photo")); got != 1 {
		t.Errorf("dog no_photo = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.FetchFailures.WithLabelValues("dog", "tls")); got != 1 {
		t.Errorf("fetch failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.MessagesSent.WithLabelValues("photo")); got != 1 {
		t.Errorf("messages sent = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PollRestarts); got != 1 {
		t.Errorf("poll restarts = %v, want 1", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.CommandHandled("start", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `bot_commands_total{command="start",status="ok"} 1`) {
		t.Errorf("metric missing from exposition:\n%s", body)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.PollCrashed()

	if got := testutil.ToFloat64(b.PollRestarts); got != 0 {
		t.Errorf("second registry saw %v restarts", got)
	}
}
