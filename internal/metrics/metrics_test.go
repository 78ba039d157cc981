package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordNarration(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNarration("openai", false, 800*time.Millisecond)
	c.RecordNarration("openai", true, 2*time.Second)
	c.RecordNarration("openai", true, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.narrations.WithLabelValues("openai", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.narrations.WithLabelValues("openai", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.narrationLatency))
}

func TestRecordSpeechFailure(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordSpeechFailure("audio_query")
	c.RecordSpeechFailure("audio_query")
	c.RecordSpeechFailure("player")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.speechFailures.WithLabelValues("audio_query")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.speechFailures.WithLabelValues("player")))
}

func TestRecordNotificationAndUtterance(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordNotification(true)
	c.RecordNotification(false)
	c.RecordUtterance()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifications.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifications.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.utterances))
}

func TestRecordTick(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordTick("work", 1)
	c.RecordTick("break", 1)
	c.RecordTick("work", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ticks.WithLabelValues("work")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.session.WithLabelValues("work")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.session.WithLabelValues("break")))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordTick("work", 1)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `pomodoro_ticks_total{period="work"} 1`)
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordNarration("local", true, 0)
	r.RecordTick("break", 4)
}
