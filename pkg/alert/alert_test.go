package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafetyApp/internal/models"
	apperrors "SafetyApp/pkg/errors"
	"SafetyApp/pkg/i18n"
	"SafetyApp/pkg/metrics"
)

type sent struct {
	title   string
	message string
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (c *captureNotifier) Notify(_ context.Context, title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sent{title, message})
	return c.err
}

func newFormatter(t *testing.T, lang string) *Formatter {
	t.Helper()
	tr, err := i18n.NewI18nSupport("en")
	require.NoError(t, err)
	return NewFormatter(tr, lang)
}

func TestParse(t *testing.T) {
	msg, err := Parse([]byte(`{"userId": 7, "location": {"lat": 1.5, "lng": -2}}`))
	require.NoError(t, err)
	assert.Equal(t, models.Identifier("7"), msg.UserID)
	assert.Equal(t, models.Location{Lat: 1.5, Lng: -2}, msg.Location.Location())

	// 坐标为 0 也是合法值
	_, err = Parse([]byte(`{"userId": "a", "location": {"lat": 0, "lng": 0}}`))
	assert.NoError(t, err)
}

func TestParseRejectsMalformedFrames(t *testing.T) {
	frames := []string{
		`not json`,
		`null`,
		`[]`,
		`{}`,
		`{"userId": 7}`,
		`{"location": {"lat": 1, "lng": 2}}`,
		`{"userId": "", "location": {"lat": 1, "lng": 2}}`,
		`{"userId": 7, "location": {"lat": 1}}`,
		`{"userId": 7, "location": null}`,
		`{"userId": true, "location": {"lat": 1, "lng": 2}}`,
	}
	for _, raw := range frames {
		_, err := Parse([]byte(raw))
		require.Error(t, err, raw)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeDecode), raw)
	}
}

func TestFormatter(t *testing.T) {
	msg, err := Parse([]byte(`{"userId": 7, "location": {"lat": 12.34, "lng": 56.78}}`))
	require.NoError(t, err)

	title, message := newFormatter(t, "").Format(msg)
	assert.Equal(t, "SOS Alert", title)
	assert.Equal(t, "User 7 needs help at 12.34, 56.78", message)

	title, message = newFormatter(t, "").FakeCall()
	assert.Equal(t, "Fake Call", title)
	assert.Equal(t, "Incoming...", message)

	// 中文资源
	title, _ = newFormatter(t, "zh").Format(msg)
	assert.NotEqual(t, "SOS Alert", title)
	assert.NotEqual(t, i18n.MsgAlertTitle, title)
}

func TestHandleFrameNotifiesExactlyOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	n := &captureNotifier{}
	h := NewHandler(n, newFormatter(t, ""), WithMetrics(m))

	require.NoError(t, h.HandleFrame([]byte(`{"userId": 7, "location": {"lat": 1, "lng": 2}}`)))
	require.NoError(t, h.HandleFrame([]byte(`{"userId": 7, "location": {"lat": 1, "lng": 2}}`)))

	require.Len(t, n.sent, 2)
	assert.Equal(t, "SOS Alert", n.sent[0].title)
	assert.Equal(t, "User 7 needs help at 1, 2", n.sent[0].message)
	assert.Equal(t, float64(2), m.AlertFrames(metrics.ResultOK))
	assert.Equal(t, float64(2), m.Notifications(metrics.ResultOK))
}

func TestHandleFrameDropsMalformed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	n := &captureNotifier{}
	h := NewHandler(n, newFormatter(t, ""), WithMetrics(m))

	err := h.HandleFrame([]byte(`{"userId": 7}`))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDecode))
	assert.Empty(t, n.sent)
	assert.Equal(t, float64(1), m.AlertFrames(metrics.ResultDecode))
}

func TestHandleFrameNotifierFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	n := &captureNotifier{err: errors.New("sink down")}
	h := NewHandler(n, newFormatter(t, ""), WithMetrics(m))

	assert.Error(t, h.HandleFrame([]byte(`{"userId": 1, "location": {"lat": 1, "lng": 2}}`)))
	assert.Len(t, n.sent, 1)
	assert.Equal(t, float64(1), m.Notifications(metrics.ResultOther))
}

func TestDeduplicator(t *testing.T) {
	assert.Nil(t, NewDeduplicator(0))

	var disabled *Deduplicator
	msg, err := Parse([]byte(`{"userId": 7, "location": {"lat": 1, "lng": 2}}`))
	require.NoError(t, err)
	assert.False(t, disabled.Seen(msg))
	assert.False(t, disabled.Seen(msg))

	d := NewDeduplicator(50 * time.Millisecond)
	assert.False(t, d.Seen(msg))
	assert.True(t, d.Seen(msg))

	other, err := Parse([]byte(`{"userId": 7, "location": {"lat": 1, "lng": 3}}`))
	require.NoError(t, err)
	assert.False(t, d.Seen(other))

	time.Sleep(80 * time.Millisecond)
	assert.False(t, d.Seen(msg))
}

func TestHandleFrameWithDedup(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	n := &captureNotifier{}
	h := NewHandler(n, newFormatter(t, ""), WithMetrics(m), WithDeduplicator(NewDeduplicator(time.Minute)))

	frame := []byte(`{"userId": 7, "location": {"lat": 1, "lng": 2}}`)
	require.NoError(t, h.HandleFrame(frame))
	require.NoError(t, h.HandleFrame(frame))

	assert.Len(t, n.sent, 1)
	assert.Equal(t, float64(1), m.AlertFrames(metrics.ResultDuplicate))
}

func TestFailedNotificationIsNotSuppressed(t *testing.T) {
	n := &captureNotifier{err: errors.New("sink down")}
	h := NewHandler(n, newFormatter(t, ""), WithDeduplicator(NewDeduplicator(time.Minute)))

	frame := []byte(`{"userId": 7, "location": {"lat": 1, "lng": 2}}`)
	assert.Error(t, h.HandleFrame(frame))

	n.err = nil
	require.NoError(t, h.HandleFrame(frame))
	assert.Len(t, n.sent, 2)
}

func TestHandlersWireLifecycle(t *testing.T) {
	n := &captureNotifier{}
	h := NewHandler(n, newFormatter(t, ""))
	hs := h.Handlers()

	hs.OnOpen()
	hs.OnMessage([]byte(`{"userId": 7, "location": {"lat": 1, "lng": 2}}`))
	hs.OnMessage([]byte(`garbage`))
	hs.OnError(apperrors.WithCode(apperrors.CodeTransport, "reset"))
	hs.OnClose(1006, "")

	assert.Len(t, n.sent, 1)
}
