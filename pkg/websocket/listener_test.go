package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "SafetyApp/pkg/errors"
)

type recorder struct {
	mu       sync.Mutex
	messages []string
	errs     []error
	closes   []int
	reasons  []string
	order    []string
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnMessage: func(message []byte) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.messages = append(r.messages, string(message))
			r.order = append(r.order, "message")
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
			r.order = append(r.order, "error")
		},
		OnClose: func(code int, reason string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.closes = append(r.closes, code)
			r.reasons = append(r.reasons, reason)
			r.order = append(r.order, "close")
		},
	}
}

func (r *recorder) snapshot() recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return recorder{
		messages: append([]string(nil), r.messages...),
		errs:     append([]error(nil), r.errs...),
		closes:   append([]int(nil), r.closes...),
		reasons:  append([]string(nil), r.reasons...),
		order:    append([]string(nil), r.order...),
	}
}

func newTestServer(t *testing.T, serve func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket.io"
}

// closeGracefully 发送关闭帧并等待客户端回应
func closeGracefully(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func waitDone(t *testing.T, l *Listener) {
	t.Helper()
	select {
	case <-l.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not close in time")
	}
}

func TestListenerDeliversTextFramesThenCloses(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"n":1}`))
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"n":2}`))
		closeGracefully(conn, websocket.CloseNormalClosure, "bye")
	})

	rec := &recorder{}
	l := NewListener(nil, rec.handlers())
	require.NoError(t, l.Connect(wsURL(srv)))
	waitDone(t, l)

	got := rec.snapshot()
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, got.messages)
	assert.Empty(t, got.errs)
	assert.Equal(t, []int{websocket.CloseNormalClosure}, got.closes)
	assert.Equal(t, []string{"bye"}, got.reasons)
	assert.Equal(t, StateClosed, l.State())
	assert.Equal(t, wsURL(srv), l.Endpoint())
}

func TestListenerReportsConnectedState(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(conn *websocket.Conn) {
		<-release
		closeGracefully(conn, websocket.CloseGoingAway, "")
	})

	opened := make(chan struct{})
	l := NewListener(nil, Handlers{OnOpen: func() { close(opened) }})
	assert.Equal(t, StateConnecting, l.State())
	require.NoError(t, l.Connect(wsURL(srv)))

	select {
	case <-opened:
	case <-time.After(3 * time.Second):
		t.Fatal("OnOpen not called")
	}
	assert.Equal(t, StateConnected, l.State())
	close(release)
	waitDone(t, l)
	assert.Equal(t, StateClosed, l.State())
}

func TestListenerDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := wsURL(srv)
	srv.Close()

	rec := &recorder{}
	l := NewListener(nil, rec.handlers())
	require.NoError(t, l.Connect(endpoint))
	waitDone(t, l)

	got := rec.snapshot()
	require.Len(t, got.errs, 1)
	assert.True(t, apperrors.IsCode(got.errs[0], apperrors.CodeTransport))
	assert.Equal(t, []int{CloseAbnormal}, got.closes)
	assert.Equal(t, []string{"error", "close"}, got.order)
	assert.Equal(t, StateClosed, l.State())
}

func TestListenerAbruptDisconnect(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("first"))
		_ = conn.UnderlyingConn().Close()
	})

	rec := &recorder{}
	l := NewListener(nil, rec.handlers())
	require.NoError(t, l.Connect(wsURL(srv)))
	waitDone(t, l)

	got := rec.snapshot()
	assert.Equal(t, []string{"first"}, got.messages)
	require.Len(t, got.errs, 1)
	assert.True(t, apperrors.IsCode(got.errs[0], apperrors.CodeTransport))
	assert.Equal(t, []int{CloseAbnormal}, got.closes)
	assert.Equal(t, []string{"message", "error", "close"}, got.order)
}

func TestListenerSurvivesPanickingHandler(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("boom"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("after"))
		closeGracefully(conn, websocket.CloseNormalClosure, "")
	})

	var mu sync.Mutex
	var delivered []string
	l := NewListener(nil, Handlers{
		OnMessage: func(message []byte) {
			if string(message) == "boom" {
				panic("handler failure")
			}
			mu.Lock()
			delivered = append(delivered, string(message))
			mu.Unlock()
		},
	})
	require.NoError(t, l.Connect(wsURL(srv)))
	waitDone(t, l)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"after"}, delivered)
}

func TestListenerReadLimit(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64)))
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		_, _, _ = conn.ReadMessage()
	})

	cfg := DefaultConfig()
	cfg.MaxMessageSize = 16
	rec := &recorder{}
	l := NewListener(cfg, rec.handlers())
	require.NoError(t, l.Connect(wsURL(srv)))
	waitDone(t, l)

	got := rec.snapshot()
	assert.Empty(t, got.messages)
	require.Len(t, got.errs, 1)
	assert.Equal(t, []int{CloseAbnormal}, got.closes)
}

func TestListenerConnectOnlyOnce(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		closeGracefully(conn, websocket.CloseNormalClosure, "")
	})

	l := NewListener(nil, Handlers{})
	require.NoError(t, l.Connect(wsURL(srv)))
	assert.ErrorIs(t, l.Connect(wsURL(srv)), ErrAlreadyStarted)
	waitDone(t, l)

	// 关闭后同样不能重连
	assert.ErrorIs(t, l.Connect(wsURL(srv)), ErrAlreadyStarted)
}

func TestListenerRejectsInvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"http://127.0.0.1:5000/socket.io", "ws://", "::not a url"} {
		l := NewListener(nil, Handlers{})
		err := l.Connect(endpoint)
		require.Error(t, err, endpoint)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeOther), endpoint)
		assert.Equal(t, StateConnecting, l.State())
	}
}
