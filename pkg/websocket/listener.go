package websocket

import (
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	apperrors "SafetyApp/pkg/errors"
)

// ErrAlreadyStarted 监听器只能连接一次，关闭后不会重连
var ErrAlreadyStarted = errors.New("alert listener already started")

// Handlers 连接回调，均在监听器的后台协程中执行
type Handlers struct {
	// OnOpen 握手成功
	OnOpen func()
	// OnMessage 收到文本帧
	OnMessage func(message []byte)
	// OnError 拨号失败或读取出错，随后一定会触发 OnClose
	OnError func(err error)
	// OnClose 连接终止，code 为对端关闭码，传输异常时为 CloseAbnormal
	OnClose func(code int, reason string)
}

// Listener 推送通道客户端。Connect 后在独立协程中接收消息直到连接关闭，
// 不提供取消或等待退出的接口，只能通过 State/Done 观察生命周期
type Listener struct {
	config   *Config
	handlers Handlers
	dialer   *websocket.Dialer

	state    atomic.Int32
	started  atomic.Bool
	done     chan struct{}
	endpoint atomic.Value
}

// NewListener 创建监听器，config 为 nil 时使用默认配置
func NewListener(config *Config, handlers Handlers) *Listener {
	if config == nil {
		config = DefaultConfig()
	}

	return &Listener{
		config:   config,
		handlers: handlers,
		dialer: &websocket.Dialer{
			Proxy:             http.ProxyFromEnvironment,
			HandshakeTimeout:  config.HandshakeTimeout,
			ReadBufferSize:    config.ReadBufferSize,
			WriteBufferSize:   config.WriteBufferSize,
			EnableCompression: config.EnableCompression,
		},
		done: make(chan struct{}),
	}
}

// Connect 校验地址后立即返回，拨号与接收循环在后台协程中进行
func (l *Listener) Connect(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return apperrors.WithCodef(apperrors.CodeOther, "invalid alert endpoint %q", endpoint)
	}
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	l.endpoint.Store(endpoint)
	go l.run(endpoint)
	return nil
}

// State 当前状态
func (l *Listener) State() State {
	return State(l.state.Load())
}

// Done 在 OnClose 执行完毕后关闭
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Endpoint 返回 Connect 使用的地址
func (l *Listener) Endpoint() string {
	v, _ := l.endpoint.Load().(string)
	return v
}

func (l *Listener) run(endpoint string) {
	defer close(l.done)

	conn, _, err := l.dialer.Dial(endpoint, nil)
	if err != nil {
		wrapped := apperrors.Wrapf(err, apperrors.CodeTransport, "dial %s", endpoint)
		logrus.Errorf("推送通道连接失败: %v", wrapped)
		l.emitError(wrapped)
		l.finish(CloseAbnormal, wrapped.Error())
		return
	}

	l.state.Store(int32(StateConnected))
	logrus.Infof("推送通道已连接: %s", endpoint)
	if l.handlers.OnOpen != nil {
		safeCall("OnOpen", l.handlers.OnOpen)
	}

	l.readPump(conn)
}

// readPump 读取消息直到连接终止
func (l *Listener) readPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(int64(l.config.MaxMessageSize))

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			l.handleReadError(err)
			return
		}

		if messageType != websocket.TextMessage {
			logrus.Debugf("忽略非文本帧: type=%d, size=%d", messageType, len(message))
			continue
		}
		l.dispatch(message)
	}
}

func (l *Listener) handleReadError(err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code != CloseAbnormal {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			logrus.Warnf("推送通道异常关闭: %v", err)
		} else {
			logrus.Infof("推送通道已关闭: code=%d, reason=%s", closeErr.Code, closeErr.Text)
		}
		l.finish(closeErr.Code, closeErr.Text)
		return
	}

	wrapped := apperrors.Wrap(err, apperrors.CodeTransport, "alert channel read failed")
	logrus.Errorf("推送通道读取错误: %v", wrapped)
	l.emitError(wrapped)
	l.finish(CloseAbnormal, "")
}

// dispatch 处理函数的 panic 不会终止接收循环
func (l *Listener) dispatch(message []byte) {
	if l.handlers.OnMessage == nil {
		return
	}
	safeCall("OnMessage", func() { l.handlers.OnMessage(message) })
}

func (l *Listener) emitError(err error) {
	if l.handlers.OnError == nil {
		return
	}
	safeCall("OnError", func() { l.handlers.OnError(err) })
}

func (l *Listener) finish(code int, reason string) {
	l.state.Store(int32(StateClosed))
	if l.handlers.OnClose == nil {
		return
	}
	safeCall("OnClose", func() { l.handlers.OnClose(code, reason) })
}

func safeCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("%s 回调 panic: %v", name, r)
		}
	}()
	fn()
}
