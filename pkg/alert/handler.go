package alert

import (
	"context"

	"go.uber.org/zap"

	"SafetyApp/pkg/errors"
	"SafetyApp/pkg/logger"
	"SafetyApp/pkg/metrics"
	"SafetyApp/pkg/notification"
	"SafetyApp/pkg/websocket"
)

// Handler 推送通道的消息处理：解析、去重、格式化并通知
type Handler struct {
	notifier  notification.Notifier
	formatter *Formatter
	dedup     *Deduplicator
	metrics   *metrics.Metrics
}

// Option Handler 选项
type Option func(*Handler)

// WithDeduplicator 启用去重
func WithDeduplicator(d *Deduplicator) Option {
	return func(h *Handler) { h.dedup = d }
}

// WithMetrics 记录帧与通知指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

func NewHandler(notifier notification.Notifier, formatter *Formatter, opts ...Option) *Handler {
	h := &Handler{notifier: notifier, formatter: formatter}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleFrame 每个合法帧恰好通知一次，非法帧只记录日志。
// 返回值仅用于观察，监听器不会因此断开
func (h *Handler) HandleFrame(raw []byte) error {
	msg, err := Parse(raw)
	if err != nil {
		h.metrics.RecordAlertFrame(metrics.ResultDecode)
		logger.Warn("discard alert frame",
			zap.Error(err),
			zap.Int("size", len(raw)),
		)
		return err
	}

	if h.dedup.Seen(msg) {
		h.metrics.RecordAlertFrame(metrics.ResultDuplicate)
		logger.Debug("duplicate alert suppressed", zap.String("user_id", string(msg.UserID)))
		return nil
	}
	h.metrics.RecordAlertFrame(metrics.ResultOK)

	title, message := h.formatter.Format(msg)
	if err := h.notifier.Notify(context.Background(), title, message); err != nil {
		h.dedup.Forget(msg)
		h.metrics.RecordNotification(metrics.ResultOther)
		logger.Error("deliver alert notification failed",
			zap.String("user_id", string(msg.UserID)),
			zap.Error(err),
		)
		return err
	}
	h.metrics.RecordNotification(metrics.ResultOK)
	logger.Info("alert delivered",
		zap.String("user_id", string(msg.UserID)),
		zap.Stringer("location", msg.Location.Location()),
	)
	return nil
}

// HandleOpen 连接建立
func (h *Handler) HandleOpen() {
	h.metrics.SetListenerConnected(true)
}

// HandleError 传输错误只记录，不重连
func (h *Handler) HandleError(err error) {
	h.metrics.SetListenerConnected(false)
	logger.Error("alert channel error",
		zap.String("kind", errors.CodeName(errors.GetCode(err))),
		zap.Error(err),
	)
}

// HandleClose 连接终止
func (h *Handler) HandleClose(code int, reason string) {
	h.metrics.SetListenerConnected(false)
	logger.Info("alert channel closed", zap.Int("code", code), zap.String("reason", reason))
}

// Handlers 绑定到监听器的回调
func (h *Handler) Handlers() websocket.Handlers {
	return websocket.Handlers{
		OnOpen:    h.HandleOpen,
		OnMessage: func(message []byte) { _ = h.HandleFrame(message) },
		OnError:   h.HandleError,
		OnClose:   h.HandleClose,
	}
}
