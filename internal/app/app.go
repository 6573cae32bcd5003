package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"SafetyApp/internal/listeners"
	"SafetyApp/pkg/alert"
	"SafetyApp/pkg/config"
	"SafetyApp/pkg/emitter"
	"SafetyApp/pkg/i18n"
	"SafetyApp/pkg/location"
	"SafetyApp/pkg/logger"
	"SafetyApp/pkg/metrics"
	"SafetyApp/pkg/notification"
	"SafetyApp/pkg/websocket"
)

// Options 组装 App 的依赖，零值字段使用默认实现
type Options struct {
	Config *config.Config
	// Provider 为 nil 时不订阅定位，SOS 使用兜底坐标
	Provider location.Provider
	// Notifier 为 nil 时使用 LogNotifier
	Notifier notification.Notifier
	// PushClient 非 nil 时额外通过推送服务投递，受众取 Config.Push
	PushClient notification.PushClient
	// Registerer 为 nil 时不记录指标
	Registerer prometheus.Registerer
	HTTPClient *http.Client
	WebSocket  *websocket.Config
}

// App 客户端的组合根：定位、推送通道、出站请求与通知
type App struct {
	cfg       *config.Config
	holder    *location.Holder
	provider  location.Provider
	notifier  notification.Notifier
	formatter *alert.Formatter
	handler   *alert.Handler
	client    *emitter.Client
	listener  *websocket.Listener
	wsCfg     *websocket.Config
	metrics   *metrics.Metrics

	locOnce   sync.Once
	locErr    error
	startOnce sync.Once
	startErr  error
}

func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.FromEnv()
	}

	lang := cfg.Language
	tr, err := i18n.NewI18nSupport(lang)
	if err != nil {
		logger.Warn("unsupported language, using default",
			zap.String("language", lang),
			zap.String("default", config.DefaultLanguage),
			zap.Error(err),
		)
		lang = config.DefaultLanguage
		if tr, err = i18n.NewI18nSupport(lang); err != nil {
			return nil, err
		}
	}

	var m *metrics.Metrics
	if opts.Registerer != nil {
		m = metrics.NewMetrics(opts.Registerer)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notification.LogNotifier{AppName: "SafetyApp"}
	}
	if opts.PushClient != nil {
		notifier = notification.Multi{notifier, notification.NewPush(cfg.Push, opts.PushClient)}
	}

	holder := location.NewHolder()
	formatter := alert.NewFormatter(tr, lang)
	handler := alert.NewHandler(notifier, formatter,
		alert.WithMetrics(m),
		alert.WithDeduplicator(alert.NewDeduplicator(cfg.DedupWindow)),
	)

	wsCfg := opts.WebSocket
	if wsCfg == nil {
		wsCfg = websocket.DefaultConfig()
	}

	clientOpts := []emitter.Option{emitter.WithMetrics(m)}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, emitter.WithHTTPClient(opts.HTTPClient))
	}

	return &App{
		cfg:       cfg,
		holder:    holder,
		provider:  opts.Provider,
		notifier:  notifier,
		formatter: formatter,
		handler:   handler,
		client: emitter.NewClient(emitter.Config{
			BaseURL: cfg.BackendURL,
			UserID:  cfg.UserID,
			Timeout: cfg.HTTPTimeout,
		}, holder, clientOpts...),
		listener: websocket.NewListener(wsCfg, handler.Handlers()),
		wsCfg:    wsCfg,
		metrics:  m,
	}, nil
}

// StartLocation 只订阅定位，不连接推送通道
func (a *App) StartLocation() error {
	a.locOnce.Do(func() {
		if a.provider == nil {
			return
		}
		if err := listeners.InitLocationListener(a.provider, a.holder); err != nil {
			logger.Error("start location provider failed", zap.Error(err))
			a.locErr = err
		}
	})
	return a.locErr
}

// Start 订阅定位并连接推送通道，只生效一次
func (a *App) Start() error {
	a.startOnce.Do(func() {
		if err := a.StartLocation(); err != nil {
			a.startErr = err
			return
		}
		if err := a.listener.Connect(a.cfg.AlertURL); err != nil {
			logger.Error("connect alert channel failed", zap.String("url", a.cfg.AlertURL), zap.Error(err))
			a.startErr = err
		}
	})
	return a.startErr
}

// Stop 停止定位订阅。推送通道没有取消接口，由对端关闭
func (a *App) Stop() {
	if a.provider != nil {
		a.provider.Stop()
	}
}

// Done 推送通道关闭后返回
func (a *App) Done() <-chan struct{} { return a.listener.Done() }

func (a *App) Holder() *location.Holder { return a.holder }

func (a *App) Listener() *websocket.Listener { return a.listener }

// WebSocketConfig 推送通道实际使用的配置
func (a *App) WebSocketConfig() *websocket.Config { return a.wsCfg }

// TriggerSOS 在调用方协程中同步发送
func (a *App) TriggerSOS(ctx context.Context) (*emitter.SOSResponse, error) {
	resp, err := a.client.Trigger(ctx)
	if err != nil {
		logger.Error("trigger sos failed", zap.Error(err))
		return nil, err
	}
	return resp, nil
}

func (a *App) SaveContact(ctx context.Context, name, phone string) (*emitter.RawResponse, error) {
	resp, err := a.client.SaveContact(ctx, name, phone)
	if err != nil {
		logger.Error("save contact failed", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// FakeCall 显示一条伪来电通知
func (a *App) FakeCall(ctx context.Context) error {
	title, message := a.formatter.FakeCall()
	if err := a.notifier.Notify(ctx, title, message); err != nil {
		logger.Error("fake call notification failed", zap.Error(err))
		return err
	}
	return nil
}
