package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 标签取值
const (
	ResultOK        = "ok"
	ResultDecode    = "decode_error"
	ResultEncode    = "encode_error"
	ResultTransport = "transport_error"
	ResultOther     = "other_error"
	ResultDuplicate = "duplicate"

	EndpointSOS          = "sos"
	EndpointSaveContacts = "save_contacts"
)

// Metrics 指标管理器。所有方法在 nil 接收者上为空操作，未启用指标时可直接传 nil
type Metrics struct {
	// 推送通道
	alertFramesTotal        *prometheus.CounterVec
	alertNotificationsTotal *prometheus.CounterVec
	listenerConnected       prometheus.Gauge

	// 出站请求
	emergencyRequestsTotal   *prometheus.CounterVec
	emergencyRequestDuration *prometheus.HistogramVec
}

// NewMetrics 在 reg 上注册指标，reg 为 nil 时使用默认注册表
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		alertFramesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_frames_total",
				Help: "Total number of inbound alert frames by parse result",
			},
			[]string{"result"},
		),

		alertNotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_notifications_total",
				Help: "Total number of notifications handed to the sink",
			},
			[]string{"result"},
		),

		listenerConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "alert_listener_connected",
				Help: "1 while the alert channel is connected, 0 otherwise",
			},
		),

		emergencyRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emergency_requests_total",
				Help: "Total number of outbound emergency requests by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),

		emergencyRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emergency_request_duration_seconds",
				Help:    "Outbound emergency request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
}

// RecordAlertFrame 记录一条入站帧的解析结果
func (m *Metrics) RecordAlertFrame(result string) {
	if m == nil {
		return
	}
	m.alertFramesTotal.WithLabelValues(result).Inc()
}

// RecordNotification 记录一次通知投递
func (m *Metrics) RecordNotification(result string) {
	if m == nil {
		return
	}
	m.alertNotificationsTotal.WithLabelValues(result).Inc()
}

// SetListenerConnected 设置推送通道连接状态
func (m *Metrics) SetListenerConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.listenerConnected.Set(1)
		return
	}
	m.listenerConnected.Set(0)
}

// RecordEmergencyRequest 记录一次出站请求
func (m *Metrics) RecordEmergencyRequest(endpoint, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.emergencyRequestsTotal.WithLabelValues(endpoint, result).Inc()
	m.emergencyRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
