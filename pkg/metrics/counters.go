package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// AlertFrames 返回指定结果的入站帧计数，供诊断与测试读取
func (m *Metrics) AlertFrames(result string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.alertFramesTotal.WithLabelValues(result))
}

// Notifications 返回指定结果的通知计数
func (m *Metrics) Notifications(result string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.alertNotificationsTotal.WithLabelValues(result))
}

// EmergencyRequests 返回指定端点与结果的出站请求计数
func (m *Metrics) EmergencyRequests(endpoint, result string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.emergencyRequestsTotal.WithLabelValues(endpoint, result))
}

func counterValue(c prometheus.Counter) float64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil || pb.Counter == nil {
		return 0
	}
	return pb.Counter.GetValue()
}
