package listeners

import (
	"go.uber.org/zap"

	"SafetyApp/pkg/location"
	"SafetyApp/pkg/logger"
)

// InitLocationListener 订阅定位服务，每次定位写入 holder
func InitLocationListener(provider location.Provider, holder *location.Holder) error {
	return provider.Start(func(lat, lon float64) {
		holder.OnLocation(lat, lon)
		logger.Debug("location updated", zap.Float64("lat", lat), zap.Float64("lng", lon))
	})
}
