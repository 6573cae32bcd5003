package alert

import (
	"context"
	"fmt"
	"time"

	"SafetyApp/internal/models"
	"SafetyApp/pkg/cache"
)

// Deduplicator 在时间窗口内丢弃 userId 与坐标完全相同的重复警报。
// 窗口为 0 时不做去重
type Deduplicator struct {
	window time.Duration
	seen   cache.Cache
}

// NewDeduplicator window<=0 返回 nil，nil 上的 Seen 恒为 false
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		return nil
	}
	return &Deduplicator{
		window: window,
		seen: cache.NewGoCache(cache.LocalConfig{
			DefaultExpiration: window,
			CleanupInterval:   2 * window,
		}),
	}
}

// Seen 报告该警报是否在窗口内出现过，未出现则记录
func (d *Deduplicator) Seen(msg models.AlertMessage) bool {
	if d == nil {
		return false
	}
	return d.seen.Add(context.Background(), dedupKey(msg), struct{}{}, d.window) != nil
}

// Forget 撤销一次记录，通知投递失败时调用，使后续同样的警报仍能送达
func (d *Deduplicator) Forget(msg models.AlertMessage) {
	if d == nil {
		return
	}
	_ = d.seen.Delete(context.Background(), dedupKey(msg))
}

func dedupKey(msg models.AlertMessage) string {
	loc := msg.Location.Location()
	return fmt.Sprintf("%s|%g|%g", msg.UserID, loc.Lat, loc.Lng)
}
