package location

import (
	"sync/atomic"

	"SafetyApp/internal/models"
)

// Holder 保存最近一次定位。写入来自定位回调，读取来自 SOS 触发，
// 整对经纬度以单个指针原子替换，读方不会看到新旧混杂的坐标
type Holder struct {
	v atomic.Pointer[models.Location]
}

func NewHolder() *Holder { return &Holder{} }

// Set 保存一份副本，后写覆盖先写
func (h *Holder) Set(loc models.Location) {
	h.v.Store(&loc)
}

// Get 返回最近一次定位，未收到过定位时 ok 为 false
func (h *Holder) Get() (loc models.Location, ok bool) {
	p := h.v.Load()
	if p == nil {
		return models.Location{}, false
	}
	return *p, true
}

// Current 返回实时定位，没有时整体替换为 FallbackLocation
func (h *Holder) Current() models.Location {
	if loc, ok := h.Get(); ok {
		return loc
	}
	return models.FallbackLocation
}

// OnLocation 适配定位服务回调，服务使用 lon 命名经度
func (h *Holder) OnLocation(lat, lon float64) {
	h.Set(models.Location{Lat: lat, Lng: lon})
}
