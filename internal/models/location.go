package models

import "fmt"

// Location 经纬度
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FallbackLocation 定位不可用时整体替换使用
var FallbackLocation = Location{Lat: 12.34, Lng: 56.78}

// DefaultUserID 客户端固定的用户 ID
const DefaultUserID = 1

func (l Location) String() string {
	return fmt.Sprintf("%g, %g", l.Lat, l.Lng)
}
