package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Identifier 用户标识，服务端可能以数字或字符串下发
type Identifier string

// UnmarshalJSON 接受 JSON 字符串或数字，其余类型（含 null）视为错误
func (id *Identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("identifier: empty value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = Identifier(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*id = Identifier(n.String())
		return nil
	}
	return fmt.Errorf("identifier: unsupported JSON value %s", data)
}

// FromInt 由整数用户 ID 构造标识
func FromInt(v int) Identifier { return Identifier(strconv.Itoa(v)) }

// Coordinates 入站消息中的坐标，指针用于区分"缺失"与"为 0"
type Coordinates struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lng *float64 `json:"lng" validate:"required"`
}

// Location 返回值形式的位置，调用前需已通过校验
func (c Coordinates) Location() Location {
	return Location{Lat: *c.Lat, Lng: *c.Lng}
}

// AlertMessage 推送通道上的一条 SOS 警报帧，只在处理期间存在
type AlertMessage struct {
	UserID   Identifier   `json:"userId" validate:"required"`
	Location *Coordinates `json:"location" validate:"required"`
}

// EmergencyRequest 用户触发 SOS 时发往 /sos 的请求体
type EmergencyRequest struct {
	UserID   int      `json:"userId"`
	Location Location `json:"location"`
}
