package websocket

import "github.com/gorilla/websocket"

// 连接状态，只能单向前进：Connecting -> Connected -> Closed
const (
	StateConnecting State = iota
	StateConnected
	StateClosed
)

const (
	// 默认配置值
	DefaultHandshakeTimeout = 45 // 秒
	DefaultReadBufferSize   = 1024
	DefaultWriteBufferSize  = 1024
	DefaultMaxMessageSize   = 64 * 1024

	// CloseAbnormal 传输层异常断开时上报的关闭码
	CloseAbnormal = websocket.CloseAbnormalClosure

	// 环境变量配置键
	EnvWebSocketHandshakeTimeout  = "WEBSOCKET_HANDSHAKE_TIMEOUT"
	EnvWebSocketReadBufferSize    = "WEBSOCKET_READ_BUFFER_SIZE"
	EnvWebSocketWriteBufferSize   = "WEBSOCKET_WRITE_BUFFER_SIZE"
	EnvWebSocketMaxMessageSize    = "WEBSOCKET_MAX_MESSAGE_SIZE"
	EnvWebSocketEnableCompression = "WEBSOCKET_ENABLE_COMPRESSION"
)

// State 监听器状态
type State int32

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}
