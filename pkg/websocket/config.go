package websocket

import (
	"fmt"
	"time"

	"SafetyApp/pkg/util"
)

// Config 推送通道客户端配置
type Config struct {
	// 握手超时
	HandshakeTimeout time.Duration
	// 读缓冲区大小
	ReadBufferSize int
	// 写缓冲区大小
	WriteBufferSize int
	// 单帧最大字节数，超出后连接被关闭
	MaxMessageSize int
	// 是否协商 permessage-deflate
	EnableCompression bool
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		HandshakeTimeout:  DefaultHandshakeTimeout * time.Second,
		ReadBufferSize:    DefaultReadBufferSize,
		WriteBufferSize:   DefaultWriteBufferSize,
		MaxMessageSize:    DefaultMaxMessageSize,
		EnableCompression: false,
	}
}

// LoadConfigFromEnv 从环境变量加载配置，未设置的项取默认值。
// 设置了但不合法的值原样保留，由 ValidateConfig 报告
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()

	if util.GetEnv(EnvWebSocketHandshakeTimeout) != "" {
		config.HandshakeTimeout = util.GetDurationEnv(EnvWebSocketHandshakeTimeout)
	}

	if util.GetEnv(EnvWebSocketReadBufferSize) != "" {
		config.ReadBufferSize = int(util.GetIntEnv(EnvWebSocketReadBufferSize))
	}

	if util.GetEnv(EnvWebSocketWriteBufferSize) != "" {
		config.WriteBufferSize = int(util.GetIntEnv(EnvWebSocketWriteBufferSize))
	}

	if util.GetEnv(EnvWebSocketMaxMessageSize) != "" {
		config.MaxMessageSize = int(util.GetIntEnv(EnvWebSocketMaxMessageSize))
	}

	if util.GetEnv(EnvWebSocketEnableCompression) != "" {
		config.EnableCompression = util.GetBoolEnv(EnvWebSocketEnableCompression)
	}

	return config
}

// ValidateConfig 验证配置
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("websocket config is nil")
	}

	if config.HandshakeTimeout <= 0 {
		return fmt.Errorf("handshake timeout must be positive")
	}

	if config.ReadBufferSize <= 0 || config.WriteBufferSize <= 0 {
		return fmt.Errorf("read/write buffer size must be positive")
	}

	if config.MaxMessageSize <= 0 {
		return fmt.Errorf("max message size must be positive")
	}

	return nil
}

// GetConfigSummary 获取配置摘要
func GetConfigSummary(config *Config) map[string]interface{} {
	return map[string]interface{}{
		"handshake_timeout":  config.HandshakeTimeout.String(),
		"read_buffer_size":   config.ReadBufferSize,
		"write_buffer_size":  config.WriteBufferSize,
		"max_message_size":   config.MaxMessageSize,
		"enable_compression": config.EnableCompression,
	}
}
