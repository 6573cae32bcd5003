package config

import (
	"log"
	"os"
	"strings"
	"time"

	"SafetyApp/pkg/logger"
	"SafetyApp/pkg/notification"
	"SafetyApp/pkg/util"
)

// 默认值与原有客户端保持一致
const (
	DefaultBackendURL = "http://127.0.0.1:5000"
	DefaultAlertURL   = "ws://127.0.0.1:5000/socket.io"
	DefaultLanguage   = "en"
	DefaultUserID     = 1
)

// config/config.go
type Config struct {
	Mode        string `env:"MODE"`
	Log         logger.LogConfig
	BackendURL  string        `env:"BACKEND_URL"`
	AlertURL    string        `env:"ALERT_WS_URL"`
	UserID      int           `env:"USER_ID"`
	Language    string        `env:"APP_LANGUAGE"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT"`
	DedupWindow time.Duration `env:"ALERT_DEDUP_WINDOW"`
	MetricsAddr string        `env:"METRICS_ADDR"`
	Push        notification.PushConfig
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	err := util.LoadEnv(env)
	if err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = FromEnv()
	return nil
}

// FromEnv 从当前环境变量构造配置，未设置的项取默认值
func FromEnv() *Config {
	userID := int(util.GetIntEnv("USER_ID"))
	if userID == 0 {
		userID = DefaultUserID
	}

	return &Config{
		Mode: util.GetEnv("MODE"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		BackendURL:  util.GetEnvOr("BACKEND_URL", DefaultBackendURL),
		AlertURL:    util.GetEnvOr("ALERT_WS_URL", DefaultAlertURL),
		UserID:      userID,
		Language:    util.GetEnvOr("APP_LANGUAGE", DefaultLanguage),
		HTTPTimeout: util.GetDurationEnv("HTTP_TIMEOUT"),
		DedupWindow: util.GetDurationEnv("ALERT_DEDUP_WINDOW"),
		MetricsAddr: util.GetEnv("METRICS_ADDR"),
		Push: notification.PushConfig{
			AppKey:       util.GetEnv("PUSH_APP_KEY"),
			MasterSecret: util.GetEnv("PUSH_MASTER_SECRET"),
			Alias:        splitList(util.GetEnv("PUSH_ALIAS")),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
