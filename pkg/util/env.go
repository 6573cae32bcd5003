package util

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// LoadEnv 加载 .env 与 .env.<env> 文件，已存在的环境变量不会被覆盖
func LoadEnv(env string) error {
	files := make([]string, 0, 2)
	if env != "" {
		if name := ".env." + env; fileExists(name) {
			files = append(files, name)
		}
	}
	if fileExists(".env") {
		files = append(files, ".env")
	}
	if len(files) == 0 {
		return fmt.Errorf("no env file found for %q", env)
	}
	return godotenv.Load(files...)
}

func fileExists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}

func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// GetEnvOr 为空时返回默认值
func GetEnvOr(key, def string) string {
	if v := GetEnv(key); v != "" {
		return v
	}
	return def
}

func GetIntEnv(key string) int64 {
	return cast.ToInt64(GetEnv(key))
}

func GetBoolEnv(key string) bool {
	return cast.ToBool(GetEnv(key))
}

func GetFloatEnv(key string) float64 {
	return cast.ToFloat64(GetEnv(key))
}

// GetDurationEnv 支持 "5s"、"250ms"，纯数字按纳秒处理
func GetDurationEnv(key string) time.Duration {
	return cast.ToDuration(GetEnv(key))
}
