package notification

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"SafetyApp/pkg/logger"
)

// Notifier 通知出口，负责把 (标题, 内容) 呈现给用户
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// NotifierFunc 函数适配器
type NotifierFunc func(ctx context.Context, title, message string) error

func (f NotifierFunc) Notify(ctx context.Context, title, message string) error {
	return f(ctx, title, message)
}

// LogNotifier 通过日志呈现通知，桌面环境下的默认出口
type LogNotifier struct {
	AppName string
}

func (n LogNotifier) Notify(_ context.Context, title, message string) error {
	logger.Info("notification",
		zap.String("app", n.AppName),
		zap.String("title", title),
		zap.String("message", message),
	)
	return nil
}

// Multi 依次投递到所有出口，返回合并后的错误
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, title, message string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
