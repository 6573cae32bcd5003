package notification

import (
	"context"
	"errors"
)

// ErrPushNotConfigured 未注入推送客户端
var ErrPushNotConfigured = errors.New("push client not configured")

type PushConfig struct {
	AppKey       string
	MasterSecret string
	// Alias 为空时推送给全部设备
	Alias []string
}

// PushClient 便于替换/注入的推送接口（适配真实推送 SDK）
type PushClient interface {
	Push(ctx context.Context, title, content string, audience map[string]interface{}, extras map[string]interface{}) error
}

// Push 通过推送服务投递通知
type Push struct {
	cfg PushConfig
	cli PushClient
}

func NewPush(cfg PushConfig, cli PushClient) *Push { return &Push{cfg: cfg, cli: cli} }

func (p *Push) PushToAlias(ctx context.Context, alias []string, title, content string, extras map[string]interface{}) error {
	if p.cli == nil {
		return ErrPushNotConfigured
	}
	aud := map[string]interface{}{"alias": alias}
	return p.cli.Push(ctx, title, content, aud, extras)
}

func (p *Push) PushToAll(ctx context.Context, title, content string, extras map[string]interface{}) error {
	if p.cli == nil {
		return ErrPushNotConfigured
	}
	aud := map[string]interface{}{"all": true}
	return p.cli.Push(ctx, title, content, aud, extras)
}

// Notify 实现 Notifier，按配置选择别名或全量推送
func (p *Push) Notify(ctx context.Context, title, message string) error {
	if len(p.cfg.Alias) > 0 {
		return p.PushToAlias(ctx, p.cfg.Alias, title, message, nil)
	}
	return p.PushToAll(ctx, title, message, nil)
}
