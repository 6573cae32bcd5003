package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "SafetyApp/pkg/errors"
)

// DefaultJPushEndpoint JPush REST v3 推送地址
const DefaultJPushEndpoint = "https://api.jpush.cn/v3/push"

// JPushClient 通过 JPush REST API 实现 PushClient，鉴权使用 AppKey:MasterSecret
type JPushClient struct {
	Endpoint string
	cfg      PushConfig
	http     *http.Client
}

// NewJPushClient httpClient 为 nil 时使用 http.DefaultClient
func NewJPushClient(cfg PushConfig, httpClient *http.Client) *JPushClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &JPushClient{Endpoint: DefaultJPushEndpoint, cfg: cfg, http: httpClient}
}

type jpushPayload struct {
	Platform     string            `json:"platform"`
	Audience     interface{}       `json:"audience"`
	Notification jpushNotification `json:"notification"`
}

type jpushNotification struct {
	Alert   string       `json:"alert"`
	Android jpushMessage `json:"android"`
	IOS     jpushMessage `json:"ios"`
}

type jpushMessage struct {
	Alert  string                 `json:"alert"`
	Title  string                 `json:"title,omitempty"`
	Extras map[string]interface{} `json:"extras,omitempty"`
}

// Push audience 为 {"all": true} 时推送全部设备，否则原样作为 JPush audience
func (c *JPushClient) Push(ctx context.Context, title, content string, audience map[string]interface{}, extras map[string]interface{}) error {
	var aud interface{} = audience
	if all, _ := audience["all"].(bool); all {
		aud = "all"
	}
	msg := jpushMessage{Alert: content, Title: title, Extras: extras}
	body, err := json.Marshal(jpushPayload{
		Platform:     "all",
		Audience:     aud,
		Notification: jpushNotification{Alert: content, Android: msg, IOS: msg},
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeEncode, "encode push payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeOther, "build push request")
	}
	req.SetBasicAuth(c.cfg.AppKey, c.cfg.MasterSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransport, "push request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.WithCodef(apperrors.CodeOther, "push rejected: status %d: %s", resp.StatusCode, detail)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

var _ PushClient = (*JPushClient)(nil)

// String 不输出 MasterSecret
func (c *JPushClient) String() string {
	return fmt.Sprintf("jpush(app_key=%s, endpoint=%s)", c.cfg.AppKey, c.Endpoint)
}
