package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"SafetyApp/internal/models"
	"SafetyApp/pkg/errors"
	"SafetyApp/pkg/location"
	"SafetyApp/pkg/logger"
	"SafetyApp/pkg/metrics"
)

const (
	pathSOS          = "/sos"
	pathSaveContacts = "/save-contacts"

	headerRequestID = "X-Request-ID"

	// 解码失败时附带到错误上下文中的响应体长度
	bodyExcerptLimit = 256
)

// Config 出站请求配置
type Config struct {
	BaseURL string
	UserID  int
	// Timeout 为 0 时不设超时
	Timeout time.Duration
}

// SOSResponse /sos 的 JSON 响应，不论状态码均原样返回
type SOSResponse struct {
	StatusCode int
	Body       map[string]any
}

// RawResponse /save-contacts 的原始响应
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// Client 向后端发送 SOS 与联系人请求，可并发使用
type Client struct {
	cfg     Config
	holder  *location.Holder
	http    *http.Client
	metrics *metrics.Metrics
}

// Option Client 选项
type Option func(*Client)

// WithHTTPClient 替换默认的 http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithMetrics 记录请求指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

func NewClient(cfg Config, holder *location.Holder, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if holder == nil {
		holder = location.NewHolder()
	}
	c := &Client{
		cfg:    cfg,
		holder: holder,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trigger 以当前位置（无定位时用兜底坐标）发送一次 SOS，不重试
func (c *Client) Trigger(ctx context.Context) (*SOSResponse, error) {
	req := models.EmergencyRequest{
		UserID:   c.cfg.UserID,
		Location: c.holder.Current(),
	}

	start := time.Now()
	status, body, err := c.post(ctx, pathSOS, req)
	if err != nil {
		c.observe(metrics.EndpointSOS, err, start)
		return nil, err
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		derr := errors.Wrap(err, errors.CodeDecode, "sos response is not JSON").
			WithContext("status", strconv.Itoa(status)).
			WithContext("body", excerpt(body))
		c.observe(metrics.EndpointSOS, derr, start)
		logger.Error("sos response decode failed", zap.Int("status", status), zap.Error(derr))
		return nil, derr
	}

	c.observe(metrics.EndpointSOS, nil, start)
	logger.Info("sos sent",
		zap.Int("status", status),
		zap.Stringer("location", req.Location),
	)
	return &SOSResponse{StatusCode: status, Body: decoded}, nil
}

// SaveContact 保存一个紧急联系人，响应体不做解析
func (c *Client) SaveContact(ctx context.Context, name, phone string) (*RawResponse, error) {
	start := time.Now()
	status, body, err := c.post(ctx, pathSaveContacts, models.NewSaveContactsRequest(c.cfg.UserID, name, phone))
	c.observe(metrics.EndpointSaveContacts, err, start)
	if err != nil {
		return nil, err
	}

	logger.Info("contact saved", zap.Int("status", status), zap.String("name", name))
	return &RawResponse{StatusCode: status, Body: body}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, errors.Wrap(err, errors.CodeEncode, "encode request")
	}

	url := c.cfg.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, errors.Wrapf(err, errors.CodeOther, "build request %s", path)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRequestID, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		terr := errors.Wrapf(err, errors.CodeTransport, "POST %s", path).WithContext("request_id", requestID)
		logger.Error("backend unreachable", zap.String("url", url), zap.String("request_id", requestID), zap.Error(err))
		return 0, nil, terr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrapf(err, errors.CodeTransport, "read response %s", path).
			WithContext("request_id", requestID)
	}

	logger.Debug("backend responded",
		zap.String("url", url),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Int("size", len(body)),
	)
	return resp.StatusCode, body, nil
}

func (c *Client) observe(endpoint string, err error, start time.Time) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case errors.IsCode(err, errors.CodeTransport):
		result = metrics.ResultTransport
	case errors.IsCode(err, errors.CodeDecode):
		result = metrics.ResultDecode
	case errors.IsCode(err, errors.CodeEncode):
		result = metrics.ResultEncode
	default:
		result = metrics.ResultOther
	}
	c.metrics.RecordEmergencyRequest(endpoint, result, time.Since(start))
}

func excerpt(body []byte) string {
	if len(body) > bodyExcerptLimit {
		return string(body[:bodyExcerptLimit]) + "..."
	}
	return string(body)
}
