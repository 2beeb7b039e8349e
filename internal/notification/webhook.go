package notification

import (
	"context"
	"time"

	"backend/internal/config"
	"backend/pkg/httputil"
)

// WebhookSender 把退款完成事件推送到通知网关（短信/站内信由网关分发）
type WebhookSender struct {
	cfg    *config.NotifyConfig
	client *httputil.Client
}

// NewWebhookSender 创建通知网关客户端
func NewWebhookSender(cfg *config.NotifyConfig) *WebhookSender {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		cfg: cfg,
		client: httputil.NewClient(
			httputil.WithTimeout(timeout),
			httputil.WithRetries(2),
		),
	}
}

// Send 推送事件
func (w *WebhookSender) Send(ctx context.Context, evt RefundCompletedEvent) error {
	if !w.cfg.Enabled || w.cfg.WebhookURL == "" {
		return nil
	}

	payload := map[string]any{
		"type":            "refund_completed",
		"refund_apply_id": evt.RefundApplyID,
		"order_id":        evt.OrderID,
		"order_sn":        evt.OrderSn,
		"user_id":         evt.UserID,
		"amount":          evt.Amount.StringFixed(2),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}

	return w.client.PostJSON(ctx, w.cfg.WebhookURL, payload)
}
