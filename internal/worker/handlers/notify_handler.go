package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/notification"
	"backend/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 通知去重键的保留时间
const notifyDedupTTL = 24 * time.Hour

// NotifyHandler 退款完成通知处理器。
// 通过 Redis SETNX 去重：队列重试或重复入队不会重复触达用户。
type NotifyHandler struct {
	sender *notification.WebhookSender
	rdb    *redis.Client // 可为 nil，降级为不去重
	logger *zap.Logger
}

// NewNotifyHandler 创建通知处理器
func NewNotifyHandler(sender *notification.WebhookSender, rdb *redis.Client, logger *zap.Logger) *NotifyHandler {
	return &NotifyHandler{
		sender: sender,
		rdb:    rdb,
		logger: logger,
	}
}

// HandleRefundCompleted 投递退款完成通知，失败交给队列按策略重试
func (h *NotifyHandler) HandleRefundCompleted(ctx context.Context, t *asynq.Task) error {
	var p tasks.RefundCompletedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json unmarshal failed: %w", err)
	}

	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return fmt.Errorf("无效的通知金额 %q: %w", p.Amount, err)
	}

	dedupKey := fmt.Sprintf("notify:refund_completed:%d", p.RefundApplyID)
	if h.rdb != nil {
		ok, err := h.rdb.SetNX(ctx, dedupKey, 1, notifyDedupTTL).Result()
		if err != nil {
			// Redis 故障时放行，宁可重复通知也不丢通知
			h.logger.Warn("通知去重检查失败", zap.Error(err))
		} else if !ok {
			h.logger.Info("退款完成通知已投递过，跳过",
				zap.Int64("refund_apply_id", p.RefundApplyID),
			)
			return nil
		}
	}

	evt := notification.RefundCompletedEvent{
		RefundApplyID: p.RefundApplyID,
		OrderID:       p.OrderID,
		OrderSn:       p.OrderSn,
		UserID:        p.UserID,
		Amount:        amount,
	}

	if err := h.sender.Send(ctx, evt); err != nil {
		// 投递失败要释放去重键，否则重试会被误判为已投递
		if h.rdb != nil {
			h.rdb.Del(ctx, dedupKey)
		}
		h.logger.Error("退款完成通知投递失败",
			zap.Int64("refund_apply_id", p.RefundApplyID),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("退款完成通知已投递",
		zap.Int64("refund_apply_id", p.RefundApplyID),
		zap.Int64("user_id", p.UserID),
	)
	return nil
}
