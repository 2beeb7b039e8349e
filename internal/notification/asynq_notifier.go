package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/worker/tasks"

	"github.com/hibiken/asynq"
)

// AsynqNotifier 把退款完成事件投递到任务队列，由 Worker 异步触达用户。
// 入队失败由调用方记录日志，不会影响已提交的退款事务。
type AsynqNotifier struct {
	client *asynq.Client
}

// NewAsynqNotifier 创建队列通知器
func NewAsynqNotifier(client *asynq.Client) *AsynqNotifier {
	return &AsynqNotifier{client: client}
}

// RefundCompleted 入队退款完成通知任务
func (n *AsynqNotifier) RefundCompleted(ctx context.Context, evt RefundCompletedEvent) error {
	payload := tasks.RefundCompletedPayload{
		RefundApplyID: evt.RefundApplyID,
		OrderID:       evt.OrderID,
		OrderSn:       evt.OrderSn,
		UserID:        evt.UserID,
		Amount:        evt.Amount.StringFixed(2),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化通知载荷失败: %w", err)
	}

	task := asynq.NewTask(tasks.TypeRefundCompleted, data)
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue("notify"), asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("通知任务入队失败: %w", err)
	}
	return nil
}
