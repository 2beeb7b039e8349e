package notification

import (
	"context"

	"github.com/shopspring/decimal"
)

// RefundCompletedEvent 退款完成事件（提交后触达用户）
type RefundCompletedEvent struct {
	RefundApplyID int64           `json:"refund_apply_id"`
	OrderID       int64           `json:"order_id"`
	OrderSn       string          `json:"order_sn"`
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// Notifier 通知器接口。
// 只允许在事务提交之后调用；投递失败只记录日志，绝不影响退款单状态。
type Notifier interface {
	RefundCompleted(ctx context.Context, evt RefundCompletedEvent) error
}
