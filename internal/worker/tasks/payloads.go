package tasks

// Task Types
const (
	TypeRefundCompleted = "notify:refund_completed"
)

// RefundCompletedPayload 退款完成通知任务载荷
type RefundCompletedPayload struct {
	RefundApplyID int64  `json:"refund_apply_id"`
	OrderID       int64  `json:"order_id"`
	OrderSn       string `json:"order_sn"`
	UserID        int64  `json:"user_id"`
	Amount        string `json:"amount"` // 固定两位小数的字符串
}
