package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingStatus 发货状态
const (
	ShippingStatusNotShipped = 0 // 未发货
	ShippingStatusShipped    = 1 // 已发货
	ShippingStatusReceived   = 2 // 已签收
)

// OrderStatus 订单状态（本核心只读）
const (
	OrderStatusPendingPay = 0 // 待支付
	OrderStatusPaid       = 1 // 已支付
	OrderStatusFinished   = 2 // 已完成
	OrderStatusClosed     = 3 // 已关闭
)

// Order 订单（退款结算只读取发货状态、运费与在线实付金额）
type Order struct {
	ID               int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderSn          string          `json:"order_sn" gorm:"size:64;not null;uniqueIndex"`
	UserID           int64           `json:"user_id" gorm:"not null;index"`
	ShopID           int64           `json:"shop_id" gorm:"not null;index"`
	Status           int             `json:"status" gorm:"not null;default:0"`
	ShippingStatus   int             `json:"shipping_status" gorm:"not null;default:0"`
	ShippingFee      decimal.Decimal `json:"shipping_fee" gorm:"type:decimal(10,2);not null;default:0"`
	OnlinePaidAmount decimal.Decimal `json:"online_paid_amount" gorm:"type:decimal(10,2);not null;default:0"` // 在线支付实付金额
	CreatedAt        time.Time       `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// NotShipped 是否未发货（未发货的订单退款时可退运费）
func (o *Order) NotShipped() bool {
	return o.ShippingStatus == ShippingStatusNotShipped
}
