package aftersales

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 售后单状态（审批流程在外部系统完成，本核心只消费已同意的售后单）
const (
	StatusPending  = 0 // 待审核
	StatusApproved = 1 // 已同意
	StatusRejected = 2 // 已驳回
	StatusClosed   = 3 // 已关闭
)

// Aftersales 售后单（退款申请的来源）
type Aftersales struct {
	ID           int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID      int64           `json:"order_id" gorm:"not null;index"`
	UserID       int64           `json:"user_id" gorm:"not null;index"`
	ShopID       int64           `json:"shop_id" gorm:"not null"`
	Status       int             `json:"status" gorm:"not null;default:0"`
	RefundAmount decimal.Decimal `json:"refund_amount" gorm:"type:decimal(10,2);not null;default:0"` // 申请退款金额
	Reason       string          `json:"reason" gorm:"size:500"`
	CreatedAt    time.Time       `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"not null;autoUpdateTime"`

	Items []AftersalesItem `json:"items" gorm:"-"`
}

// TableName 表名
func (Aftersales) TableName() string {
	return "aftersales"
}

// AftersalesItem 售后单行（指明退货的商品/SKU与数量）
type AftersalesItem struct {
	ID               int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	AftersalesID     int64           `json:"aftersales_id" gorm:"not null;index"`
	OrderID          int64           `json:"order_id" gorm:"not null;index"`
	ProductID        int64           `json:"product_id" gorm:"not null"`
	SkuID            int64           `json:"sku_id" gorm:"not null;default:0"` // 0 表示无SKU的单规格商品
	FlashSaleItemID  int64           `json:"flash_sale_item_id" gorm:"not null;default:0"`
	Price            decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;default:0"` // 成交单价
	Quantity         int             `json:"quantity" gorm:"not null;default:0"`                 // 申请数量
	ApprovedQuantity int             `json:"approved_quantity" gorm:"not null;default:0"`        // 审核通过数量
	CreatedAt        time.Time       `json:"created_at" gorm:"not null;autoCreateTime"`
}

// TableName 表名
func (AftersalesItem) TableName() string {
	return "aftersales_item"
}

// ClaimedAmount 按审核通过数量计算的应退货款
func (a *Aftersales) ClaimedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range a.Items {
		qty := item.ApprovedQuantity
		if qty <= 0 {
			continue
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}
