package refund

import (
	"time"

	"backend/internal/aftersales"
	"backend/internal/order"

	"github.com/shopspring/decimal"
)

// RefundType 退款类型
const (
	RefundTypeOrder   = 1 // 整单退款
	RefundTypeProduct = 2 // 按商品退款
)

// RefundStatus 退款单状态（持久化编码固定，不可改动）
const (
	RefundStatusWait       = 0 // 待处理
	RefundStatusProcessing = 1 // 处理中（保留编码，本核心不写入）
	RefundStatusProcessed  = 2 // 已处理
	RefundStatusCancel     = 3 // 已取消
)

// Channel 退款通道
const (
	ChannelOnline  = 1 // 原路在线退回
	ChannelBalance = 2 // 退到余额钱包
	ChannelOffline = 3 // 线下转账
)

// ChannelState 单个通道的进度
const (
	ChannelStateUnstarted = 0 // 未发起
	ChannelStateSubmitted = 1 // 已发起，等待外部/人工确认
	ChannelStateConfirmed = 2 // 已确认到账
)

// RefundApply 退款单。
// 三个通道各自持有 {state, amount} 两列：余额通道入账即确认（0→2），
// 在线与线下通道先置为已发起（1），等待外部回执或人工确认后才到 2。
type RefundApply struct {
	ID           int64 `json:"id" gorm:"primaryKey;autoIncrement"`
	RefundType   int   `json:"refund_type" gorm:"not null;default:1"`
	RefundStatus int   `json:"refund_status" gorm:"not null;default:0;index"`
	OrderID      int64 `json:"order_id" gorm:"not null;index"`
	UserID       int64 `json:"user_id" gorm:"not null;index"`
	AftersalesID int64 `json:"aftersales_id" gorm:"not null;index"`
	ShopID       int64 `json:"shop_id" gorm:"not null"`

	OnlineState   int             `json:"online_state" gorm:"not null;default:0"`
	OnlineAmount  decimal.Decimal `json:"online_amount" gorm:"type:decimal(10,2);not null;default:0"`
	BalanceState  int             `json:"balance_state" gorm:"not null;default:0"`
	BalanceAmount decimal.Decimal `json:"balance_amount" gorm:"type:decimal(10,2);not null;default:0"`
	OfflineState  int             `json:"offline_state" gorm:"not null;default:0"`
	OfflineAmount decimal.Decimal `json:"offline_amount" gorm:"type:decimal(10,2);not null;default:0"`

	RefundNote     string    `json:"refund_note" gorm:"size:500"`
	PaymentVoucher string    `json:"payment_voucher" gorm:"size:500"` // 线下转账凭证
	CreatedAt      time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

// TableName 表名
func (RefundApply) TableName() string {
	return "refund_apply"
}

// Settled 是否结清：没有任何通道停留在已发起状态。
// 余额通道不会停在 1，所以只有在线与线下通道能让退款单保持打开。
// 每次变更后重新计算，不在实体上缓存。
func (r *RefundApply) Settled() bool {
	return r.OnlineState != ChannelStateSubmitted &&
		r.BalanceState != ChannelStateSubmitted &&
		r.OfflineState != ChannelStateSubmitted
}

// Finalized 是否已终结（终结后不可重开）
func (r *RefundApply) Finalized() bool {
	return r.RefundStatus == RefundStatusProcessed || r.RefundStatus == RefundStatusCancel
}

// ChannelTotal 三个通道金额合计
func (r *RefundApply) ChannelTotal() decimal.Decimal {
	return r.OnlineAmount.Add(r.BalanceAmount).Add(r.OfflineAmount)
}

// RefundLog 退款流水（只增不改不删），用于回溯一个订单已退的金额
type RefundLog struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid"`
	OrderID       int64           `json:"order_id" gorm:"not null;index"`
	RefundApplyID int64           `json:"refund_apply_id" gorm:"not null;index"`
	Channel       int             `json:"channel" gorm:"not null"` // 1在线 2余额 3线下
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	UserID        int64           `json:"user_id" gorm:"not null;index"`
	AdminID       int64           `json:"admin_id"`
	Note          string          `json:"note" gorm:"size:500"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null;autoCreateTime"`
}

// TableName 表名
func (RefundLog) TableName() string {
	return "refund_log"
}

// CompletedTotals 一个订单下已终结退款单（已处理+已取消）的分通道合计
type CompletedTotals struct {
	Online  decimal.Decimal
	Balance decimal.Decimal
	Offline decimal.Decimal
}

// Total 三通道合计
func (t CompletedTotals) Total() decimal.Decimal {
	return t.Online.Add(t.Balance).Add(t.Offline)
}

// Detail 退款单详情：实体加上结算所需的全部计算量
type Detail struct {
	Refund     *RefundApply           `json:"refund"`
	Aftersales *aftersales.Aftersales `json:"aftersales"`
	Order      *order.Order           `json:"order"`

	ClaimedAmount          decimal.Decimal `json:"claimed_amount"`           // 按审核数量计算的应退货款
	RefundableAmount       decimal.Decimal `json:"refundable_amount"`        // 本单可退上限（未发货含运费）
	CompletedTotals        CompletedTotals `json:"completed_totals"`         // 订单维度已退合计
	EffectiveOnlineBalance decimal.Decimal `json:"effective_online_balance"` // 在线通道剩余可退额度
}

// AuditRequest 审核结算请求
type AuditRequest struct {
	RefundID      int64           `json:"refund_id"`
	TargetStatus  int             `json:"target_status"` // 2已处理 / 3取消
	OnlineAmount  decimal.Decimal `json:"online_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	OfflineAmount decimal.Decimal `json:"offline_amount"`
	Note          string          `json:"note"`
	Voucher       string          `json:"voucher"`
	AdminID       int64           `json:"admin_id"`
}
