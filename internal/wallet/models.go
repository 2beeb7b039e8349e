package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserWallet 用户钱包账户
type UserWallet struct {
	UserID      int64           `json:"user_id" gorm:"primaryKey"`
	Balance     decimal.Decimal `json:"balance" gorm:"type:decimal(12,2);not null;default:0"`      // 当前余额
	TotalIncome decimal.Decimal `json:"total_income" gorm:"type:decimal(12,2);not null;default:0"` // 累计入账
	TotalOutgo  decimal.Decimal `json:"total_outgo" gorm:"type:decimal(12,2);not null;default:0"`  // 累计支出
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

// TableName 表名
func (UserWallet) TableName() string {
	return "user_wallet"
}

// TransactionType 钱包流水类型
type TransactionType string

const (
	TransactionTypeRefund   TransactionType = "refund"   // 退款入账
	TransactionTypeRecharge TransactionType = "recharge" // 充值
	TransactionTypeConsume  TransactionType = "consume"  // 消费
	TransactionTypeAdjust   TransactionType = "adjust"   // 人工调整
)

// WalletTransaction 钱包流水（只增不改）
type WalletTransaction struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid"`
	UserID        int64           `json:"user_id" gorm:"not null;index:idx_wallet_tx_user"`
	Type          TransactionType `json:"type" gorm:"size:20;not null;index:idx_wallet_tx_type"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"` // 变动金额（正负）
	BalanceBefore decimal.Decimal `json:"balance_before" gorm:"type:decimal(12,2);not null"`
	BalanceAfter  decimal.Decimal `json:"balance_after" gorm:"type:decimal(12,2);not null"`
	RefundApplyID int64           `json:"refund_apply_id" gorm:"index"` // 关联的退款单
	Note          string          `json:"note" gorm:"size:500"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null;autoCreateTime;index:idx_wallet_tx_time"`
}

// TableName 表名
func (WalletTransaction) TableName() string {
	return "wallet_transaction"
}
