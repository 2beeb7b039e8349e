package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInvalidAmount = errors.New("无效的入账金额")

// Service 钱包服务
type Service struct {
	db *gorm.DB
}

// NewService 创建钱包服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetBalance 获取余额（账户不存在视为零余额）
func (s *Service) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var w UserWallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

// CreditTx 在调用方事务内给用户钱包入账。
// 余额更新使用 balance + ? 原子自增，订单、其他退款会并发改写同一账户。
// 同时写入一条只增的流水记录。
func (s *Service) CreditTx(tx *gorm.DB, userID int64, amount decimal.Decimal, refundApplyID int64, note string) (*WalletTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	wallet, err := getOrCreateWalletTx(tx, userID)
	if err != nil {
		return nil, err
	}

	record := &WalletTransaction{
		ID:            uuid.New().String(),
		UserID:        userID,
		Type:          TransactionTypeRefund,
		Amount:        amount,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance.Add(amount),
		RefundApplyID: refundApplyID,
		Note:          note,
	}
	if err := tx.Create(record).Error; err != nil {
		return nil, err
	}

	err = tx.Model(&UserWallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance + ?", amount),
			"total_income": gorm.Expr("total_income + ?", amount),
		}).Error
	if err != nil {
		return nil, err
	}

	return record, nil
}

// ListTransactions 查询用户钱包流水
func (s *Service) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]WalletTransaction, int64, error) {
	db := s.db.WithContext(ctx).Model(&WalletTransaction{}).
		Where("user_id = ?", userID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var records []WalletTransaction
	err := db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error

	return records, total, err
}

func getOrCreateWalletTx(tx *gorm.DB, userID int64) (*UserWallet, error) {
	var w UserWallet
	err := tx.Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	w = UserWallet{
		UserID:      userID,
		Balance:     decimal.Zero,
		TotalIncome: decimal.Zero,
		TotalOutgo:  decimal.Zero,
	}
	if err := tx.Create(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}
