package refund

import (
	"context"
	"errors"

	"backend/internal/aftersales"
	"backend/internal/common"
	"backend/internal/order"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger 退款读侧：加载退款单与其售后单、订单，
// 计算可退上限以及各通道剩余可用额度。
type Ledger struct {
	db            *gorm.DB
	orderSvc      *order.Service
	aftersalesSvc *aftersales.Service
}

// NewLedger 创建退款账本
func NewLedger(db *gorm.DB, orderSvc *order.Service, aftersalesSvc *aftersales.Service) *Ledger {
	return &Ledger{
		db:            db,
		orderSvc:      orderSvc,
		aftersalesSvc: aftersalesSvc,
	}
}

// Detail 加载退款单详情并完成全部额度计算
func (l *Ledger) Detail(ctx context.Context, refundID int64) (*Detail, error) {
	db := l.db.WithContext(ctx)

	var apply RefundApply
	err := db.Where("id = ?", refundID).First(&apply).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewNotFoundError("退款单", refundID)
	}
	if err != nil {
		return nil, err
	}

	return l.buildDetail(db, &apply)
}

// detailTx 在调用方事务内对已加载（通常已加锁）的退款单计算详情
func (l *Ledger) detailTx(tx *gorm.DB, apply *RefundApply) (*Detail, error) {
	return l.buildDetail(tx, apply)
}

func (l *Ledger) buildDetail(db *gorm.DB, apply *RefundApply) (*Detail, error) {
	as, err := l.aftersalesSvc.GetTx(db, apply.AftersalesID)
	if err != nil {
		return nil, err
	}

	ord, err := l.orderSvc.GetTx(db, apply.OrderID)
	if err != nil {
		return nil, err
	}

	claimed := as.ClaimedAmount()

	completed, err := completedTotals(db, apply.OrderID)
	if err != nil {
		return nil, err
	}

	// 未发货的订单退款时连运费一起退
	refundable := claimed
	if ord.NotShipped() {
		refundable = refundable.Add(ord.ShippingFee)
	}

	// 在线通道剩余额度 = 在线实付 - 已终结退款单消耗的在线额度，
	// 下限钳到 0，上限钳到本单可退金额
	effOnline := ord.OnlinePaidAmount.Sub(completed.Online)
	if effOnline.LessThan(decimal.Zero) {
		effOnline = decimal.Zero
	}
	if effOnline.GreaterThan(refundable) {
		effOnline = refundable
	}

	return &Detail{
		Refund:                 apply,
		Aftersales:             as,
		Order:                  ord,
		ClaimedAmount:          claimed,
		RefundableAmount:       refundable,
		CompletedTotals:        completed,
		EffectiveOnlineBalance: effOnline,
	}, nil
}

// completedTotals 汇总订单下所有已终结退款单（已处理+已取消）的分通道金额。
// 已取消的退款单同样计入：取消前可能已部分结算，其在线额度已被占用。
func completedTotals(db *gorm.DB, orderID int64) (CompletedTotals, error) {
	var row struct {
		Online  decimal.Decimal
		Balance decimal.Decimal
		Offline decimal.Decimal
	}

	err := db.Model(&RefundApply{}).
		Select(
			"COALESCE(SUM(online_amount), 0) as online, " +
				"COALESCE(SUM(balance_amount), 0) as balance, " +
				"COALESCE(SUM(offline_amount), 0) as offline",
		).
		Where("order_id = ? AND refund_status IN ?", orderID,
			[]int{RefundStatusProcessed, RefundStatusCancel}).
		Scan(&row).Error
	if err != nil {
		return CompletedTotals{}, err
	}

	return CompletedTotals{
		Online:  row.Online,
		Balance: row.Balance,
		Offline: row.Offline,
	}, nil
}

// Logs 查询退款单的结算流水（审计展示用，只读）
func (l *Ledger) Logs(ctx context.Context, refundID int64) ([]RefundLog, error) {
	var logs []RefundLog
	err := l.db.WithContext(ctx).
		Where("refund_apply_id = ?", refundID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
