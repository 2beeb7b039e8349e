package refund

import (
	"context"
	"errors"

	"backend/internal/common"
	"backend/internal/logger"
	"backend/internal/metrics"
	"backend/internal/notification"
	"backend/internal/stock"
	"backend/internal/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Coordinator 退款结算协调器。
// 审核与线下确认都在单个数据库事务内完成：退款单状态、流水、
// 钱包入账、库存回补要么全部生效，要么全部回滚。
// 事务内不做任何网络调用，通知在提交后异步触发。
type Coordinator struct {
	db     *gorm.DB
	ledger *Ledger
	wallet *wallet.Service
	stock  *stock.Service
	notify notification.Notifier
}

// NewCoordinator 创建结算协调器
func NewCoordinator(db *gorm.DB, ledger *Ledger, walletSvc *wallet.Service, stockSvc *stock.Service, notifier notification.Notifier) *Coordinator {
	return &Coordinator{
		db:     db,
		ledger: ledger,
		wallet: walletSvc,
		stock:  stockSvc,
		notify: notifier,
	}
}

// Audit 审核退款单并执行结算。
// 前置校验全部通过后：按通道写入流水、置通道状态（余额通道直接确认，
// 在线/线下置为已发起）、钱包入账、库存回补、落盘状态；
// 若结清则无视请求的目标状态强制置为已处理。
func (s *Coordinator) Audit(ctx context.Context, req *AuditRequest) (*RefundApply, error) {
	if req.TargetStatus != RefundStatusProcessed && req.TargetStatus != RefundStatusCancel {
		return nil, common.NewValidationError("不支持的目标状态: %d", req.TargetStatus)
	}
	if req.OnlineAmount.IsNegative() || req.BalanceAmount.IsNegative() || req.OfflineAmount.IsNegative() {
		return nil, common.NewValidationError("退款金额不能为负数")
	}

	var (
		apply   RefundApply
		settled bool
		orderSn string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定退款单行，WAIT 前置条件同时充当单写者保护
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", req.RefundID).
			First(&apply).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NewNotFoundError("退款单", req.RefundID)
		}
		if err != nil {
			return err
		}

		if apply.RefundStatus != RefundStatusWait {
			return common.NewStateError("退款单已终结，当前状态: %d", apply.RefundStatus)
		}

		detail, err := s.ledger.detailTx(tx, &apply)
		if err != nil {
			return err
		}

		total := req.OnlineAmount.Add(req.BalanceAmount).Add(req.OfflineAmount)

		// 取消且不结算任何金额：只落状态与备注
		closeOnly := req.TargetStatus == RefundStatusCancel && total.IsZero()

		if !closeOnly {
			if detail.RefundableAmount.LessThanOrEqual(decimal.Zero) {
				return common.NewValidationError("当前订单无可退金额")
			}
			if req.OnlineAmount.GreaterThan(detail.EffectiveOnlineBalance) {
				return common.NewValidationError("在线退款金额 %s 超出剩余额度 %s",
					req.OnlineAmount.String(), detail.EffectiveOnlineBalance.String())
			}
			if req.BalanceAmount.GreaterThan(detail.RefundableAmount) {
				return common.NewValidationError("余额退款金额 %s 超出可退金额 %s",
					req.BalanceAmount.String(), detail.RefundableAmount.String())
			}
			if req.OfflineAmount.GreaterThan(detail.RefundableAmount) {
				return common.NewValidationError("线下退款金额 %s 超出可退金额 %s",
					req.OfflineAmount.String(), detail.RefundableAmount.String())
			}
			// 各通道合计同样不得超出可退上限
			if total.GreaterThan(detail.RefundableAmount) {
				return common.NewValidationError("退款总额 %s 超出可退金额 %s",
					total.String(), detail.RefundableAmount.String())
			}
		}
		if req.TargetStatus == RefundStatusProcessed && total.LessThanOrEqual(decimal.Zero) {
			return common.NewValidationError("零金额不能结单")
		}

		updates := map[string]interface{}{
			"refund_note":     req.Note,
			"payment_voucher": req.Voucher,
		}

		if !closeOnly {
			// 余额通道入账即确认；在线/线下先置为已发起等待确认
			if req.OnlineAmount.GreaterThan(decimal.Zero) {
				if err := s.appendLog(tx, &apply, ChannelOnline, req.OnlineAmount, req); err != nil {
					return err
				}
				apply.OnlineState = ChannelStateSubmitted
				apply.OnlineAmount = req.OnlineAmount
				updates["online_state"] = ChannelStateSubmitted
				updates["online_amount"] = req.OnlineAmount
			}
			if req.BalanceAmount.GreaterThan(decimal.Zero) {
				if err := s.appendLog(tx, &apply, ChannelBalance, req.BalanceAmount, req); err != nil {
					return err
				}
				if _, err := s.wallet.CreditTx(tx, apply.UserID, req.BalanceAmount, apply.ID, "售后退款入账"); err != nil {
					return err
				}
				apply.BalanceState = ChannelStateConfirmed
				apply.BalanceAmount = req.BalanceAmount
				updates["balance_state"] = ChannelStateConfirmed
				updates["balance_amount"] = req.BalanceAmount
			}
			if req.OfflineAmount.GreaterThan(decimal.Zero) {
				if err := s.appendLog(tx, &apply, ChannelOffline, req.OfflineAmount, req); err != nil {
					return err
				}
				apply.OfflineState = ChannelStateSubmitted
				apply.OfflineAmount = req.OfflineAmount
				updates["offline_state"] = ChannelStateSubmitted
				updates["offline_amount"] = req.OfflineAmount
			}

			if err := s.stock.ReverseTx(tx, reversalLines(detail)); err != nil {
				return err
			}
		}

		apply.RefundStatus = req.TargetStatus
		if !closeOnly {
			if apply.Settled() {
				// 没有通道停留在已发起状态，强制结单
				apply.RefundStatus = RefundStatusProcessed
			} else if req.TargetStatus == RefundStatusProcessed {
				// 在线/线下通道尚待确认，结单要等第二步握手，保持待处理
				apply.RefundStatus = RefundStatusWait
			}
		}
		updates["refund_status"] = apply.RefundStatus

		// WHERE 带 WAIT 条件复核，并发审核的败者在此处拿到 0 行
		res := tx.Model(&RefundApply{}).
			Where("id = ? AND refund_status = ?", apply.ID, RefundStatusWait).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.NewStateError("退款单正在被处理，请稍后重试")
		}

		apply.RefundNote = req.Note
		apply.PaymentVoucher = req.Voucher
		settled = apply.RefundStatus == RefundStatusProcessed
		orderSn = detail.Order.OrderSn
		return nil
	})
	if err != nil {
		metrics.RefundFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, wrapTxError(err)
	}

	s.afterCommit(ctx, &apply, req, settled, orderSn)
	return &apply, nil
}

// ConfirmOffline 线下转账人工确认（第二步握手）。
// 重复确认会被前置条件拒绝：失败幂等，而非成功幂等。
func (s *Coordinator) ConfirmOffline(ctx context.Context, refundID int64, adminID int64) (*RefundApply, error) {
	var (
		apply   RefundApply
		settled bool
		orderSn string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", refundID).
			First(&apply).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NewNotFoundError("退款单", refundID)
		}
		if err != nil {
			return err
		}

		if apply.RefundStatus != RefundStatusWait {
			return common.NewStateError("退款单已终结，不能确认线下转账")
		}
		if apply.OfflineState != ChannelStateSubmitted {
			return common.NewStateError("线下转账不在待确认状态")
		}

		apply.OfflineState = ChannelStateConfirmed
		updates := map[string]interface{}{
			"offline_state": ChannelStateConfirmed,
		}
		if apply.Settled() {
			apply.RefundStatus = RefundStatusProcessed
			updates["refund_status"] = RefundStatusProcessed
		}

		res := tx.Model(&RefundApply{}).
			Where("id = ? AND refund_status = ? AND offline_state = ?",
				apply.ID, RefundStatusWait, ChannelStateSubmitted).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.NewStateError("退款单正在被处理，请稍后重试")
		}

		settled = apply.RefundStatus == RefundStatusProcessed
		if settled {
			ord, err := s.ledger.orderSvc.GetTx(tx, apply.OrderID)
			if err != nil {
				return err
			}
			orderSn = ord.OrderSn
		}
		return nil
	})
	if err != nil {
		metrics.RefundFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, wrapTxError(err)
	}

	metrics.RefundConfirmationsTotal.Inc()
	if settled {
		s.dispatchCompleted(ctx, &apply, orderSn)
	}
	return &apply, nil
}

// appendLog 写入一条结算流水
func (s *Coordinator) appendLog(tx *gorm.DB, apply *RefundApply, channel int, amount decimal.Decimal, req *AuditRequest) error {
	log := &RefundLog{
		ID:            uuid.New().String(),
		OrderID:       apply.OrderID,
		RefundApplyID: apply.ID,
		Channel:       channel,
		Amount:        amount,
		UserID:        apply.UserID,
		AdminID:       req.AdminID,
		Note:          req.Note,
	}
	return tx.Create(log).Error
}

// afterCommit 提交后处理：指标与通知，均不回写数据库
func (s *Coordinator) afterCommit(ctx context.Context, apply *RefundApply, req *AuditRequest, settled bool, orderSn string) {
	if req.OnlineAmount.GreaterThan(decimal.Zero) {
		metrics.RefundSettlementsTotal.WithLabelValues("online").Inc()
	}
	if req.BalanceAmount.GreaterThan(decimal.Zero) {
		metrics.RefundSettlementsTotal.WithLabelValues("balance").Inc()
	}
	if req.OfflineAmount.GreaterThan(decimal.Zero) {
		metrics.RefundSettlementsTotal.WithLabelValues("offline").Inc()
	}

	if settled {
		s.dispatchCompleted(ctx, apply, orderSn)
	}
}

// dispatchCompleted 触发退款完成通知，失败只记日志
func (s *Coordinator) dispatchCompleted(ctx context.Context, apply *RefundApply, orderSn string) {
	if s.notify == nil {
		return
	}
	evt := notification.RefundCompletedEvent{
		RefundApplyID: apply.ID,
		OrderID:       apply.OrderID,
		OrderSn:       orderSn,
		UserID:        apply.UserID,
		Amount:        apply.ChannelTotal(),
	}
	if err := s.notify.RefundCompleted(ctx, evt); err != nil {
		logger.Warn("退款完成通知投递失败",
			zap.Int64("refund_apply_id", apply.ID),
			zap.Error(err),
		)
	}
}

// wrapTxError 业务错误原样返回，其余按可重试的事务失败包装
func wrapTxError(err error) error {
	if common.IsValidationError(err) || common.IsNotFoundError(err) || common.IsStateError(err) {
		return err
	}
	return common.NewConsistencyError(err)
}

func failureReason(err error) string {
	switch {
	case common.IsValidationError(err):
		return "validation"
	case common.IsNotFoundError(err):
		return "not_found"
	case common.IsStateError(err):
		return "state"
	default:
		return "storage"
	}
}

// reversalLines 把售后行映射为库存回补行，数量取审核通过数量
func reversalLines(detail *Detail) []stock.ReversalLine {
	lines := make([]stock.ReversalLine, 0, len(detail.Aftersales.Items))
	for _, item := range detail.Aftersales.Items {
		if item.ApprovedQuantity <= 0 {
			continue
		}
		lines = append(lines, stock.ReversalLine{
			ProductID:       item.ProductID,
			SkuID:           item.SkuID,
			FlashSaleItemID: item.FlashSaleItemID,
			Quantity:        item.ApprovedQuantity,
		})
	}
	return lines
}
