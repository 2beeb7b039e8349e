package refund

import (
	"context"
	"fmt"
	"testing"
	"time"

	"backend/internal/aftersales"
	"backend/internal/common"
	"backend/internal/logger"
	"backend/internal/notification"
	"backend/internal/order"
	"backend/internal/stock"
	"backend/internal/wallet"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingNotifier 记录收到的退款完成事件
type recordingNotifier struct {
	events []notification.RefundCompletedEvent
}

func (r *recordingNotifier) RefundCompleted(_ context.Context, evt notification.RefundCompletedEvent) error {
	r.events = append(r.events, evt)
	return nil
}

type settlementFixture struct {
	db          *gorm.DB
	ledger      *Ledger
	coordinator *Coordinator
	walletSvc   *wallet.Service
	notifier    *recordingNotifier
}

func setupSettlementTest(t *testing.T) *settlementFixture {
	t.Helper()
	logger.InitForTest()

	dsn := fmt.Sprintf("file:refund_settlement_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&order.Order{},
		&aftersales.Aftersales{},
		&aftersales.AftersalesItem{},
		&RefundApply{},
		&RefundLog{},
		&wallet.UserWallet{},
		&wallet.WalletTransaction{},
		&stock.Product{},
		&stock.ProductSku{},
		&stock.FlashSaleItem{},
	))

	notifier := &recordingNotifier{}
	walletSvc := wallet.NewService(db)
	ledger := NewLedger(db, order.NewService(db), aftersales.NewService(db))
	coordinator := NewCoordinator(db, ledger, walletSvc, stock.NewService(db), notifier)

	return &settlementFixture{
		db:          db,
		ledger:      ledger,
		coordinator: coordinator,
		walletSvc:   walletSvc,
		notifier:    notifier,
	}
}

type seedOptions struct {
	shipped bool
}

// seedRefundCase 构造一条完整的退款链路：
// 订单（在线实付100、运费10）+ 售后单（单价50×审核通过2件，SKU 11）+ 待处理退款单。
func (f *settlementFixture) seedRefundCase(t *testing.T, opts seedOptions) *RefundApply {
	t.Helper()

	shippingStatus := order.ShippingStatusNotShipped
	if opts.shipped {
		shippingStatus = order.ShippingStatusShipped
	}

	ord := &order.Order{
		OrderSn:          fmt.Sprintf("SN%d", time.Now().UnixNano()),
		UserID:           9,
		ShopID:           1,
		Status:           order.OrderStatusPaid,
		ShippingStatus:   shippingStatus,
		ShippingFee:      decimal.NewFromInt(10),
		OnlinePaidAmount: decimal.NewFromInt(100),
	}
	require.NoError(t, f.db.Create(ord).Error)

	as := &aftersales.Aftersales{
		OrderID:      ord.ID,
		UserID:       9,
		ShopID:       1,
		Status:       aftersales.StatusApproved,
		RefundAmount: decimal.NewFromInt(100),
	}
	require.NoError(t, f.db.Create(as).Error)
	require.NoError(t, f.db.Create(&aftersales.AftersalesItem{
		AftersalesID:     as.ID,
		OrderID:          ord.ID,
		ProductID:        1,
		SkuID:            11,
		Price:            decimal.NewFromInt(50),
		Quantity:         2,
		ApprovedQuantity: 2,
	}).Error)

	require.NoError(t, f.db.Create(&stock.Product{ID: 1, ShopID: 1, Name: "测试商品", Stock: 5, Sales: 10}).Error)
	require.NoError(t, f.db.Create(&stock.ProductSku{ID: 11, ProductID: 1, Stock: 3, Sales: 8}).Error)

	apply := &RefundApply{
		RefundType:   RefundTypeOrder,
		RefundStatus: RefundStatusWait,
		OrderID:      ord.ID,
		UserID:       9,
		AftersalesID: as.ID,
		ShopID:       1,
	}
	require.NoError(t, f.db.Create(apply).Error)
	return apply
}

func (f *settlementFixture) reload(t *testing.T, id int64) *RefundApply {
	t.Helper()
	var apply RefundApply
	require.NoError(t, f.db.Where("id = ?", id).First(&apply).Error)
	return &apply
}

func (f *settlementFixture) logCount(t *testing.T, refundID int64) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&RefundLog{}).Where("refund_apply_id = ?", refundID).Count(&count).Error)
	return count
}

func TestAuditOfflineStaysOpenUntilConfirmed(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	// 未发货：可退 = 货款100 + 运费10
	result, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		OfflineAmount: decimal.NewFromInt(110),
		Note:          "线下转账退款",
		Voucher:       "bank-slip-001",
		AdminID:       77,
	})
	require.NoError(t, err)

	// 线下通道停在已发起，退款单保持待处理
	require.Equal(t, RefundStatusWait, result.RefundStatus)
	require.Equal(t, ChannelStateSubmitted, result.OfflineState)

	stored := f.reload(t, apply.ID)
	require.Equal(t, RefundStatusWait, stored.RefundStatus)
	require.Equal(t, ChannelStateSubmitted, stored.OfflineState)
	require.True(t, stored.OfflineAmount.Equal(decimal.NewFromInt(110)))
	require.Equal(t, "bank-slip-001", stored.PaymentVoucher)
	require.EqualValues(t, 1, f.logCount(t, apply.ID))
	require.Empty(t, f.notifier.events)

	// 第二步握手：人工确认到账后结单
	confirmed, err := f.coordinator.ConfirmOffline(ctx, apply.ID, 77)
	require.NoError(t, err)
	require.Equal(t, RefundStatusProcessed, confirmed.RefundStatus)
	require.Equal(t, ChannelStateConfirmed, confirmed.OfflineState)

	stored = f.reload(t, apply.ID)
	require.Equal(t, RefundStatusProcessed, stored.RefundStatus)
	require.Equal(t, ChannelStateConfirmed, stored.OfflineState)
	require.Len(t, f.notifier.events, 1)

	// 确认路径触发的完成通知同样携带订单号
	var ord order.Order
	require.NoError(t, f.db.Where("id = ?", stored.OrderID).First(&ord).Error)
	require.Equal(t, ord.OrderSn, f.notifier.events[0].OrderSn)
}

func TestAuditBalanceSettlesImmediately(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	result, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		BalanceAmount: decimal.NewFromInt(50),
		AdminID:       77,
	})
	require.NoError(t, err)

	// 余额通道入账即确认，单次调用直接结单
	require.Equal(t, RefundStatusProcessed, result.RefundStatus)
	require.Equal(t, ChannelStateConfirmed, result.BalanceState)

	stored := f.reload(t, apply.ID)
	require.Equal(t, RefundStatusProcessed, stored.RefundStatus)
	require.Equal(t, ChannelStateConfirmed, stored.BalanceState)
	require.True(t, stored.BalanceAmount.Equal(decimal.NewFromInt(50)))
	require.EqualValues(t, 1, f.logCount(t, apply.ID))

	// 钱包入账与流水
	balance, err := f.walletSvc.GetBalance(ctx, 9)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(50)))

	txns, total, err := f.walletSvc.ListTransactions(ctx, 9, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, wallet.TransactionTypeRefund, txns[0].Type)
	require.Equal(t, apply.ID, txns[0].RefundApplyID)

	// 结单即触发完成通知
	require.Len(t, f.notifier.events, 1)
	require.True(t, f.notifier.events[0].Amount.Equal(decimal.NewFromInt(50)))
}

func TestAuditMixedChannels(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	result, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		OnlineAmount:  decimal.NewFromInt(60),
		BalanceAmount: decimal.NewFromInt(30),
		AdminID:       77,
	})
	require.NoError(t, err)

	// 在线通道未确认，整单保持待处理
	require.Equal(t, RefundStatusWait, result.RefundStatus)
	require.Equal(t, ChannelStateSubmitted, result.OnlineState)
	require.Equal(t, ChannelStateConfirmed, result.BalanceState)
	require.EqualValues(t, 2, f.logCount(t, apply.ID))
	require.Empty(t, f.notifier.events)
}

func TestAuditOnlineOverEffectiveBalanceLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	// 在线实付100，申请101必须被拒绝
	_, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:     apply.ID,
		TargetStatus: RefundStatusProcessed,
		OnlineAmount: decimal.NewFromInt(101),
		AdminID:      77,
	})
	require.Error(t, err)
	require.True(t, common.IsValidationError(err))

	// 失败必须零副作用
	stored := f.reload(t, apply.ID)
	require.Equal(t, RefundStatusWait, stored.RefundStatus)
	require.Equal(t, ChannelStateUnstarted, stored.OnlineState)
	require.EqualValues(t, 0, f.logCount(t, apply.ID))

	balance, err := f.walletSvc.GetBalance(ctx, 9)
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestAuditTotalAcrossChannelsOverRefundableRejected(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	// 单通道各自都在上限内（110），但合计220超出可退110，必须被拒绝
	_, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		BalanceAmount: decimal.NewFromInt(110),
		OfflineAmount: decimal.NewFromInt(110),
		AdminID:       77,
	})
	require.Error(t, err)
	require.True(t, common.IsValidationError(err))

	// 失败必须零副作用
	stored := f.reload(t, apply.ID)
	require.Equal(t, RefundStatusWait, stored.RefundStatus)
	require.Equal(t, ChannelStateUnstarted, stored.BalanceState)
	require.Equal(t, ChannelStateUnstarted, stored.OfflineState)
	require.EqualValues(t, 0, f.logCount(t, apply.ID))

	balance, err := f.walletSvc.GetBalance(ctx, 9)
	require.NoError(t, err)
	require.True(t, balance.IsZero())

	// 合计恰好打满上限则放行
	_, err = f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		BalanceAmount: decimal.NewFromInt(60),
		OfflineAmount: decimal.NewFromInt(50),
		AdminID:       77,
	})
	require.NoError(t, err)
}

func TestAuditOnlineCapConsumedByFinalizedRefunds(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	// 同一订单此前有一单已处理退款占用了60在线额度
	require.NoError(t, f.db.Create(&RefundApply{
		RefundType:   RefundTypeOrder,
		RefundStatus: RefundStatusProcessed,
		OrderID:      apply.OrderID,
		UserID:       9,
		AftersalesID: apply.AftersalesID,
		ShopID:       1,
		OnlineState:  ChannelStateConfirmed,
		OnlineAmount: decimal.NewFromInt(60),
	}).Error)

	_, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:     apply.ID,
		TargetStatus: RefundStatusProcessed,
		OnlineAmount: decimal.NewFromInt(50),
		AdminID:      77,
	})
	require.Error(t, err)
	require.True(t, common.IsValidationError(err))

	// 剩余额度 100-60=40，40 可以通过
	_, err = f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:     apply.ID,
		TargetStatus: RefundStatusProcessed,
		OnlineAmount: decimal.NewFromInt(40),
		AdminID:      77,
	})
	require.NoError(t, err)
}

func TestAuditShippedOrderExcludesShippingFee(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{shipped: true})

	// 已发货：可退上限只有货款100，110必须被拒绝
	_, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		OfflineAmount: decimal.NewFromInt(110),
		AdminID:       77,
	})
	require.Error(t, err)
	require.True(t, common.IsValidationError(err))

	_, err = f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		OfflineAmount: decimal.NewFromInt(100),
		AdminID:       77,
	})
	require.NoError(t, err)
}

func TestAuditRejectsFinalizedRefund(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	require.NoError(t, f.db.Model(&RefundApply{}).
		Where("id = ?", apply.ID).
		Update("refund_status", RefundStatusProcessed).Error)

	_, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		BalanceAmount: decimal.NewFromInt(10),
		AdminID:       77,
	})
	require.Error(t, err)
	require.True(t, common.IsStateError(err))
}

func TestAuditValidations(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	// 目标状态只能是已处理或已取消
	_, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:     apply.ID,
		TargetStatus: RefundStatusProcessing,
	})
	require.True(t, common.IsValidationError(err))

	// 金额不能为负
	_, err = f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		BalanceAmount: decimal.NewFromInt(-1),
	})
	require.True(t, common.IsValidationError(err))

	// 零金额不能结单
	_, err = f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:     apply.ID,
		TargetStatus: RefundStatusProcessed,
	})
	require.True(t, common.IsValidationError(err))

	// 不存在的退款单
	_, err = f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      999999,
		TargetStatus:  RefundStatusProcessed,
		BalanceAmount: decimal.NewFromInt(1),
	})
	require.True(t, common.IsNotFoundError(err))
}

func TestAuditCancelWithoutAmountsClosesOnly(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	result, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:     apply.ID,
		TargetStatus: RefundStatusCancel,
		Note:         "用户撤回申请",
		AdminID:      77,
	})
	require.NoError(t, err)
	require.Equal(t, RefundStatusCancel, result.RefundStatus)

	// 关单不产生流水、不动钱包、不回补库存
	require.EqualValues(t, 0, f.logCount(t, apply.ID))

	balance, err := f.walletSvc.GetBalance(ctx, 9)
	require.NoError(t, err)
	require.True(t, balance.IsZero())

	var sku stock.ProductSku
	require.NoError(t, f.db.Where("id = ?", 11).First(&sku).Error)
	require.Equal(t, 3, sku.Stock)
	require.Empty(t, f.notifier.events)
}

func TestAuditReversesStock(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	_, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		BalanceAmount: decimal.NewFromInt(50),
		AdminID:       77,
	})
	require.NoError(t, err)

	// SKU 行：SKU库存 +2，商品销量 -2
	var sku stock.ProductSku
	require.NoError(t, f.db.Where("id = ?", 11).First(&sku).Error)
	require.Equal(t, 5, sku.Stock)
	require.Equal(t, 6, sku.Sales)

	var product stock.Product
	require.NoError(t, f.db.Where("id = ?", 1).First(&product).Error)
	require.Equal(t, 5, product.Stock)
	require.Equal(t, 8, product.Sales)
}

func TestAuditRollsBackAllWritesOnFailure(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	// 人为制造钱包写入失败，验证流水与状态一并回滚
	require.NoError(t, f.db.Migrator().DropTable(&wallet.WalletTransaction{}))

	_, err := f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		BalanceAmount: decimal.NewFromInt(50),
		AdminID:       77,
	})
	require.Error(t, err)
	require.True(t, common.IsConsistencyError(err))

	stored := f.reload(t, apply.ID)
	require.Equal(t, RefundStatusWait, stored.RefundStatus)
	require.Equal(t, ChannelStateUnstarted, stored.BalanceState)
	require.EqualValues(t, 0, f.logCount(t, apply.ID))

	var sku stock.ProductSku
	require.NoError(t, f.db.Where("id = ?", 11).First(&sku).Error)
	require.Equal(t, 3, sku.Stock)
}

func TestConfirmOfflinePreconditions(t *testing.T) {
	ctx := context.Background()
	f := setupSettlementTest(t)
	apply := f.seedRefundCase(t, seedOptions{})

	// 线下通道未发起时不能确认
	_, err := f.coordinator.ConfirmOffline(ctx, apply.ID, 77)
	require.True(t, common.IsStateError(err))

	_, err = f.coordinator.Audit(ctx, &AuditRequest{
		RefundID:      apply.ID,
		TargetStatus:  RefundStatusProcessed,
		OfflineAmount: decimal.NewFromInt(100),
		AdminID:       77,
	})
	require.NoError(t, err)

	_, err = f.coordinator.ConfirmOffline(ctx, apply.ID, 77)
	require.NoError(t, err)

	// 重复确认失败（失败幂等而非成功幂等）
	_, err = f.coordinator.ConfirmOffline(ctx, apply.ID, 77)
	require.True(t, common.IsStateError(err))

	// 不存在的退款单
	_, err = f.coordinator.ConfirmOffline(ctx, 999999, 77)
	require.True(t, common.IsNotFoundError(err))
}

func TestSettledTruthTable(t *testing.T) {
	cases := []struct {
		name    string
		apply   RefundApply
		settled bool
	}{
		{"全部未发起", RefundApply{}, true},
		{"在线已发起", RefundApply{OnlineState: ChannelStateSubmitted}, false},
		{"线下已发起", RefundApply{OfflineState: ChannelStateSubmitted}, false},
		{"全部已确认", RefundApply{
			OnlineState:  ChannelStateConfirmed,
			BalanceState: ChannelStateConfirmed,
			OfflineState: ChannelStateConfirmed,
		}, true},
		{"在线确认线下未发起", RefundApply{OnlineState: ChannelStateConfirmed}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.settled, tc.apply.Settled())
		})
	}
}
