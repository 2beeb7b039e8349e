package stock

import (
	"fmt"

	"gorm.io/gorm"
)

// Service 库存回补服务。
// 退款结清后把售后行的数量退回库存，并冲减对应的销量计数。
type Service struct {
	db *gorm.DB
}

// NewService 创建库存服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ReverseTx 在调用方事务内按行回补库存。
// 有SKU的行：SKU库存 +qty，商品销量 -qty；
// 无SKU的行：商品库存 +qty，销量 -qty；
// 参加秒杀的行同时回补秒杀档位的库存/销量。
// 全部使用原子自增，其他子系统会并发改写同一计数器。
func (s *Service) ReverseTx(tx *gorm.DB, lines []ReversalLine) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}

		if line.SkuID > 0 {
			err := tx.Model(&ProductSku{}).
				Where("id = ?", line.SkuID).
				Updates(map[string]interface{}{
					"stock": gorm.Expr("stock + ?", line.Quantity),
					"sales": gorm.Expr("sales - ?", line.Quantity),
				}).Error
			if err != nil {
				return fmt.Errorf("回补SKU库存失败 sku=%d: %w", line.SkuID, err)
			}

			err = tx.Model(&Product{}).
				Where("id = ?", line.ProductID).
				Update("sales", gorm.Expr("sales - ?", line.Quantity)).Error
			if err != nil {
				return fmt.Errorf("冲减商品销量失败 product=%d: %w", line.ProductID, err)
			}
		} else {
			err := tx.Model(&Product{}).
				Where("id = ?", line.ProductID).
				Updates(map[string]interface{}{
					"stock": gorm.Expr("stock + ?", line.Quantity),
					"sales": gorm.Expr("sales - ?", line.Quantity),
				}).Error
			if err != nil {
				return fmt.Errorf("回补商品库存失败 product=%d: %w", line.ProductID, err)
			}
		}

		if line.FlashSaleItemID > 0 {
			err := tx.Model(&FlashSaleItem{}).
				Where("id = ?", line.FlashSaleItemID).
				Updates(map[string]interface{}{
					"stock": gorm.Expr("stock + ?", line.Quantity),
					"sales": gorm.Expr("sales - ?", line.Quantity),
				}).Error
			if err != nil {
				return fmt.Errorf("回补秒杀库存失败 item=%d: %w", line.FlashSaleItemID, err)
			}
		}
	}
	return nil
}
