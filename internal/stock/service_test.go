package stock

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupStockTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:stock_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}, &ProductSku{}, &FlashSaleItem{}))
	return db
}

func TestReverseTxSkuLine(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewService(db)

	require.NoError(t, db.Create(&Product{ID: 1, ShopID: 1, Name: "多规格商品", Stock: 5, Sales: 20}).Error)
	require.NoError(t, db.Create(&ProductSku{ID: 11, ProductID: 1, Stock: 2, Sales: 9}).Error)

	require.NoError(t, svc.ReverseTx(db, []ReversalLine{
		{ProductID: 1, SkuID: 11, Quantity: 3},
	}))

	// SKU库存回补，商品销量冲减，商品库存不动
	var sku ProductSku
	require.NoError(t, db.First(&sku, 11).Error)
	require.Equal(t, 5, sku.Stock)
	require.Equal(t, 6, sku.Sales)

	var product Product
	require.NoError(t, db.First(&product, 1).Error)
	require.Equal(t, 5, product.Stock)
	require.Equal(t, 17, product.Sales)
}

func TestReverseTxPlainProductLine(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewService(db)

	require.NoError(t, db.Create(&Product{ID: 2, ShopID: 1, Name: "单规格商品", Stock: 4, Sales: 10}).Error)

	require.NoError(t, svc.ReverseTx(db, []ReversalLine{
		{ProductID: 2, Quantity: 2},
	}))

	var product Product
	require.NoError(t, db.First(&product, 2).Error)
	require.Equal(t, 6, product.Stock)
	require.Equal(t, 8, product.Sales)
}

func TestReverseTxFlashSaleLine(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewService(db)

	require.NoError(t, db.Create(&Product{ID: 3, ShopID: 1, Name: "秒杀商品", Stock: 1, Sales: 30}).Error)
	require.NoError(t, db.Create(&FlashSaleItem{ID: 31, ProductID: 3, Stock: 0, Sales: 15}).Error)

	require.NoError(t, svc.ReverseTx(db, []ReversalLine{
		{ProductID: 3, FlashSaleItemID: 31, Quantity: 1},
	}))

	// 普通库存与秒杀档位各回补一份
	var product Product
	require.NoError(t, db.First(&product, 3).Error)
	require.Equal(t, 2, product.Stock)
	require.Equal(t, 29, product.Sales)

	var flash FlashSaleItem
	require.NoError(t, db.First(&flash, 31).Error)
	require.Equal(t, 1, flash.Stock)
	require.Equal(t, 14, flash.Sales)
}

func TestReverseTxSkipsNonPositiveQuantity(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewService(db)

	require.NoError(t, db.Create(&Product{ID: 4, ShopID: 1, Name: "商品", Stock: 3, Sales: 3}).Error)

	require.NoError(t, svc.ReverseTx(db, []ReversalLine{
		{ProductID: 4, Quantity: 0},
		{ProductID: 4, Quantity: -1},
	}))

	var product Product
	require.NoError(t, db.First(&product, 4).Error)
	require.Equal(t, 3, product.Stock)
	require.Equal(t, 3, product.Sales)
}
