package stock

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 商品（库存与销量计数器）
type Product struct {
	ID        int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	ShopID    int64           `json:"shop_id" gorm:"not null;index"`
	Name      string          `json:"name" gorm:"size:200;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
	Stock     int             `json:"stock" gorm:"not null;default:0"`
	Sales     int             `json:"sales" gorm:"not null;default:0"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

// TableName 表名
func (Product) TableName() string {
	return "product"
}

// ProductSku 商品SKU（多规格商品按SKU计库存）
type ProductSku struct {
	ID        int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID int64           `json:"product_id" gorm:"not null;index"`
	SkuSn     string          `json:"sku_sn" gorm:"size:64"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
	Stock     int             `json:"stock" gorm:"not null;default:0"`
	Sales     int             `json:"sales" gorm:"not null;default:0"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

// TableName 表名
func (ProductSku) TableName() string {
	return "product_sku"
}

// FlashSaleItem 秒杀档位（参加秒杀的商品另计一份库存/销量）
type FlashSaleItem struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID int64     `json:"product_id" gorm:"not null;index"`
	SkuID     int64     `json:"sku_id" gorm:"not null;default:0"`
	Stock     int       `json:"stock" gorm:"not null;default:0"`
	Sales     int       `json:"sales" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

// TableName 表名
func (FlashSaleItem) TableName() string {
	return "flash_sale_item"
}

// ReversalLine 一条待回补的售后行
type ReversalLine struct {
	ProductID       int64
	SkuID           int64 // 0 表示单规格商品，回补到商品本身
	FlashSaleItemID int64 // 0 表示未参加秒杀
	Quantity        int
}
