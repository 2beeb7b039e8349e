package order

import (
	"context"
	"errors"

	"backend/internal/common"

	"gorm.io/gorm"
)

// Service 订单读服务
type Service struct {
	db *gorm.DB
}

// NewService 创建订单服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Get 根据ID获取订单
func (s *Service) Get(ctx context.Context, orderID int64) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewNotFoundError("订单", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetTx 在调用方事务内获取订单
func (s *Service) GetTx(tx *gorm.DB, orderID int64) (*Order, error) {
	var o Order
	err := tx.Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewNotFoundError("订单", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
