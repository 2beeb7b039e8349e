package aftersales

import (
	"context"
	"errors"

	"backend/internal/common"

	"gorm.io/gorm"
)

// Service 售后单读服务
type Service struct {
	db *gorm.DB
}

// NewService 创建售后服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Get 获取售后单及其行项目
func (s *Service) Get(ctx context.Context, aftersalesID int64) (*Aftersales, error) {
	return loadWithItems(s.db.WithContext(ctx), aftersalesID)
}

// GetTx 在调用方事务内获取售后单及其行项目
func (s *Service) GetTx(tx *gorm.DB, aftersalesID int64) (*Aftersales, error) {
	return loadWithItems(tx, aftersalesID)
}

func loadWithItems(db *gorm.DB, aftersalesID int64) (*Aftersales, error) {
	var as Aftersales
	err := db.Where("id = ?", aftersalesID).First(&as).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewNotFoundError("售后单", aftersalesID)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Where("aftersales_id = ?", aftersalesID).
		Order("id ASC").
		Find(&as.Items).Error; err != nil {
		return nil, err
	}

	return &as, nil
}
