// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/realty-crm-backend/internal/models"
)

// PaymentRepository 回款仓储，佣金模块仅做查询
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建回款仓储
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create 创建回款记录
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByID 根据 ID 获取回款记录
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListReceivedByProject 获取项目下全部已到账回款
func (r *PaymentRepository) ListReceivedByProject(ctx context.Context, tx *gorm.DB, projectID int64) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := conn(ctx, r.db, tx).
		Where("project_id = ? AND status = ?", projectID, models.PaymentStatusReceived).
		Order("id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

