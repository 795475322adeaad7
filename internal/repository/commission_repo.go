// Package repository 提供数据访问层
package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/realty-crm-backend/internal/models"
)

// CommissionRepository 佣金仓储
// 佣金记录只增不改，不提供更新与删除
type CommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金仓储
func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// CommissionSummary 佣金汇总
type CommissionSummary struct {
	Count int64
	Total decimal.Decimal
}

// Create 创建佣金记录，payment_id 唯一索引冲突时返回数据库错误
func (r *CommissionRepository) Create(ctx context.Context, commission *models.Commission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

// ExistsByPaymentID 回款是否已生成佣金
func (r *CommissionRepository) ExistsByPaymentID(ctx context.Context, paymentID int64) (bool, error) {
	var commission models.Commission
	err := r.db.WithContext(ctx).Select("id").Where("payment_id = ?", paymentID).Take(&commission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByAssociate 获取业务员的全部佣金，按获得时间倒序，附带回款与项目
func (r *CommissionRepository) ListByAssociate(ctx context.Context, associateID int64) ([]*models.Commission, error) {
	var commissions []*models.Commission
	err := r.db.WithContext(ctx).
		Preload("Payment").
		Preload("Project").
		Where("associate_id = ?", associateID).
		Order("earned_date DESC").
		Order("id DESC").
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

// SummaryByAssociate 统计业务员的佣金笔数与总额
func (r *CommissionRepository) SummaryByAssociate(ctx context.Context, tx *gorm.DB, associateID int64) (*CommissionSummary, error) {
	return r.summary(conn(ctx, r.db, tx).Where("associate_id = ?", associateID))
}

// Summary 统计全部佣金笔数与总额
func (r *CommissionRepository) Summary(ctx context.Context) (*CommissionSummary, error) {
	return r.summary(r.db.WithContext(ctx))
}

func (r *CommissionRepository) summary(query *gorm.DB) (*CommissionSummary, error) {
	var s CommissionSummary
	row := query.Model(&models.Commission{}).
		Select("COUNT(*), COALESCE(SUM(commission_amount), 0)").
		Row()
	if err := row.Scan(&s.Count, &s.Total); err != nil {
		return nil, err
	}
	s.Total = s.Total.Round(2)
	return &s, nil
}
