// Package repository 提供数据访问层
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/realty-crm-backend/internal/common/database"
	"github.com/dumeirei/realty-crm-backend/internal/models"
)

// WithdrawalRepository 提现仓储
type WithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository 创建提现仓储
func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// WithdrawalSummary 按状态汇总的提现笔数与金额
type WithdrawalSummary struct {
	Status string
	Count  int64
	Total  decimal.Decimal
}

// Create 创建提现记录
func (r *WithdrawalRepository) Create(ctx context.Context, tx *gorm.DB, withdrawal *models.Withdrawal) error {
	return conn(ctx, r.db, tx).Create(withdrawal).Error
}

// GetByID 根据 ID 获取提现记录
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := r.db.WithContext(ctx).First(&withdrawal, id).Error; err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// GetByIDWithRelations 根据 ID 获取提现记录（包含申请人与处理人）
func (r *WithdrawalRepository) GetByIDWithRelations(ctx context.Context, id int64) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.db.WithContext(ctx).
		Preload("Associate").
		Preload("Processor").
		First(&withdrawal, id).Error
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// ExistsReference 提现单号是否已存在
func (r *WithdrawalRepository) ExistsReference(ctx context.Context, tx *gorm.DB, reference string) (bool, error) {
	var withdrawal models.Withdrawal
	err := conn(ctx, r.db, tx).Select("id").Where("reference = ?", reference).Take(&withdrawal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByAssociate 获取业务员的全部提现记录，按申请时间倒序
func (r *WithdrawalRepository) ListByAssociate(ctx context.Context, associateID int64) ([]*models.Withdrawal, error) {
	var withdrawals []*models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("associate_id = ?", associateID).
		Scopes(database.OrderByCreatedDesc).
		Find(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// List 分页获取提现记录，status 为空时不过滤
func (r *WithdrawalRepository) List(ctx context.Context, offset, limit int, status string) ([]*models.Withdrawal, int64, error) {
	var withdrawals []*models.Withdrawal
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Withdrawal{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Associate").
		Preload("Processor").
		Scopes(database.OrderByCreatedDesc).
		Offset(offset).
		Limit(limit).
		Find(&withdrawals).Error
	if err != nil {
		return nil, 0, err
	}

	return withdrawals, total, nil
}

// SummaryByAssociate 按状态汇总业务员的提现
func (r *WithdrawalRepository) SummaryByAssociate(ctx context.Context, tx *gorm.DB, associateID int64) (map[string]*WithdrawalSummary, error) {
	return r.summary(conn(ctx, r.db, tx).Where("associate_id = ?", associateID))
}

// SummaryByStatus 按状态汇总全部提现
func (r *WithdrawalRepository) SummaryByStatus(ctx context.Context) (map[string]*WithdrawalSummary, error) {
	return r.summary(r.db.WithContext(ctx))
}

func (r *WithdrawalRepository) summary(query *gorm.DB) (map[string]*WithdrawalSummary, error) {
	rows, err := query.Model(&models.Withdrawal{}).
		Select("status, COUNT(*), COALESCE(SUM(amount), 0)").
		Group("status").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]*WithdrawalSummary)
	for rows.Next() {
		s := &WithdrawalSummary{}
		if err := rows.Scan(&s.Status, &s.Count, &s.Total); err != nil {
			return nil, err
		}
		s.Total = s.Total.Round(2)
		result[s.Status] = s
	}
	return result, rows.Err()
}

// FinishPending 将待处理的提现置为终态
// 仅当当前状态为 Pending 时更新，返回受影响行数，0 表示已被处理或不存在
// notes 为 nil 时保留申请时的备注
func (r *WithdrawalRepository) FinishPending(ctx context.Context, id int64, status string, processedBy int64, notes *string, processedAt time.Time) (int64, error) {
	updates := map[string]interface{}{
		"status":         status,
		"processed_by":   processedBy,
		"processed_date": processedAt,
		"updated_at":     processedAt,
	}
	if notes != nil {
		updates["notes"] = *notes
	}

	result := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, models.WithdrawalStatusPending).
		Updates(updates)
	return result.RowsAffected, result.Error
}
