package commission

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/realty-crm-backend/internal/common/errors"
	"github.com/dumeirei/realty-crm-backend/internal/models"
	"github.com/dumeirei/realty-crm-backend/internal/repository"
)

// DashboardService 管理端佣金看板
type DashboardService struct {
	commissionRepo *repository.CommissionRepository
	withdrawalRepo *repository.WithdrawalRepository
}

// NewDashboardService 创建看板服务
func NewDashboardService(commissionRepo *repository.CommissionRepository, withdrawalRepo *repository.WithdrawalRepository) *DashboardService {
	return &DashboardService{commissionRepo: commissionRepo, withdrawalRepo: withdrawalRepo}
}

// DashboardStats 全局佣金与提现汇总
type DashboardStats struct {
	TotalCommissions          int64           `json:"total_commissions"`
	TotalCommissionAmount     decimal.Decimal `json:"total_commission_amount"`
	PendingWithdrawals        int64           `json:"pending_withdrawals"`
	PendingWithdrawalAmount   decimal.Decimal `json:"pending_withdrawal_amount"`
	CompletedWithdrawals      int64           `json:"completed_withdrawals"`
	CompletedWithdrawalAmount decimal.Decimal `json:"completed_withdrawal_amount"`
}

// GetDashboardStats 获取看板统计
func (s *DashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	commissions, err := s.commissionRepo.Summary(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	withdrawals, err := s.withdrawalRepo.SummaryByStatus(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	stats := &DashboardStats{
		TotalCommissions:          commissions.Count,
		TotalCommissionAmount:     commissions.Total,
		PendingWithdrawalAmount:   decimal.Zero,
		CompletedWithdrawalAmount: decimal.Zero,
	}
	if p, ok := withdrawals[models.WithdrawalStatusPending]; ok {
		stats.PendingWithdrawals = p.Count
		stats.PendingWithdrawalAmount = p.Total
	}
	if c, ok := withdrawals[models.WithdrawalStatusCompleted]; ok {
		stats.CompletedWithdrawals = c.Count
		stats.CompletedWithdrawalAmount = c.Total
	}
	return stats, nil
}
