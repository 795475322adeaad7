// Package commission 佣金与提现账本服务
package commission

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/realty-crm-backend/internal/models"
	"github.com/dumeirei/realty-crm-backend/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// CalculateCommission 佣金金额 = 成交金额 × 比例 / 100，四舍五入到分
func CalculateCommission(saleAmount, rate decimal.Decimal) decimal.Decimal {
	return saleAmount.Mul(rate).Div(hundred).Round(2)
}

// Balance 业务员余额
type Balance struct {
	TotalEarned       decimal.Decimal `json:"total_earned"`
	TotalWithdrawn    decimal.Decimal `json:"total_withdrawn"`
	PendingWithdrawal decimal.Decimal `json:"pending_withdrawal"`
	AvailableBalance  decimal.Decimal `json:"available_balance"`
}

// ComputeBalance 可用余额 = 累计佣金 - 已提现 - 提现中
// 失败与取消的提现不占用余额
func ComputeBalance(totalEarned, totalWithdrawn, pendingWithdrawal decimal.Decimal) Balance {
	return Balance{
		TotalEarned:       totalEarned,
		TotalWithdrawn:    totalWithdrawn,
		PendingWithdrawal: pendingWithdrawal,
		AvailableBalance:  totalEarned.Sub(totalWithdrawn).Sub(pendingWithdrawal),
	}
}

// AssociateStats 业务员佣金统计
type AssociateStats struct {
	TotalCommissions int64 `json:"total_commissions"`
	Balance
	AvgCommission decimal.Decimal `json:"avg_commission"`
}

// NewAssociateStats 根据佣金笔数与各项金额构建统计，无佣金时平均值为 0
func NewAssociateStats(count int64, totalEarned, totalWithdrawn, pendingWithdrawal decimal.Decimal) *AssociateStats {
	avg := decimal.Zero
	if count > 0 {
		avg = totalEarned.Div(decimal.NewFromInt(count)).Round(2)
	}
	return &AssociateStats{
		TotalCommissions: count,
		Balance:          ComputeBalance(totalEarned, totalWithdrawn, pendingWithdrawal),
		AvgCommission:    avg,
	}
}

// balanceReader 从佣金与提现记录汇总余额
type balanceReader struct {
	commissionRepo *repository.CommissionRepository
	withdrawalRepo *repository.WithdrawalRepository
}

// stats 读取业务员统计，tx 非空时在同一事务内读取
func (b *balanceReader) stats(ctx context.Context, tx *gorm.DB, associateID int64) (*AssociateStats, error) {
	earned, err := b.commissionRepo.SummaryByAssociate(ctx, tx, associateID)
	if err != nil {
		return nil, err
	}
	withdrawals, err := b.withdrawalRepo.SummaryByAssociate(ctx, tx, associateID)
	if err != nil {
		return nil, err
	}

	withdrawn, pending := decimal.Zero, decimal.Zero
	if s, ok := withdrawals[models.WithdrawalStatusCompleted]; ok {
		withdrawn = s.Total
	}
	if s, ok := withdrawals[models.WithdrawalStatusPending]; ok {
		pending = s.Total
	}

	return NewAssociateStats(earned.Count, earned.Total, withdrawn, pending), nil
}
