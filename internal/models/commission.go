package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission 佣金记录，每笔回款至多一条，创建后不再修改
type Commission struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	AssociateID      int64           `gorm:"index;not null" json:"associate_id"`
	PaymentID        int64           `gorm:"uniqueIndex;not null" json:"payment_id"`
	ProjectID        int64           `gorm:"index;not null" json:"project_id"`
	SaleAmount       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"sale_amount"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_rate"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"commission_amount"`
	Status           string          `gorm:"type:varchar(20);not null" json:"status"`
	EarnedDate       time.Time       `gorm:"not null" json:"earned_date"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Associate *User    `gorm:"foreignKey:AssociateID" json:"associate,omitempty"`
	Payment   *Payment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
	Project   *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// TableName 表名
func (Commission) TableName() string {
	return "commissions"
}

// CommissionStatus 佣金状态，仅作展示，生成后始终为 Earned
const (
	CommissionStatusEarned    = "Earned"
	CommissionStatusPending   = "Pending"
	CommissionStatusWithdrawn = "Withdrawn"
)

// Withdrawal 提现申请
type Withdrawal struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	AssociateID    int64           `gorm:"index;not null" json:"associate_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Method         string          `gorm:"type:varchar(20);not null" json:"method"`
	AccountDetails string          `gorm:"type:text;not null" json:"account_details"`
	Status         string          `gorm:"type:varchar(20);index;not null" json:"status"`
	Reference      string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"reference"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	ProcessedBy    *int64          `json:"processed_by,omitempty"`
	ProcessedDate  *time.Time      `json:"processed_date,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Associate *User `gorm:"foreignKey:AssociateID" json:"associate,omitempty"`
	Processor *User `gorm:"foreignKey:ProcessedBy" json:"processor,omitempty"`
}

// TableName 表名
func (Withdrawal) TableName() string {
	return "withdrawals"
}

// IsTerminal 是否已处理完毕
func (w *Withdrawal) IsTerminal() bool {
	return w.Status != WithdrawalStatusPending
}

// WithdrawMethod 提现方式
const (
	WithdrawMethodBankTransfer = "Bank Transfer"
	WithdrawMethodUPI          = "UPI"
	WithdrawMethodCheque       = "Cheque"
)

// WithdrawalStatus 提现状态
const (
	WithdrawalStatusPending   = "Pending"   // 待处理
	WithdrawalStatusCompleted = "Completed" // 已打款
	WithdrawalStatusFailed    = "Failed"    // 打款失败
	WithdrawalStatusCancelled = "Cancelled" // 已取消
)

// IsValidWithdrawMethod 是否为支持的提现方式
func IsValidWithdrawMethod(method string) bool {
	switch method {
	case WithdrawMethodBankTransfer, WithdrawMethodUPI, WithdrawMethodCheque:
		return true
	}
	return false
}

// IsTerminalWithdrawalStatus 是否为提现终态
func IsTerminalWithdrawalStatus(status string) bool {
	switch status {
	case WithdrawalStatusCompleted, WithdrawalStatusFailed, WithdrawalStatusCancelled:
		return true
	}
	return false
}
