package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment 客户回款记录，由回款管理模块维护，佣金模块只读
type Payment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerName  string          `gorm:"type:varchar(100);not null" json:"customer_name"`
	CustomerPhone string          `gorm:"type:varchar(20);not null" json:"customer_phone"`
	CustomerEmail string          `gorm:"type:varchar(100)" json:"customer_email,omitempty"`
	ProjectID     int64           `gorm:"index;not null" json:"project_id"`
	SiteID        *int64          `gorm:"index" json:"site_id,omitempty"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	PaymentType   string          `gorm:"type:varchar(20);not null" json:"payment_type"`
	PaymentMethod string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status        string          `gorm:"type:varchar(20);index;not null" json:"status"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	ReceivedDate  *time.Time      `json:"received_date,omitempty"`
	TransactionID string          `gorm:"type:varchar(64)" json:"transaction_id,omitempty"`
	AssociateID   int64           `gorm:"index;not null" json:"associate_id"`
	CreatedBy     int64           `gorm:"not null" json:"created_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// TableName 表名
func (Payment) TableName() string {
	return "payments"
}

// PaymentStatus 回款状态
const (
	PaymentStatusPending   = "Pending"   // 待到账
	PaymentStatusReceived  = "Received"  // 已到账
	PaymentStatusBounced   = "Bounced"   // 退票
	PaymentStatusCancelled = "Cancelled" // 已取消
)

// PaymentType 回款类型
const (
	PaymentTypeBooking     = "Booking"
	PaymentTypeInstallment = "Installment"
	PaymentTypeFinal       = "Final"
	PaymentTypeToken       = "Token"
)

// PaymentMethod 付款方式
const (
	PaymentMethodCash         = "Cash"
	PaymentMethodCheque       = "Cheque"
	PaymentMethodBankTransfer = "Bank Transfer"
	PaymentMethodOnline       = "Online"
	PaymentMethodCard         = "Card"
)
