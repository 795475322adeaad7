package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project 楼盘项目，由项目管理模块维护
type Project struct {
	ID             int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string              `gorm:"type:varchar(100);not null" json:"name"`
	Description    string              `gorm:"type:text" json:"description,omitempty"`
	Location       string              `gorm:"type:varchar(200);not null" json:"location"`
	Type           string              `gorm:"type:varchar(20);not null" json:"type"`
	Status         string              `gorm:"type:varchar(20);index;not null" json:"status"`
	CommissionRate decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"commission_rate"`
	CreatedBy      int64               `gorm:"not null" json:"created_by"`
	ApprovedBy     *int64              `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time          `json:"approved_at,omitempty"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Project) TableName() string {
	return "projects"
}

// ProjectStatus 项目状态
const (
	ProjectStatusActive          = "Active"
	ProjectStatusUpcoming        = "Upcoming"
	ProjectStatusCompleted       = "Completed"
	ProjectStatusOnHold          = "On Hold"
	ProjectStatusPendingApproval = "Pending Approval"
)

// ProjectType 项目类型
const (
	ProjectTypeResidential = "Residential"
	ProjectTypeCommercial  = "Commercial"
	ProjectTypeIndustrial  = "Industrial"
	ProjectTypeMixedUse    = "Mixed Use"
)
