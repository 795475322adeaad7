package repository

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/realty-crm-backend/internal/models"
)

var fixtureSeq atomic.Int64

// setupLedgerTestDB 创建账本测试数据库
func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	user := &models.User{
		Name:         role + " user",
		Email:        fmt.Sprintf("%s-%d@example.com", role, fixtureSeq.Add(1)),
		Role:         role,
		PasswordHash: "hash",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProject(t *testing.T, db *gorm.DB, rate *decimal.Decimal) *models.Project {
	t.Helper()
	project := &models.Project{
		Name:     "Green Valley",
		Location: "Pune",
		Type:     models.ProjectTypeResidential,
		Status:   models.ProjectStatusActive,
	}
	if rate != nil {
		project.CommissionRate = decimal.NewNullDecimal(*rate)
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func createTestPayment(t *testing.T, db *gorm.DB, projectID, associateID int64, amount, status string) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		CustomerName:  "Customer",
		CustomerPhone: "9876543210",
		ProjectID:     projectID,
		Amount:        decimal.RequireFromString(amount),
		PaymentType:   models.PaymentTypeInstallment,
		PaymentMethod: models.PaymentMethodBankTransfer,
		Status:        status,
		AssociateID:   associateID,
		CreatedBy:     associateID,
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}

func createTestCommission(t *testing.T, db *gorm.DB, payment *models.Payment, amount string, earned time.Time) *models.Commission {
	t.Helper()
	c := &models.Commission{
		AssociateID:      payment.AssociateID,
		PaymentID:        payment.ID,
		ProjectID:        payment.ProjectID,
		SaleAmount:       payment.Amount,
		CommissionRate:   decimal.NewFromInt(2),
		CommissionAmount: decimal.RequireFromString(amount),
		Status:           models.CommissionStatusEarned,
		EarnedDate:       earned,
	}
	require.NoError(t, NewCommissionRepository(db).Create(context.Background(), c))
	return c
}

func createTestWithdrawal(t *testing.T, db *gorm.DB, associateID int64, amount, status string) *models.Withdrawal {
	t.Helper()
	w := &models.Withdrawal{
		AssociateID:    associateID,
		Amount:         decimal.RequireFromString(amount),
		Method:         models.WithdrawMethodUPI,
		AccountDetails: "associate@upi",
		Status:         status,
		Reference:      fmt.Sprintf("WD%020d", fixtureSeq.Add(1)),
	}
	require.NoError(t, NewWithdrawalRepository(db).Create(context.Background(), nil, w))
	return w
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
