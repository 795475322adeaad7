package commission

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/realty-crm-backend/internal/common/metrics"
	"github.com/dumeirei/realty-crm-backend/internal/models"
	"github.com/dumeirei/realty-crm-backend/internal/repository"
)

var fixtureSeq atomic.Int64

// testEnv 服务测试环境
type testEnv struct {
	db             *gorm.DB
	commissionRepo *repository.CommissionRepository
	withdrawalRepo *repository.WithdrawalRepository
	paymentRepo    *repository.PaymentRepository
	projectRepo    *repository.ProjectRepository
	metrics        *metrics.Metrics
	locker         Locker
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
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

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	m := metrics.New("test", prometheus.NewRegistry())
	return &testEnv{
		db:             db,
		commissionRepo: repository.NewCommissionRepository(db),
		withdrawalRepo: repository.NewWithdrawalRepository(db),
		paymentRepo:    repository.NewPaymentRepository(db),
		projectRepo:    repository.NewProjectRepository(db),
		metrics:        m,
		locker:         NewMemoryLocker(5*time.Second, m),
	}
}

func (e *testEnv) options() Options {
	return Options{Metrics: e.metrics, Logger: zap.NewNop()}
}

func (e *testEnv) commissionService(opts Options) *CommissionService {
	return NewCommissionService(e.db, e.commissionRepo, e.withdrawalRepo, e.paymentRepo, e.projectRepo, e.locker, opts)
}

func (e *testEnv) withdrawService(opts Options) *WithdrawService {
	return NewWithdrawService(e.db, e.commissionRepo, e.withdrawalRepo, e.locker, opts)
}

func createUser(t *testing.T, db *gorm.DB, role string) *models.User {
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

// createProject rate 为空字符串时不设置佣金比例
func createProject(t *testing.T, db *gorm.DB, rate string) *models.Project {
	t.Helper()
	project := &models.Project{
		Name:     fmt.Sprintf("Project %d", fixtureSeq.Add(1)),
		Location: "Pune",
		Type:     models.ProjectTypeResidential,
		Status:   models.ProjectStatusActive,
	}
	if rate != "" {
		project.CommissionRate = decimal.NewNullDecimal(decimal.RequireFromString(rate))
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func createPayment(t *testing.T, db *gorm.DB, projectID, associateID int64, amount, status string) *models.Payment {
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

// seedEarned 为业务员生成一笔指定金额的佣金（2% 比例下的回款）
func seedEarned(t *testing.T, db *gorm.DB, associateID int64, commission string) {
	t.Helper()
	project := createProject(t, db, "2")
	amount := decimal.RequireFromString(commission)
	payment := createPayment(t, db, project.ID, associateID, amount.Mul(decimal.NewFromInt(50)).String(), models.PaymentStatusReceived)
	require.NoError(t, db.Create(&models.Commission{
		AssociateID:      associateID,
		PaymentID:        payment.ID,
		ProjectID:        project.ID,
		SaleAmount:       payment.Amount,
		CommissionRate:   decimal.NewFromInt(2),
		CommissionAmount: amount,
		Status:           models.CommissionStatusEarned,
		EarnedDate:       time.Now(),
	}).Error)
}

func createWithdrawal(t *testing.T, db *gorm.DB, associateID int64, amount, status string) *models.Withdrawal {
	t.Helper()
	w := &models.Withdrawal{
		AssociateID:    associateID,
		Amount:         decimal.RequireFromString(amount),
		Method:         models.WithdrawMethodUPI,
		AccountDetails: "associate@upi",
		Status:         status,
		Reference:      fmt.Sprintf("WDT%019d", fixtureSeq.Add(1)),
	}
	require.NoError(t, db.Create(w).Error)
	return w
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}
