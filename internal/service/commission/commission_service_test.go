package commission

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/gorm"

	"github.com/dumeirei/realty-crm-backend/internal/common/errors"
	"github.com/dumeirei/realty-crm-backend/internal/common/metrics"
	"github.com/dumeirei/realty-crm-backend/internal/common/tracing"
	"github.com/dumeirei/realty-crm-backend/internal/models"
)

// ==================== 佣金生成测试 ====================

func TestCommissionService_GenerateCommission(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commissionService(env.options())
	ctx := context.Background()
	associate := createUser(t, env.db, models.UserRoleAssociate)
	admin := createUser(t, env.db, models.UserRoleAdmin)

	t.Run("按项目比例计算", func(t *testing.T) {
		project := createProject(t, env.db, "2")
		payment := createPayment(t, env.db, project.ID, associate.ID, "10000", models.PaymentStatusReceived)

		c, err := svc.GenerateCommission(ctx, payment.ID, Actor{UserID: associate.ID})
		require.NoError(t, err)
		assertDecimal(t, "200", c.CommissionAmount)
		assertDecimal(t, "2", c.CommissionRate)
		assertDecimal(t, "10000", c.SaleAmount)
		assert.Equal(t, associate.ID, c.AssociateID)
		assert.Equal(t, project.ID, c.ProjectID)
		assert.Equal(t, models.CommissionStatusEarned, c.Status)
		assert.False(t, c.EarnedDate.IsZero())
	})

	t.Run("项目未设置比例时使用默认比例", func(t *testing.T) {
		project := createProject(t, env.db, "")
		payment := createPayment(t, env.db, project.ID, associate.ID, "20000", models.PaymentStatusReceived)

		c, err := svc.GenerateCommission(ctx, payment.ID, Actor{UserID: associate.ID})
		require.NoError(t, err)
		assertDecimal(t, "400", c.CommissionAmount)
		assertDecimal(t, "2", c.CommissionRate)
	})

	t.Run("项目比例为0时使用默认比例", func(t *testing.T) {
		project := createProject(t, env.db, "0")
		payment := createPayment(t, env.db, project.ID, associate.ID, "5000", models.PaymentStatusReceived)

		c, err := svc.GenerateCommission(ctx, payment.ID, Actor{UserID: associate.ID})
		require.NoError(t, err)
		assertDecimal(t, "100", c.CommissionAmount)
	})

	t.Run("项目比例超过100", func(t *testing.T) {
		project := createProject(t, env.db, "150")
		payment := createPayment(t, env.db, project.ID, associate.ID, "1000", models.PaymentStatusReceived)

		_, err := svc.GenerateCommission(ctx, payment.ID, Actor{UserID: associate.ID})
		assert.True(t, errors.Is(err, errors.ErrCommissionRateInvalid))

		exists, err := env.commissionRepo.ExistsByPaymentID(ctx, payment.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("项目比例为100", func(t *testing.T) {
		project := createProject(t, env.db, "100")
		payment := createPayment(t, env.db, project.ID, associate.ID, "1000", models.PaymentStatusReceived)

		c, err := svc.GenerateCommission(ctx, payment.ID, Actor{UserID: associate.ID})
		require.NoError(t, err)
		assertDecimal(t, "1000", c.CommissionAmount)
	})

	t.Run("重复生成", func(t *testing.T) {
		project := createProject(t, env.db, "3")
		payment := createPayment(t, env.db, project.ID, associate.ID, "1000", models.PaymentStatusReceived)

		_, err := svc.GenerateCommission(ctx, payment.ID, Actor{UserID: associate.ID})
		require.NoError(t, err)

		_, err = svc.GenerateCommission(ctx, payment.ID, Actor{UserID: admin.ID, IsAdmin: true})
		assert.True(t, errors.Is(err, errors.ErrCommissionAlreadyGenerated))
	})

	t.Run("回款未到账", func(t *testing.T) {
		project := createProject(t, env.db, "2")
		payment := createPayment(t, env.db, project.ID, associate.ID, "1000", models.PaymentStatusPending)

		_, err := svc.GenerateCommission(ctx, payment.ID, Actor{UserID: associate.ID})
		assert.True(t, errors.Is(err, errors.ErrPaymentNotReceived))

		exists, err := env.commissionRepo.ExistsByPaymentID(ctx, payment.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("回款不存在", func(t *testing.T) {
		_, err := svc.GenerateCommission(ctx, 999999, Actor{UserID: admin.ID, IsAdmin: true})
		assert.True(t, errors.Is(err, errors.ErrPaymentNotFound))
	})

	t.Run("非本人回款", func(t *testing.T) {
		other := createUser(t, env.db, models.UserRoleAssociate)
		project := createProject(t, env.db, "2")
		payment := createPayment(t, env.db, project.ID, associate.ID, "1000", models.PaymentStatusReceived)

		_, err := svc.GenerateCommission(ctx, payment.ID, Actor{UserID: other.ID})
		assert.True(t, errors.Is(err, errors.ErrCommissionForbidden))

		c, err := svc.GenerateCommission(ctx, payment.ID, Actor{UserID: admin.ID, IsAdmin: true})
		require.NoError(t, err)
		assert.Equal(t, associate.ID, c.AssociateID)
	})
}

func TestCommissionService_GenerateCommission_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commissionService(env.options())
	ctx := context.Background()
	associate := createUser(t, env.db, models.UserRoleAssociate)
	project := createProject(t, env.db, "2")
	payment := createPayment(t, env.db, project.ID, associate.ID, "10000", models.PaymentStatusReceived)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GenerateCommissionFromPayment(ctx, payment.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var success, duplicated int
	for err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, errors.ErrCommissionAlreadyGenerated):
			duplicated++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, duplicated)

	summary, err := env.commissionRepo.SummaryByAssociate(ctx, nil, associate.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Count)
	assertDecimal(t, "200", summary.Total)
}

func TestCommissionService_GenerateCommission_Tracing(t *testing.T) {
	env := newTestEnv(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	opts := env.options()
	opts.Tracer = tracing.New(tp, "test")
	svc := env.commissionService(opts)

	associate := createUser(t, env.db, models.UserRoleAssociate)
	project := createProject(t, env.db, "2")
	payment := createPayment(t, env.db, project.ID, associate.ID, "1000", models.PaymentStatusPending)

	_, err := svc.GenerateCommissionFromPayment(context.Background(), payment.ID)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "commission.generate", spans[0].Name())
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}

// ==================== 项目完成审批测试 ====================

func TestCommissionService_ApproveProjectCompletion(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commissionService(env.options())
	ctx := context.Background()
	associate := createUser(t, env.db, models.UserRoleAssociate)
	admin := createUser(t, env.db, models.UserRoleAdmin)

	t.Run("为已到账回款补生成佣金", func(t *testing.T) {
		project := createProject(t, env.db, "2.5")
		p1 := createPayment(t, env.db, project.ID, associate.ID, "10000", models.PaymentStatusReceived)
		p2 := createPayment(t, env.db, project.ID, associate.ID, "20000", models.PaymentStatusReceived)
		createPayment(t, env.db, project.ID, associate.ID, "30000", models.PaymentStatusPending)

		// p1 已提前生成
		_, err := svc.GenerateCommissionFromPayment(ctx, p1.ID)
		require.NoError(t, err)

		result, err := svc.ApproveProjectCompletion(ctx, project.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProjectStatusCompleted, result.Project.Status)
		require.NotNil(t, result.Project.ApprovedBy)
		assert.Equal(t, admin.ID, *result.Project.ApprovedBy)
		require.Len(t, result.Commissions, 1)
		assert.Equal(t, p2.ID, result.Commissions[0].PaymentID)
		assertDecimal(t, "500", result.Commissions[0].CommissionAmount)

		summary, err := env.commissionRepo.SummaryByAssociate(ctx, nil, associate.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), summary.Count)
	})

	t.Run("重复审批", func(t *testing.T) {
		project := createProject(t, env.db, "2")
		createPayment(t, env.db, project.ID, associate.ID, "1000", models.PaymentStatusReceived)

		_, err := svc.ApproveProjectCompletion(ctx, project.ID, admin.ID)
		require.NoError(t, err)

		_, err = svc.ApproveProjectCompletion(ctx, project.ID, admin.ID)
		assert.True(t, errors.Is(err, errors.ErrProjectAlreadyCompleted))
	})

	t.Run("项目不存在", func(t *testing.T) {
		_, err := svc.ApproveProjectCompletion(ctx, 999999, admin.ID)
		assert.True(t, errors.Is(err, errors.ErrProjectNotFound))
	})

	t.Run("无已到账回款", func(t *testing.T) {
		project := createProject(t, env.db, "2")
		result, err := svc.ApproveProjectCompletion(ctx, project.ID, admin.ID)
		require.NoError(t, err)
		assert.Empty(t, result.Commissions)
	})

	t.Run("比例超限的项目仍完成审批", func(t *testing.T) {
		project := createProject(t, env.db, "150")
		createPayment(t, env.db, project.ID, associate.ID, "1000", models.PaymentStatusReceived)

		result, err := svc.ApproveProjectCompletion(ctx, project.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProjectStatusCompleted, result.Project.Status)
		assert.Empty(t, result.Commissions)
	})
}

func TestCommissionService_ApproveProjectCompletion_QueryFailure(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commissionService(env.options())
	ctx := context.Background()
	associate := createUser(t, env.db, models.UserRoleAssociate)
	admin := createUser(t, env.db, models.UserRoleAdmin)
	project := createProject(t, env.db, "2")
	createPayment(t, env.db, project.ID, associate.ID, "10000", models.PaymentStatusReceived)

	var failing atomic.Bool
	require.NoError(t, env.db.Callback().Query().Before("gorm:query").Register("test:fail_payments", func(d *gorm.DB) {
		if failing.Load() && d.Statement.Table == "payments" {
			_ = d.AddError(stderrors.New("payments unavailable"))
		}
	}))

	failing.Store(true)
	_, err := svc.ApproveProjectCompletion(ctx, project.ID, admin.ID)
	assert.True(t, errors.Is(err, errors.ErrDatabaseError))

	stored, err := env.projectRepo.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusActive, stored.Status)
	assert.Nil(t, stored.ApprovedBy)

	failing.Store(false)
	result, err := svc.ApproveProjectCompletion(ctx, project.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCompleted, result.Project.Status)
	require.Len(t, result.Commissions, 1)
	assertDecimal(t, "200", result.Commissions[0].CommissionAmount)
}

// ==================== 查询测试 ====================

func TestCommissionService_ListAndStats(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commissionService(env.options())
	ctx := context.Background()
	associate := createUser(t, env.db, models.UserRoleAssociate)

	t.Run("无佣金", func(t *testing.T) {
		list, err := svc.ListCommissions(ctx, associate.ID)
		require.NoError(t, err)
		assert.Empty(t, list)

		stats, err := svc.GetAssociateStats(ctx, associate.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), stats.TotalCommissions)
		assert.True(t, stats.AvailableBalance.IsZero())
		assert.True(t, stats.AvgCommission.IsZero())
	})

	t.Run("统计余额", func(t *testing.T) {
		seedEarned(t, env.db, associate.ID, "3000")
		seedEarned(t, env.db, associate.ID, "2000")
		createWithdrawal(t, env.db, associate.ID, "1000", models.WithdrawalStatusCompleted)
		createWithdrawal(t, env.db, associate.ID, "500", models.WithdrawalStatusPending)
		createWithdrawal(t, env.db, associate.ID, "800", models.WithdrawalStatusFailed)
		createWithdrawal(t, env.db, associate.ID, "200", models.WithdrawalStatusCancelled)

		stats, err := svc.GetAssociateStats(ctx, associate.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.TotalCommissions)
		assertDecimal(t, "5000", stats.TotalEarned)
		assertDecimal(t, "1000", stats.TotalWithdrawn)
		assertDecimal(t, "500", stats.PendingWithdrawal)
		assertDecimal(t, "3500", stats.AvailableBalance)
		assertDecimal(t, "2500", stats.AvgCommission)

		list, err := svc.ListCommissions(ctx, associate.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.NotNil(t, list[0].Project)
		assert.NotNil(t, list[0].Payment)
	})
}

func TestNewCommissionService_Defaults(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCommissionService(env.db, env.commissionRepo, env.withdrawalRepo, env.paymentRepo, env.projectRepo, env.locker, Options{
		Metrics: metrics.New("defaults", prometheus.NewRegistry()),
	})
	assertDecimal(t, "2", svc.defaultRate)
	assert.NotNil(t, svc.log)
}
