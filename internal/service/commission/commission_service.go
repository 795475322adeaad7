package commission

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/realty-crm-backend/internal/common/database"
	"github.com/dumeirei/realty-crm-backend/internal/common/errors"
	"github.com/dumeirei/realty-crm-backend/internal/common/logger"
	"github.com/dumeirei/realty-crm-backend/internal/common/metrics"
	"github.com/dumeirei/realty-crm-backend/internal/common/tracing"
	"github.com/dumeirei/realty-crm-backend/internal/models"
	"github.com/dumeirei/realty-crm-backend/internal/repository"
)

// Actor 发起操作的用户
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// CommissionService 佣金服务
type CommissionService struct {
	db             *gorm.DB
	commissionRepo *repository.CommissionRepository
	paymentRepo    *repository.PaymentRepository
	projectRepo    *repository.ProjectRepository
	balance        *balanceReader
	locker         Locker
	defaultRate    decimal.Decimal
	metrics        *metrics.Metrics
	tracer         *tracing.Tracer
	log            *zap.Logger
}

// NewCommissionService 创建佣金服务
func NewCommissionService(
	db *gorm.DB,
	commissionRepo *repository.CommissionRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	paymentRepo *repository.PaymentRepository,
	projectRepo *repository.ProjectRepository,
	locker Locker,
	opts Options,
) *CommissionService {
	opts = opts.withDefaults("commission")
	return &CommissionService{
		db:             db,
		commissionRepo: commissionRepo,
		paymentRepo:    paymentRepo,
		projectRepo:    projectRepo,
		balance:        &balanceReader{commissionRepo: commissionRepo, withdrawalRepo: withdrawalRepo},
		locker:         locker,
		defaultRate:    opts.DefaultRate,
		metrics:        opts.Metrics,
		tracer:         opts.Tracer,
		log:            opts.Logger,
	}
}

// GenerateCommission 为已到账回款生成佣金
// 非管理员只能为自己名下的回款生成
func (s *CommissionService) GenerateCommission(ctx context.Context, paymentID int64, actor Actor) (*models.Commission, error) {
	return s.generate(ctx, paymentID, SourceManual, func(p *models.Payment) error {
		if !actor.IsAdmin && p.AssociateID != actor.UserID {
			return errors.ErrCommissionForbidden
		}
		return nil
	})
}

// GenerateCommissionFromPayment 系统流程内为回款生成佣金，不做归属校验
func (s *CommissionService) GenerateCommissionFromPayment(ctx context.Context, paymentID int64) (*models.Commission, error) {
	return s.generate(ctx, paymentID, SourceManual, nil)
}

func (s *CommissionService) generate(ctx context.Context, paymentID int64, source string, authorize func(*models.Payment) error) (commission *models.Commission, err error) {
	ctx, span := s.tracer.Start(ctx, "commission.generate", tracing.WithPaymentID(paymentID))
	defer func() { tracing.End(span, err) }()

	// 同一回款的生成串行执行，唯一索引兜底
	unlock, err := s.locker.Lock(ctx, commissionLockKey(paymentID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if authorize != nil {
		if err = authorize(payment); err != nil {
			return nil, err
		}
	}

	if payment.Status != models.PaymentStatusReceived {
		return nil, errors.ErrPaymentNotReceived
	}

	exists, err := s.commissionRepo.ExistsByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrCommissionAlreadyGenerated
	}

	project, err := s.projectRepo.GetByID(ctx, payment.ProjectID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrProjectNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	rate, err := s.rateFor(project)
	if err != nil {
		return nil, err
	}
	commission = &models.Commission{
		AssociateID:      payment.AssociateID,
		PaymentID:        payment.ID,
		ProjectID:        payment.ProjectID,
		SaleAmount:       payment.Amount,
		CommissionRate:   rate,
		CommissionAmount: CalculateCommission(payment.Amount, rate),
		Status:           models.CommissionStatusEarned,
		EarnedDate:       time.Now(),
	}
	if err = s.commissionRepo.Create(ctx, commission); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errors.ErrCommissionAlreadyGenerated
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	span.SetAttributes(tracing.WithAssociateID(commission.AssociateID), tracing.WithAmount(commission.CommissionAmount.StringFixed(2)))
	s.metrics.RecordCommission(source, commission.CommissionAmount)
	s.log.Info("commission generated",
		logger.PaymentID(paymentID),
		logger.AssociateID(commission.AssociateID),
		logger.ProjectID(commission.ProjectID),
		logger.Amount(commission.CommissionAmount),
		zap.String("source", source),
	)
	return commission, nil
}

// rateFor 项目未设置比例或比例为 0 时使用默认比例，超过 100 视为数据错误
func (s *CommissionService) rateFor(project *models.Project) (decimal.Decimal, error) {
	if !project.CommissionRate.Valid || !project.CommissionRate.Decimal.IsPositive() {
		return s.defaultRate, nil
	}
	if project.CommissionRate.Decimal.GreaterThan(hundred) {
		return decimal.Zero, errors.ErrCommissionRateInvalid
	}
	return project.CommissionRate.Decimal, nil
}

// ProjectCompletion 项目完成审批结果
type ProjectCompletion struct {
	Project     *models.Project      `json:"project"`
	Commissions []*models.Commission `json:"commissions"`
}

// ApproveProjectCompletion 审批项目完成，并为项目下所有已到账回款补生成佣金
// 单笔生成失败只记录日志，不影响其他回款
func (s *CommissionService) ApproveProjectCompletion(ctx context.Context, projectID, adminID int64) (result *ProjectCompletion, err error) {
	ctx, span := s.tracer.Start(ctx, "commission.approve_project",
		tracing.WithProjectID(projectID),
		tracing.WithAdminID(adminID),
	)
	defer func() { tracing.End(span, err) }()

	// 状态更新与回款查询同一事务提交，查询失败时项目保持未完成，可重试
	var payments []*models.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.projectRepo.MarkCompleted(ctx, tx, projectID, adminID, time.Now())
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if affected == 0 {
			return errors.ErrProjectAlreadyCompleted
		}
		payments, err = s.paymentRepo.ListReceivedByProject(ctx, tx, projectID)
		if err != nil {
			s.log.Error("list received payments failed", logger.ProjectID(projectID), logger.Err(err))
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, errors.ErrProjectAlreadyCompleted) {
			return nil, err
		}
		if _, getErr := s.projectRepo.GetByID(ctx, projectID); getErr != nil {
			if stderrors.Is(getErr, gorm.ErrRecordNotFound) {
				return nil, errors.ErrProjectNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(getErr)
		}
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	result = &ProjectCompletion{Project: project, Commissions: make([]*models.Commission, 0, len(payments))}
	for _, p := range payments {
		c, genErr := s.generate(ctx, p.ID, SourceProject, nil)
		switch {
		case genErr == nil:
			result.Commissions = append(result.Commissions, c)
		case errors.Is(genErr, errors.ErrCommissionAlreadyGenerated):
			s.log.Debug("commission already generated", logger.ProjectID(projectID), logger.PaymentID(p.ID))
		default:
			s.log.Warn("generate commission for project payment failed",
				logger.ProjectID(projectID),
				logger.PaymentID(p.ID),
				logger.Err(genErr),
			)
		}
	}

	s.log.Info("project completion approved",
		logger.ProjectID(projectID),
		logger.AdminID(adminID),
		zap.Int("payments", len(payments)),
		zap.Int("generated", len(result.Commissions)),
	)
	return result, nil
}

// ListCommissions 获取业务员佣金列表
func (s *CommissionService) ListCommissions(ctx context.Context, associateID int64) ([]*models.Commission, error) {
	list, err := s.commissionRepo.ListByAssociate(ctx, associateID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// GetAssociateStats 获取业务员佣金统计
func (s *CommissionService) GetAssociateStats(ctx context.Context, associateID int64) (*AssociateStats, error) {
	stats, err := s.balance.stats(ctx, nil, associateID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return stats, nil
}
