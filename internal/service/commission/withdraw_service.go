package commission

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/realty-crm-backend/internal/common/crypto"
	"github.com/dumeirei/realty-crm-backend/internal/common/errors"
	"github.com/dumeirei/realty-crm-backend/internal/common/logger"
	"github.com/dumeirei/realty-crm-backend/internal/common/metrics"
	"github.com/dumeirei/realty-crm-backend/internal/common/tracing"
	"github.com/dumeirei/realty-crm-backend/internal/common/utils"
	"github.com/dumeirei/realty-crm-backend/internal/models"
	"github.com/dumeirei/realty-crm-backend/internal/repository"
)

const (
	referencePrefix       = "WD"
	maxReferenceAttempts  = 3
	withdrawalRequestNote = "提现申请已提交，预计 2-3 个工作日内处理"
)

// 提现申请结果，用于指标标签
const (
	outcomeAccepted            = "accepted"
	outcomeInvalid             = "invalid"
	outcomeInsufficientBalance = "insufficient_balance"
	outcomeLockTimeout         = "lock_timeout"
	outcomeError               = "error"
)

// WithdrawService 提现服务
type WithdrawService struct {
	db             *gorm.DB
	withdrawalRepo *repository.WithdrawalRepository
	balance        *balanceReader
	locker         Locker
	minWithdraw    decimal.Decimal
	cipher         *crypto.AES
	metrics        *metrics.Metrics
	tracer         *tracing.Tracer
	log            *zap.Logger
}

// NewWithdrawService 创建提现服务
func NewWithdrawService(
	db *gorm.DB,
	commissionRepo *repository.CommissionRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	locker Locker,
	opts Options,
) *WithdrawService {
	opts = opts.withDefaults("withdraw")
	return &WithdrawService{
		db:             db,
		withdrawalRepo: withdrawalRepo,
		balance:        &balanceReader{commissionRepo: commissionRepo, withdrawalRepo: withdrawalRepo},
		locker:         locker,
		minWithdraw:    opts.MinWithdrawAmount,
		cipher:         opts.Cipher,
		metrics:        opts.Metrics,
		tracer:         opts.Tracer,
		log:            opts.Logger,
	}
}

// WithdrawRequest 提现请求
type WithdrawRequest struct {
	Amount         *decimal.Decimal `json:"amount"`
	Method         string           `json:"method"`
	AccountDetails string           `json:"accountDetails"`
	Notes          string           `json:"notes"`
}

// WithdrawResult 提现申请结果
type WithdrawResult struct {
	Withdrawal *models.Withdrawal `json:"withdrawal"`
	Message    string             `json:"message"`
}

// RequestWithdrawal 申请提现
// 同一业务员的申请串行执行，余额校验与记录写入在同一事务内完成
func (s *WithdrawService) RequestWithdrawal(ctx context.Context, associateID int64, req *WithdrawRequest) (result *WithdrawResult, err error) {
	ctx, span := s.tracer.Start(ctx, "withdrawal.request", tracing.WithAssociateID(associateID))
	defer func() {
		s.metrics.RecordWithdrawalRequest(withdrawOutcome(err))
		tracing.End(span, err)
	}()

	amount, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracing.WithAmount(amount.StringFixed(2)))

	accountDetails := strings.TrimSpace(req.AccountDetails)
	stored, err := s.encrypt(accountDetails)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	unlock, err := s.locker.Lock(ctx, withdrawLockKey(associateID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var withdrawal *models.Withdrawal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stats, err := s.balance.stats(ctx, tx, associateID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if amount.GreaterThan(stats.AvailableBalance) {
			return errors.ErrBalanceInsufficient.WithMessage(
				fmt.Sprintf("余额不足，可用余额 %s", stats.AvailableBalance.StringFixed(2)))
		}

		reference, err := s.newReference(ctx, tx)
		if err != nil {
			return err
		}

		withdrawal = &models.Withdrawal{
			AssociateID:    associateID,
			Amount:         amount,
			Method:         req.Method,
			AccountDetails: stored,
			Status:         models.WithdrawalStatusPending,
			Reference:      reference,
			Notes:          strings.TrimSpace(req.Notes),
		}
		if err := s.withdrawalRepo.Create(ctx, tx, withdrawal); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.ErrBalanceInsufficient) {
			s.log.Info("withdrawal rejected",
				logger.AssociateID(associateID),
				logger.Amount(amount),
				zap.String("reason", err.Error()),
			)
		}
		return nil, err
	}

	withdrawal.AccountDetails = accountDetails
	span.SetAttributes(tracing.WithWithdrawalID(withdrawal.ID))
	s.log.Info("withdrawal requested",
		logger.AssociateID(associateID),
		logger.WithdrawalID(withdrawal.ID),
		logger.Reference(withdrawal.Reference),
		logger.Amount(amount),
		zap.String("method", withdrawal.Method),
		zap.String("account", crypto.MaskAccount(accountDetails)),
	)
	return &WithdrawResult{Withdrawal: withdrawal, Message: withdrawalRequestNote}, nil
}

// validate 校验必填项、提现方式与最低金额
func (s *WithdrawService) validate(req *WithdrawRequest) (decimal.Decimal, error) {
	if req == nil || req.Amount == nil || req.Amount.IsZero() ||
		strings.TrimSpace(req.Method) == "" || strings.TrimSpace(req.AccountDetails) == "" {
		return decimal.Zero, errors.ErrWithdrawalMissingFields
	}
	if !models.IsValidWithdrawMethod(req.Method) {
		return decimal.Zero, errors.ErrWithdrawMethodInvalid
	}

	amount := *req.Amount
	if amount.IsNegative() {
		return decimal.Zero, errors.ErrInvalidParams.WithMessage("提现金额必须大于 0")
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, errors.ErrInvalidParams.WithMessage("提现金额最多保留两位小数")
	}
	if amount.LessThan(s.minWithdraw) {
		return decimal.Zero, errors.ErrWithdrawalBelowMinimum.WithMessage(
			fmt.Sprintf("单笔最低提现金额为 %s", s.minWithdraw.StringFixed(2)))
	}
	return amount, nil
}

// newReference 生成唯一的提现流水号
func (s *WithdrawService) newReference(ctx context.Context, tx *gorm.DB) (string, error) {
	for i := 0; i < maxReferenceAttempts; i++ {
		reference := utils.GenerateOrderNo(referencePrefix)
		exists, err := s.withdrawalRepo.ExistsReference(ctx, tx, reference)
		if err != nil {
			return "", errors.ErrDatabaseError.WithError(err)
		}
		if !exists {
			return reference, nil
		}
	}
	return "", errors.ErrInternalError.WithMessage("生成提现流水号失败")
}

// ProcessWithdrawal 管理员处理提现，仅待处理的申请可以进入终态
func (s *WithdrawService) ProcessWithdrawal(ctx context.Context, withdrawalID, adminID int64, status string, notes *string) (withdrawal *models.Withdrawal, err error) {
	ctx, span := s.tracer.Start(ctx, "withdrawal.process",
		tracing.WithWithdrawalID(withdrawalID),
		tracing.WithAdminID(adminID),
		tracing.WithStatus(status),
	)
	defer func() { tracing.End(span, err) }()

	if !models.IsTerminalWithdrawalStatus(status) {
		return nil, errors.ErrWithdrawalInvalidStatus
	}

	// 条件更新保证并发处理时只有一个管理员成功
	affected, err := s.withdrawalRepo.FinishPending(ctx, withdrawalID, status, adminID, notes, time.Now())
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		current, getErr := s.withdrawalRepo.GetByID(ctx, withdrawalID)
		if getErr != nil {
			if stderrors.Is(getErr, gorm.ErrRecordNotFound) {
				return nil, errors.ErrWithdrawalNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(getErr)
		}
		if current.IsTerminal() {
			return nil, errors.ErrWithdrawalAlreadyProcessed
		}
		// 仍为待处理却未更新成功
		s.log.Error("finish pending withdrawal affected no rows", logger.WithdrawalID(withdrawalID), logger.AdminID(adminID))
		return nil, errors.ErrDatabaseError.WithMessage("提现状态更新失败")
	}

	withdrawal, err = s.withdrawalRepo.GetByIDWithRelations(ctx, withdrawalID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.decryptAccount(withdrawal)

	s.metrics.RecordWithdrawalProcessed(status)
	s.log.Info("withdrawal processed",
		logger.WithdrawalID(withdrawalID),
		logger.AdminID(adminID),
		logger.AssociateID(withdrawal.AssociateID),
		logger.Amount(withdrawal.Amount),
		zap.String("status", status),
	)
	return withdrawal, nil
}

// ListWithdrawals 获取业务员提现记录
func (s *WithdrawService) ListWithdrawals(ctx context.Context, associateID int64) ([]*models.Withdrawal, error) {
	list, err := s.withdrawalRepo.ListByAssociate(ctx, associateID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, w := range list {
		s.decryptAccount(w)
	}
	return list, nil
}

// GetAllWithdrawals 管理员分页查询提现记录，status 为空时不过滤
func (s *WithdrawService) GetAllWithdrawals(ctx context.Context, offset, limit int, status string) ([]*models.Withdrawal, int64, error) {
	if status != "" && status != models.WithdrawalStatusPending && !models.IsTerminalWithdrawalStatus(status) {
		return nil, 0, errors.ErrInvalidParams.WithMessage("无效的提现状态")
	}
	list, total, err := s.withdrawalRepo.List(ctx, offset, limit, status)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	for _, w := range list {
		s.decryptAccount(w)
	}
	return list, total, nil
}

func (s *WithdrawService) encrypt(account string) (string, error) {
	if s.cipher == nil {
		return account, nil
	}
	return s.cipher.Encrypt(account)
}

// decryptAccount 解密失败时保留原值，兼容启用加密前的明文记录
func (s *WithdrawService) decryptAccount(w *models.Withdrawal) {
	if s.cipher == nil || w == nil {
		return
	}
	plain, err := s.cipher.Decrypt(w.AccountDetails)
	if err != nil {
		s.log.Warn("decrypt account details failed", logger.WithdrawalID(w.ID), logger.Err(err))
		return
	}
	w.AccountDetails = plain
}

func withdrawOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeAccepted
	case errors.Is(err, errors.ErrBalanceInsufficient):
		return outcomeInsufficientBalance
	case errors.Is(err, errors.ErrLockTimeout):
		return outcomeLockTimeout
	case errors.Is(err, errors.ErrWithdrawalMissingFields),
		errors.Is(err, errors.ErrWithdrawMethodInvalid),
		errors.Is(err, errors.ErrWithdrawalBelowMinimum),
		errors.Is(err, errors.ErrInvalidParams):
		return outcomeInvalid
	default:
		return outcomeError
	}
}
