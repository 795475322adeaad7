package commission

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dumeirei/realty-crm-backend/internal/common/config"
	"github.com/dumeirei/realty-crm-backend/internal/common/crypto"
	"github.com/dumeirei/realty-crm-backend/internal/common/logger"
	"github.com/dumeirei/realty-crm-backend/internal/common/metrics"
	"github.com/dumeirei/realty-crm-backend/internal/common/tracing"
)

// 默认业务参数
var (
	DefaultCommissionRate    = decimal.NewFromInt(2)   // 项目未设置比例时的佣金比例（%）
	DefaultMinWithdrawAmount = decimal.NewFromInt(100) // 单笔最低提现金额
)

// 佣金来源
const (
	SourceManual  = "manual"
	SourceProject = "project"
)

// Options 服务依赖与业务参数，零值字段使用默认值
type Options struct {
	DefaultRate       decimal.Decimal
	MinWithdrawAmount decimal.Decimal
	Cipher            *crypto.AES // 为空时收款账户明文存储
	Metrics           *metrics.Metrics
	Tracer            *tracing.Tracer
	Logger            *zap.Logger
}

// OptionsFromConfig 从配置构建业务参数
func OptionsFromConfig(cfg *config.CommissionConfig) Options {
	var opts Options
	if cfg == nil {
		return opts
	}
	if cfg.DefaultRate > 0 {
		opts.DefaultRate = decimal.NewFromFloat(cfg.DefaultRate)
	}
	if cfg.MinWithdrawAmount > 0 {
		opts.MinWithdrawAmount = decimal.NewFromFloat(cfg.MinWithdrawAmount)
	}
	return opts
}

func (o Options) withDefaults(name string) Options {
	if !o.DefaultRate.IsPositive() {
		o.DefaultRate = DefaultCommissionRate
	}
	if o.MinWithdrawAmount.IsNegative() || o.MinWithdrawAmount.IsZero() {
		o.MinWithdrawAmount = DefaultMinWithdrawAmount
	}
	if o.Logger == nil {
		o.Logger = logger.Named(name)
	} else {
		o.Logger = o.Logger.Named(name)
	}
	return o
}
