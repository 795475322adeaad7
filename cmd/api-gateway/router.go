// Package main 是应用程序入口
package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/dumeirei/realty-crm-backend/docs"
	"github.com/dumeirei/realty-crm-backend/internal/common/config"
	"github.com/dumeirei/realty-crm-backend/internal/common/crypto"
	"github.com/dumeirei/realty-crm-backend/internal/common/jwt"
	"github.com/dumeirei/realty-crm-backend/internal/common/metrics"
	commonMiddleware "github.com/dumeirei/realty-crm-backend/internal/common/middleware"
	"github.com/dumeirei/realty-crm-backend/internal/common/response"
	"github.com/dumeirei/realty-crm-backend/internal/common/tracing"
	commissionHandler "github.com/dumeirei/realty-crm-backend/internal/handler/commission"
	"github.com/dumeirei/realty-crm-backend/internal/middleware"
	"github.com/dumeirei/realty-crm-backend/internal/repository"
	commissionService "github.com/dumeirei/realty-crm-backend/internal/service/commission"
)

// 单个请求体上限
const maxRequestBodySize = 1 << 20

// routerDeps 路由依赖，redisClient、metrics 可为空
type routerDeps struct {
	cfg         *config.Config
	logger      *zap.Logger
	db          *gorm.DB
	redisClient *redis.Client
	metrics     *metrics.Metrics
	tracer      *tracing.Tracer
}

// universalClient 未连接 Redis 时返回空接口，避免出现带类型的 nil
func (d *routerDeps) universalClient() redis.UniversalClient {
	if d.redisClient == nil {
		return nil
	}
	return d.redisClient
}

// setupRouter 设置路由
func setupRouter(r *gin.Engine, deps *routerDeps) error {
	cfg := deps.cfg

	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 初始化仓储
	commissionRepo := repository.NewCommissionRepository(deps.db)
	withdrawalRepo := repository.NewWithdrawalRepository(deps.db)
	paymentRepo := repository.NewPaymentRepository(deps.db)
	projectRepo := repository.NewProjectRepository(deps.db)

	// 初始化锁
	commissionCfg := &cfg.Business.Commission
	locker, err := commissionService.NewLocker(
		commissionCfg.LockBackend,
		deps.universalClient(),
		commissionCfg.LockTTLDuration(),
		commissionCfg.LockWaitDuration(),
		deps.metrics,
		deps.logger.Named("locker"),
	)
	if err != nil {
		return err
	}

	opts := commissionService.OptionsFromConfig(commissionCfg)
	opts.Metrics = deps.metrics
	opts.Tracer = deps.tracer
	opts.Logger = deps.logger
	if cfg.Crypto.AESKey != "" {
		cipher, err := crypto.NewAES(cfg.Crypto.AESKey)
		if err != nil {
			return fmt.Errorf("invalid crypto.aes_key: %w", err)
		}
		opts.Cipher = cipher
	}

	// 初始化服务
	commissionSvc := commissionService.NewCommissionService(deps.db, commissionRepo, withdrawalRepo, paymentRepo, projectRepo, locker, opts)
	withdrawSvc := commissionService.NewWithdrawService(deps.db, commissionRepo, withdrawalRepo, locker, opts)
	dashboardSvc := commissionService.NewDashboardService(commissionRepo, withdrawalRepo)

	// 初始化处理器
	commissionH := commissionHandler.NewHandler(commissionSvc, withdrawSvc, dashboardSvc)

	// 全局中间件
	r.Use(middleware.Recovery(deps.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORSFromConfig(&cfg.CORS))
	r.Use(middleware.Logging(middleware.DefaultLoggingConfig(deps.logger)))
	if cfg.Tracing.Enabled {
		r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
		}))
		r.Use(commonMiddleware.InjectTraceContext())
	}
	if deps.metrics != nil {
		r.Use(deps.metrics.Middleware())
	}
	r.Use(middleware.RequestSizeLimiter(maxRequestBodySize))

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(deps.db, deps.universalClient()))

	// 监控指标
	if deps.metrics != nil {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 提现限流，未连接 Redis 时不启用
	var withdrawLimit []gin.HandlerFunc
	if cfg.RateLimit.Enabled && deps.redisClient != nil {
		withdrawLimit = append(withdrawLimit, middleware.WithdrawRateLimit(
			deps.redisClient,
			cfg.RateLimit.WithdrawLimit,
			cfg.RateLimit.WithdrawWindowDuration(),
		))
	}

	// API v1 路由组
	v1 := r.Group("/api/v1")
	v1.Use(middleware.NoCache(), middleware.UserAuth(jwtManager))
	{
		commissionH.RegisterRoutes(v1, withdrawLimit...)
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "接口不存在")
	})

	return nil
}
