// Package main 是应用程序入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dumeirei/realty-crm-backend/internal/common/cache"
	"github.com/dumeirei/realty-crm-backend/internal/common/config"
	"github.com/dumeirei/realty-crm-backend/internal/common/database"
	"github.com/dumeirei/realty-crm-backend/internal/common/logger"
	"github.com/dumeirei/realty-crm-backend/internal/common/metrics"
	"github.com/dumeirei/realty-crm-backend/internal/common/tracing"
	commissionService "github.com/dumeirei/realty-crm-backend/internal/service/commission"
)

const version = "1.0.0"

// @title Realty CRM Commission API
// @version 1.0
// @description 佣金与提现账本服务
// @BasePath /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	// 加载配置
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()

	log.Info("Starting Realty CRM Backend",
		zap.String("version", version),
		zap.String("env", cfg.Server.Mode),
	)

	// 初始化数据库连接
	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis 仅在 redis 锁后端下为必需，其余情况连接失败时降级运行
	var redisClient *redis.Client
	redisClient, err = cache.Init(&cfg.Redis)
	switch {
	case err == nil:
		log.Info("Redis connected successfully")
	case cfg.Business.Commission.LockBackend == commissionService.LockBackendRedis:
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	default:
		redisClient = nil
		log.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
	}

	// 初始化链路追踪
	tracer, err := tracing.Init(&tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Mode,
		Exporter:       cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}

	// 初始化指标
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Init(cfg.Metrics.Namespace)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Mode == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 设置路由
	if err := setupRouter(engine, &routerDeps{
		cfg:         cfg,
		logger:      log,
		db:          db,
		redisClient: redisClient,
		metrics:     m,
		tracer:      tracer,
	}); err != nil {
		log.Fatal("Failed to setup router", zap.Error(err))
	}

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// 创建超时上下文用于优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// 刷新未导出的 span
	if err := tracer.Shutdown(ctx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}

	// 关闭数据库连接
	if err := database.Close(); err != nil {
		log.Error("Database close failed", zap.Error(err))
	}

	// 关闭 Redis 连接
	if err := cache.Close(); err != nil {
		log.Error("Redis close failed", zap.Error(err))
	}

	log.Info("Server exited")
}
