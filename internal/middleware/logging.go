package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/realty-crm-backend/internal/common/jwt"
	"github.com/dumeirei/realty-crm-backend/internal/common/logger"
)

// LoggingConfig 访问日志配置
type LoggingConfig struct {
	Logger    *zap.Logger
	SkipPaths []string // 不记录访问日志的路径
}

// DefaultLoggingConfig 默认跳过探活与指标接口
func DefaultLoggingConfig(log *zap.Logger) *LoggingConfig {
	return &LoggingConfig{
		Logger:    log,
		SkipPaths: []string{"/health", "/ping", "/ready", "/metrics"},
	}
}

// Logging 访问日志中间件
// 提现请求体包含收款账户，因此不记录请求体和查询串以外的参数
func Logging(cfg *LoggingConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			logger.RequestID(GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", routeOf(c)),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		fields = append(fields, actorFields(c)...)
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			cfg.Logger.Error("HTTP Request", fields...)
		case status >= 400:
			cfg.Logger.Warn("HTTP Request", fields...)
		default:
			cfg.Logger.Info("HTTP Request", fields...)
		}
	}
}

// actorFields 按身份记录操作人
func actorFields(c *gin.Context) []zap.Field {
	userID := GetUserID(c)
	if userID == 0 {
		return nil
	}
	if GetUserType(c) == jwt.UserTypeAdmin {
		return []zap.Field{logger.AdminID(userID)}
	}
	return []zap.Field{logger.AssociateID(userID)}
}
