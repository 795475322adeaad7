// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics 指标收集器
// 所有 Record 方法允许在 nil 接收者上调用
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	commissionsTotal     *prometheus.CounterVec
	commissionAmount     prometheus.Counter
	withdrawalsRequested *prometheus.CounterVec
	withdrawalsProcessed *prometheus.CounterVec
	lockTimeoutsTotal    *prometheus.CounterVec
	lockWaitDuration     *prometheus.HistogramVec
}

var defaultMetrics *Metrics

// Init 在默认注册表上初始化指标收集器
func Init(namespace string) *Metrics {
	defaultMetrics = New(namespace, prometheus.DefaultRegisterer)
	return defaultMetrics
}

// New 在指定注册表上创建指标收集器
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "realty_crm"
	}
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		commissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "commissions_generated_total",
				Help:      "Total number of commissions generated",
			},
			[]string{"source"},
		),
		commissionAmount: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "commission_amount_total",
				Help:      "Sum of generated commission amounts",
			},
		),
		withdrawalsRequested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "withdrawals_requested_total",
				Help:      "Total number of withdrawal requests by outcome",
			},
			[]string{"outcome"},
		),
		withdrawalsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "withdrawals_processed_total",
				Help:      "Total number of withdrawals moved to a terminal status",
			},
			[]string{"status"},
		),
		lockTimeoutsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "lock_timeouts_total",
				Help:      "Total number of keyed lock acquisitions that timed out",
			},
			[]string{"scope"},
		),
		lockWaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "lock_wait_seconds",
				Help:      "Time spent waiting for keyed locks",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 3},
			},
			[]string{"scope"},
		),
	}
}

// GetMetrics 获取默认指标收集器，未初始化时返回 nil
func GetMetrics() *Metrics {
	return defaultMetrics
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过 metrics 端点本身
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordCommission 记录生成的佣金，source 为 manual 或 project
func (m *Metrics) RecordCommission(source string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.commissionsTotal.WithLabelValues(source).Inc()
	m.commissionAmount.Add(amount.InexactFloat64())
}

// RecordWithdrawalRequest 记录提现申请结果
func (m *Metrics) RecordWithdrawalRequest(outcome string) {
	if m == nil {
		return
	}
	m.withdrawalsRequested.WithLabelValues(outcome).Inc()
}

// RecordWithdrawalProcessed 记录提现处理结果
func (m *Metrics) RecordWithdrawalProcessed(status string) {
	if m == nil {
		return
	}
	m.withdrawalsProcessed.WithLabelValues(status).Inc()
}

// RecordLockWait 记录获取锁的等待时间，timedOut 表示最终未获取到
func (m *Metrics) RecordLockWait(scope string, waited time.Duration, timedOut bool) {
	if m == nil {
		return
	}
	m.lockWaitDuration.WithLabelValues(scope).Observe(waited.Seconds())
	if timedOut {
		m.lockTimeoutsTotal.WithLabelValues(scope).Inc()
	}
}
