// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，WithMessage/WithError 派生出的错误与原错误视为同一类
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus 返回错误对应的 HTTP 状态码，未指定时为 200（业务码放在响应体中）
func (e *AppError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusOK
	}
	return e.Status
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewWithStatus 创建带 HTTP 状态码的应用错误
func NewWithStatus(code int, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = NewWithStatus(1001, "参数错误", http.StatusBadRequest)
	ErrNotFound        = NewWithStatus(1002, "资源不存在", http.StatusNotFound)
	ErrAlreadyExists   = NewWithStatus(1003, "资源已存在", http.StatusConflict)
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = NewWithStatus(1006, "内部错误", http.StatusInternalServerError)
	ErrRateLimitExceed = NewWithStatus(1008, "请求过于频繁", http.StatusTooManyRequests)
	ErrLockTimeout     = NewWithStatus(1011, "操作繁忙，请稍后重试", http.StatusConflict)
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = NewWithStatus(2000, "未登录", http.StatusUnauthorized)
	ErrTokenExpired     = NewWithStatus(2001, "登录已过期", http.StatusUnauthorized)
	ErrTokenInvalid     = NewWithStatus(2002, "无效的令牌", http.StatusUnauthorized)
	ErrPermissionDenied = NewWithStatus(2004, "权限不足", http.StatusForbidden)
)

// 用户错误码 (3000-3999)
var (
	ErrUserNotFound        = NewWithStatus(3000, "用户不存在", http.StatusNotFound)
	ErrBalanceInsufficient = NewWithStatus(3006, "余额不足", http.StatusBadRequest)
)

// 项目与回款错误码 (6000-6999)
var (
	ErrPaymentNotFound         = NewWithStatus(6000, "回款记录不存在", http.StatusNotFound)
	ErrPaymentNotReceived      = NewWithStatus(6008, "回款尚未到账，无法生成佣金", http.StatusBadRequest)
	ErrProjectNotFound         = NewWithStatus(6100, "项目不存在", http.StatusNotFound)
	ErrProjectAlreadyCompleted = NewWithStatus(6101, "项目已完成", http.StatusConflict)
)

// 佣金与提现错误码 (10000-10999)
var (
	ErrCommissionAlreadyGenerated = NewWithStatus(10000, "该回款已生成佣金", http.StatusConflict)
	ErrCommissionForbidden        = NewWithStatus(10001, "无权为该回款生成佣金", http.StatusForbidden)
	ErrCommissionRateInvalid      = NewWithStatus(10002, "项目佣金比例超出范围", http.StatusUnprocessableEntity)
	ErrWithdrawalNotFound         = NewWithStatus(10100, "提现记录不存在", http.StatusNotFound)
	ErrWithdrawalAlreadyProcessed = NewWithStatus(10101, "提现申请已处理", http.StatusConflict)
	ErrWithdrawalInvalidStatus    = NewWithStatus(10102, "无效的提现处理状态", http.StatusBadRequest)
	ErrWithdrawalMissingFields    = NewWithStatus(10103, "请填写提现金额、方式和收款账户", http.StatusBadRequest)
	ErrWithdrawalBelowMinimum     = NewWithStatus(10104, "提现金额低于最低限额", http.StatusBadRequest)
	ErrWithdrawMethodInvalid      = NewWithStatus(10105, "不支持的提现方式", http.StatusBadRequest)
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// Is 判断 err 是否属于 target 错误码
func Is(err error, target *AppError) bool {
	return stderrors.Is(err, target)
}
