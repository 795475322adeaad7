// Package handler 提供 API Handler 的通用辅助函数
// 用于减少 Handler 层的代码重复，统一错误处理、认证检查、参数解析等操作
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/realty-crm-backend/internal/common/errors"
	"github.com/dumeirei/realty-crm-backend/internal/common/logger"
	"github.com/dumeirei/realty-crm-backend/internal/common/response"
	"github.com/dumeirei/realty-crm-backend/internal/common/utils"
	"github.com/dumeirei/realty-crm-backend/internal/middleware"
)

// ============================================================================
// 统一错误处理
// ============================================================================

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false（表示无错误需要处理）
// 如果 err 不为 nil，发送错误响应并返回 true（调用方应该 return）
// 非 AppError 记录日志后返回通用 500，不暴露内部细节
//
// 使用示例:
//
//	result, err := service.DoSomething(ctx)
//	if handler.HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.IsAppError(err) {
		appErr := errors.GetAppError(err)
		response.ErrorWithStatus(c, appErr.HTTPStatus(), appErr.Code, appErr.Message)
		return true
	}

	_ = c.Error(err)
	logger.Error("unhandled error",
		logger.RequestID(middleware.GetRequestID(c)),
		logger.String("method", c.Request.Method),
		logger.String("path", c.FullPath()),
		logger.Err(err),
	)
	response.ErrorWithStatus(c, http.StatusInternalServerError, errors.ErrInternalError.Code, errors.ErrInternalError.Message)
	return true
}

// MustSucceed 便捷封装：如果有错误则返回错误响应，否则返回成功响应
//
// 使用示例:
//
//	result, err := service.GetData(ctx)
//	handler.MustSucceed(c, err, result)
//	return
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedWithMessage 便捷封装：带自定义成功消息
func MustSucceedWithMessage(c *gin.Context, err error, message string, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, message, data)
}

// MustSucceedPage 便捷封装：分页响应版本，p.Total 由调用方填入
func MustSucceedPage(c *gin.Context, err error, list interface{}, p utils.Pagination) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, p)
}

// ============================================================================
// 用户认证检查
// ============================================================================

// RequireUserID 获取当前用户ID，如果未登录则返回401响应
// 返回 (0, false) 时已发送响应，调用方应该 return
func RequireUserID(c *gin.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	return userID, true
}

// RequireAdminID 获取当前管理员ID，非管理员返回403响应
func RequireAdminID(c *gin.Context) (int64, bool) {
	if middleware.GetUserID(c) == 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	adminID := middleware.GetAdminID(c)
	if adminID == 0 {
		response.Forbidden(c, "需要管理员权限")
		return 0, false
	}
	return adminID, true
}

// ============================================================================
// ID 参数解析
// ============================================================================

// ParseID 解析路径参数 "id" 为 int64
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为正整数 ID
// 返回 (0, false) 时已发送400响应
//
// 使用示例:
//
//	paymentID, ok := handler.ParseParamID(c, "paymentId", "回款")
//	if !ok {
//	    return
//	}
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// ============================================================================
// 分页参数
// ============================================================================

// BindPagination 解析分页参数 page 与 limit（兼容 page_size）
// 非法值回退为默认值，limit 上限为 utils.MaxPageSize
func BindPagination(c *gin.Context) utils.Pagination {
	limit := c.Query("limit")
	if limit == "" {
		limit = c.Query("page_size")
	}
	// 解析失败得到 0，由 Normalize 回退为默认值
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(limit)

	p := utils.Pagination{Page: page, PageSize: pageSize}
	p.Normalize()
	return p
}
