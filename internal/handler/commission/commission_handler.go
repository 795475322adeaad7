// Package commission 提供佣金与提现相关的 HTTP Handler
package commission

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dumeirei/realty-crm-backend/internal/common/handler"
	"github.com/dumeirei/realty-crm-backend/internal/common/response"
	"github.com/dumeirei/realty-crm-backend/internal/middleware"
	"github.com/dumeirei/realty-crm-backend/internal/models"
	commissionService "github.com/dumeirei/realty-crm-backend/internal/service/commission"
)

// Handler 佣金处理器
type Handler struct {
	commissionService *commissionService.CommissionService
	withdrawService   *commissionService.WithdrawService
	dashboardService  *commissionService.DashboardService
}

// NewHandler 创建佣金处理器
func NewHandler(
	commissionSvc *commissionService.CommissionService,
	withdrawSvc *commissionService.WithdrawService,
	dashboardSvc *commissionService.DashboardService,
) *Handler {
	return &Handler{
		commissionService: commissionSvc,
		withdrawService:   withdrawSvc,
		dashboardService:  dashboardSvc,
	}
}

// ListCommissions 获取我的佣金列表
// @Summary 获取我的佣金列表
// @Tags 佣金
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.Commission}
// @Router /api/v1/commissions [get]
func (h *Handler) ListCommissions(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	list, err := h.commissionService.ListCommissions(c.Request.Context(), userID)
	handler.MustSucceed(c, err, list)
}

// GetStats 获取我的佣金统计
// @Summary 获取我的佣金统计
// @Tags 佣金
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=commission.AssociateStats}
// @Router /api/v1/commissions/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	stats, err := h.commissionService.GetAssociateStats(c.Request.Context(), userID)
	handler.MustSucceed(c, err, stats)
}

// GenerateCommission 为回款生成佣金
// @Summary 为已到账回款生成佣金
// @Tags 佣金
// @Produce json
// @Security Bearer
// @Param paymentId path int true "回款ID"
// @Success 201 {object} response.Response{data=models.Commission}
// @Router /api/v1/commissions/generate/{paymentId} [post]
func (h *Handler) GenerateCommission(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	paymentID, ok := handler.ParseParamID(c, "paymentId", "回款")
	if !ok {
		return
	}

	actor := commissionService.Actor{UserID: userID, IsAdmin: middleware.IsAdmin(c)}
	result, err := h.commissionService.GenerateCommission(c.Request.Context(), paymentID, actor)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, "佣金生成成功", result)
}

// WithdrawRequest 提现申请请求
type WithdrawRequest struct {
	Amount         *decimal.Decimal `json:"amount" swaggertype:"number"`
	Method         string           `json:"method" enums:"Bank Transfer,UPI,Cheque"`
	AccountDetails string           `json:"accountDetails"`
	Notes          string           `json:"notes"`
}

// RequestWithdrawal 申请提现
// @Summary 申请提现
// @Tags 佣金
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body WithdrawRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Withdrawal}
// @Router /api/v1/commissions/withdrawals [post]
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.withdrawService.RequestWithdrawal(c.Request.Context(), userID, &commissionService.WithdrawRequest{
		Amount:         req.Amount,
		Method:         req.Method,
		AccountDetails: req.AccountDetails,
		Notes:          req.Notes,
	})
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, result.Message, result.Withdrawal)
}

// ListWithdrawals 获取我的提现记录
// @Summary 获取我的提现记录
// @Tags 佣金
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.Withdrawal}
// @Router /api/v1/commissions/withdrawals [get]
func (h *Handler) ListWithdrawals(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	list, err := h.withdrawService.ListWithdrawals(c.Request.Context(), userID)
	handler.MustSucceed(c, err, list)
}

// ApproveProjectCompletion 审批项目完成
// @Summary 审批项目完成并生成佣金
// @Tags 佣金管理
// @Produce json
// @Security Bearer
// @Param projectId path int true "项目ID"
// @Success 200 {object} response.Response{data=commission.ProjectCompletion}
// @Router /api/v1/commissions/approve-project/{projectId} [put]
func (h *Handler) ApproveProjectCompletion(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	projectID, ok := handler.ParseParamID(c, "projectId", "项目")
	if !ok {
		return
	}

	result, err := h.commissionService.ApproveProjectCompletion(c.Request.Context(), projectID, adminID)
	handler.MustSucceedWithMessage(c, err, "项目已完成，佣金已生成", result)
}

// ListAllWithdrawals 管理员获取提现列表
// @Summary 获取全部提现申请
// @Tags 佣金管理
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Param status query string false "状态" Enums(Pending, Completed, Failed, Cancelled)
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Withdrawal}}
// @Router /api/v1/commissions/admin/withdrawals [get]
func (h *Handler) ListAllWithdrawals(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	p := handler.BindPagination(c)
	list, total, err := h.withdrawService.GetAllWithdrawals(c.Request.Context(), p.GetOffset(), p.GetLimit(), c.Query("status"))
	p.Total = total
	handler.MustSucceedPage(c, err, list, p)
}

// ProcessWithdrawalRequest 处理提现请求
type ProcessWithdrawalRequest struct {
	Status string  `json:"status" binding:"required" enums:"Completed,Failed,Cancelled"`
	Notes  *string `json:"notes"`
}

// ProcessWithdrawal 管理员处理提现
// @Summary 处理提现申请
// @Tags 佣金管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "提现ID"
// @Param request body ProcessWithdrawalRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Withdrawal}
// @Router /api/v1/commissions/admin/withdrawals/{id} [put]
func (h *Handler) ProcessWithdrawal(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	withdrawalID, ok := handler.ParseID(c, "提现")
	if !ok {
		return
	}

	var req ProcessWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.withdrawService.ProcessWithdrawal(c.Request.Context(), withdrawalID, adminID, req.Status, req.Notes)
	handler.MustSucceedWithMessage(c, err, "提现已"+statusText(req.Status), result)
}

// GetDashboard 管理员佣金看板
// @Summary 获取佣金看板统计
// @Tags 佣金管理
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=commission.DashboardStats}
// @Router /api/v1/commissions/admin/dashboard [get]
func (h *Handler) GetDashboard(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	stats, err := h.dashboardService.GetDashboardStats(c.Request.Context())
	handler.MustSucceed(c, err, stats)
}

func statusText(status string) string {
	switch status {
	case models.WithdrawalStatusCompleted:
		return "完成"
	case models.WithdrawalStatusFailed:
		return "标记为失败"
	case models.WithdrawalStatusCancelled:
		return "取消"
	}
	return "处理"
}

// RegisterRoutes 注册佣金路由，rg 需已挂载用户认证中间件
// withdrawLimit 仅作用于提现申请接口
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, withdrawLimit ...gin.HandlerFunc) {
	requestHandlers := make([]gin.HandlerFunc, 0, len(withdrawLimit)+1)
	requestHandlers = append(requestHandlers, withdrawLimit...)
	requestHandlers = append(requestHandlers, h.RequestWithdrawal)

	commissions := rg.Group("/commissions")
	{
		commissions.GET("", h.ListCommissions)
		commissions.GET("/stats", h.GetStats)
		commissions.GET("/withdrawals", h.ListWithdrawals)
		commissions.POST("/withdrawals", requestHandlers...)
		commissions.POST("/generate/:paymentId", h.GenerateCommission)
	}

	admin := commissions.Group("")
	admin.Use(middleware.RequireAdmin())
	{
		admin.PUT("/approve-project/:projectId", h.ApproveProjectCompletion)
		admin.GET("/admin/withdrawals", h.ListAllWithdrawals)
		admin.PUT("/admin/withdrawals/:id", h.ProcessWithdrawal)
		admin.GET("/admin/dashboard", h.GetDashboard)
	}
}
