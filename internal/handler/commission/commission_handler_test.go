package commission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/realty-crm-backend/internal/common/jwt"
	"github.com/dumeirei/realty-crm-backend/internal/middleware"
	"github.com/dumeirei/realty-crm-backend/internal/models"
	"github.com/dumeirei/realty-crm-backend/internal/repository"
	commissionService "github.com/dumeirei/realty-crm-backend/internal/service/commission"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// apiResponse 测试用响应结构
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t          *testing.T
	db         *gorm.DB
	router     *gin.Engine
	jwtManager *jwt.Manager
	associate  *models.User
	other      *models.User
	admin      *models.User
}

func setupTestServer(t *testing.T, withdrawLimit ...gin.HandlerFunc) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	commissionRepo := repository.NewCommissionRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	locker := commissionService.NewMemoryLocker(5*time.Second, nil)
	opts := commissionService.Options{Logger: zap.NewNop()}

	h := NewHandler(
		commissionService.NewCommissionService(db, commissionRepo, withdrawalRepo, paymentRepo, projectRepo, locker, opts),
		commissionService.NewWithdrawService(db, commissionRepo, withdrawalRepo, locker, opts),
		commissionService.NewDashboardService(commissionRepo, withdrawalRepo),
	)

	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            "test-secret",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: 24 * time.Hour,
		Issuer:            "realty-crm-test",
	})

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.Use(middleware.UserAuth(jwtManager))
	h.RegisterRoutes(v1, withdrawLimit...)

	s := &testServer{t: t, db: db, router: r, jwtManager: jwtManager}
	s.associate = s.createUser(models.UserRoleAssociate, "associate@example.com")
	s.other = s.createUser(models.UserRoleAssociate, "other@example.com")
	s.admin = s.createUser(models.UserRoleAdmin, "admin@example.com")
	return s
}

func (s *testServer) createUser(role, email string) *models.User {
	u := &models.User{Name: role, Email: email, Role: role, PasswordHash: "hash", IsActive: true}
	require.NoError(s.t, s.db.Create(u).Error)
	return u
}

func (s *testServer) createReceivedPayment(rate, amount string) (*models.Project, *models.Payment) {
	project := &models.Project{
		Name:           "Sunrise Heights",
		Location:       "Mumbai",
		Type:           models.ProjectTypeResidential,
		Status:         models.ProjectStatusActive,
		CommissionRate: decimal.NewNullDecimal(decimal.RequireFromString(rate)),
	}
	require.NoError(s.t, s.db.Create(project).Error)
	payment := &models.Payment{
		CustomerName:  "Customer",
		CustomerPhone: "9876543210",
		ProjectID:     project.ID,
		Amount:        decimal.RequireFromString(amount),
		PaymentType:   models.PaymentTypeFinal,
		PaymentMethod: models.PaymentMethodOnline,
		Status:        models.PaymentStatusReceived,
		AssociateID:   s.associate.ID,
		CreatedBy:     s.associate.ID,
	}
	require.NoError(s.t, s.db.Create(payment).Error)
	return project, payment
}

func (s *testServer) token(u *models.User) string {
	userType := jwt.UserTypeAssociate
	if u.IsAdmin() {
		userType = jwt.UserTypeAdmin
	}
	token, _, err := s.jwtManager.GenerateAccessToken(u.ID, userType, u.Role)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path string, u *models.User, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(u))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func decodeData(t *testing.T, resp apiResponse) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data
}

// ==================== 佣金接口测试 ====================

func TestHandler_Unauthorized(t *testing.T) {
	s := setupTestServer(t)
	w, _ := s.do(http.MethodGet, "/api/v1/commissions", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_GenerateCommission(t *testing.T) {
	s := setupTestServer(t)

	t.Run("本人生成", func(t *testing.T) {
		_, payment := s.createReceivedPayment("2", "10000")
		w, resp := s.do(http.MethodPost, fmt.Sprintf("/api/v1/commissions/generate/%d", payment.ID), s.associate, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		data := decodeData(t, resp)
		assert.Equal(t, "200", data["commission_amount"])
		assert.Equal(t, "Earned", data["status"])
	})

	t.Run("重复生成", func(t *testing.T) {
		_, payment := s.createReceivedPayment("2", "10000")
		path := fmt.Sprintf("/api/v1/commissions/generate/%d", payment.ID)
		w, _ := s.do(http.MethodPost, path, s.admin, nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w, resp := s.do(http.MethodPost, path, s.associate, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 10000, resp.Code)
	})

	t.Run("非本人回款", func(t *testing.T) {
		_, payment := s.createReceivedPayment("2", "10000")
		w, resp := s.do(http.MethodPost, fmt.Sprintf("/api/v1/commissions/generate/%d", payment.ID), s.other, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, 10001, resp.Code)
	})

	t.Run("无效ID", func(t *testing.T) {
		w, _ := s.do(http.MethodPost, "/api/v1/commissions/generate/abc", s.associate, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("回款不存在", func(t *testing.T) {
		w, resp := s.do(http.MethodPost, "/api/v1/commissions/generate/999999", s.admin, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, 6000, resp.Code)
	})
}

func TestHandler_ListAndStats(t *testing.T) {
	s := setupTestServer(t)
	_, payment := s.createReceivedPayment("2", "20000")
	w, _ := s.do(http.MethodPost, fmt.Sprintf("/api/v1/commissions/generate/%d", payment.ID), s.associate, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := s.do(http.MethodGet, "/api/v1/commissions", s.associate, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "400", list[0]["commission_amount"])

	w, resp = s.do(http.MethodGet, "/api/v1/commissions/stats", s.associate, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeData(t, resp)
	assert.Equal(t, float64(1), stats["total_commissions"])
	assert.Equal(t, "400", stats["available_balance"])

	w, resp = s.do(http.MethodGet, "/api/v1/commissions", s.other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var empty []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &empty))
	assert.Empty(t, empty)
}

// ==================== 提现接口测试 ====================

func TestHandler_RequestWithdrawal(t *testing.T) {
	s := setupTestServer(t)
	_, payment := s.createReceivedPayment("2", "20000")
	w, _ := s.do(http.MethodPost, fmt.Sprintf("/api/v1/commissions/generate/%d", payment.ID), s.associate, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("申请成功", func(t *testing.T) {
		w, resp := s.do(http.MethodPost, "/api/v1/commissions/withdrawals", s.associate, map[string]interface{}{
			"amount":         300,
			"method":         "UPI",
			"accountDetails": "associate@upi",
			"notes":          "first",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, resp.Message, "2-3")
		data := decodeData(t, resp)
		assert.Equal(t, "Pending", data["status"])
		assert.Equal(t, "300", data["amount"])
		assert.Equal(t, "associate@upi", data["account_details"])
	})

	t.Run("余额不足", func(t *testing.T) {
		w, resp := s.do(http.MethodPost, "/api/v1/commissions/withdrawals", s.associate, map[string]interface{}{
			"amount":         "150",
			"method":         "Cheque",
			"accountDetails": "payee",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 3006, resp.Code)
		assert.Contains(t, resp.Message, "100.00")
	})

	t.Run("缺少字段", func(t *testing.T) {
		w, resp := s.do(http.MethodPost, "/api/v1/commissions/withdrawals", s.associate, map[string]interface{}{
			"method": "UPI",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 10103, resp.Code)
	})

	t.Run("请求体格式错误", func(t *testing.T) {
		w, _ := s.do(http.MethodPost, "/api/v1/commissions/withdrawals", s.associate, "{amount:")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("查询我的提现", func(t *testing.T) {
		w, resp := s.do(http.MethodGet, "/api/v1/commissions/withdrawals", s.associate, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []map[string]interface{}
		require.NoError(t, json.Unmarshal(resp.Data, &list))
		assert.Len(t, list, 1)
	})
}

func TestHandler_WithdrawRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := setupTestServer(t, middleware.WithdrawRateLimit(client, 1, time.Minute))
	body := map[string]interface{}{"amount": 100, "method": "UPI", "accountDetails": "a@upi"}

	w, _ := s.do(http.MethodPost, "/api/v1/commissions/withdrawals", s.associate, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/commissions/withdrawals", s.associate, body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 其他业务员不受影响
	w, _ = s.do(http.MethodPost, "/api/v1/commissions/withdrawals", s.other, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==================== 管理接口测试 ====================

func TestHandler_AdminRoutesRequireAdmin(t *testing.T) {
	s := setupTestServer(t)
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/api/v1/commissions/approve-project/1"},
		{http.MethodGet, "/api/v1/commissions/admin/withdrawals"},
		{http.MethodPut, "/api/v1/commissions/admin/withdrawals/1"},
		{http.MethodGet, "/api/v1/commissions/admin/dashboard"},
	}
	for _, p := range paths {
		w, _ := s.do(p.method, p.path, s.associate, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, p.path)
	}
}

func TestHandler_ProcessWithdrawal(t *testing.T) {
	s := setupTestServer(t)
	w := &models.Withdrawal{
		AssociateID:    s.associate.ID,
		Amount:         decimal.NewFromInt(200),
		Method:         models.WithdrawMethodBankTransfer,
		AccountDetails: "HDFC 001",
		Status:         models.WithdrawalStatusPending,
		Reference:      "WD20260101000000000001",
	}
	require.NoError(t, s.db.Create(w).Error)
	path := fmt.Sprintf("/api/v1/commissions/admin/withdrawals/%d", w.ID)

	t.Run("无效状态", func(t *testing.T) {
		rec, resp := s.do(http.MethodPut, path, s.admin, map[string]interface{}{"status": "Approved"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 10102, resp.Code)
	})

	t.Run("缺少状态", func(t *testing.T) {
		rec, _ := s.do(http.MethodPut, path, s.admin, map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("处理完成", func(t *testing.T) {
		rec, resp := s.do(http.MethodPut, path, s.admin, map[string]interface{}{"status": "Completed", "notes": "paid"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		data := decodeData(t, resp)
		assert.Equal(t, "Completed", data["status"])
		assert.Equal(t, "paid", data["notes"])
		assert.Equal(t, float64(s.admin.ID), data["processed_by"])
	})

	t.Run("重复处理", func(t *testing.T) {
		rec, resp := s.do(http.MethodPut, path, s.admin, map[string]interface{}{"status": "Failed"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, 10101, resp.Code)
	})

	t.Run("提现不存在", func(t *testing.T) {
		rec, resp := s.do(http.MethodPut, "/api/v1/commissions/admin/withdrawals/999999", s.admin, map[string]interface{}{"status": "Completed"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, 10100, resp.Code)
	})
}

func TestHandler_ListAllWithdrawals(t *testing.T) {
	s := setupTestServer(t)
	for i, status := range []string{models.WithdrawalStatusPending, models.WithdrawalStatusPending, models.WithdrawalStatusCompleted} {
		require.NoError(t, s.db.Create(&models.Withdrawal{
			AssociateID:    s.associate.ID,
			Amount:         decimal.NewFromInt(100),
			Method:         models.WithdrawMethodUPI,
			AccountDetails: "a@upi",
			Status:         status,
			Reference:      fmt.Sprintf("WD2026010100000000000%d", i),
		}).Error)
	}

	w, resp := s.do(http.MethodGet, "/api/v1/commissions/admin/withdrawals?status=Pending&page=1&limit=1", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, resp)
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, float64(2), data["pages"])
	assert.Len(t, data["list"], 1)

	w, _ = s.do(http.MethodGet, "/api/v1/commissions/admin/withdrawals?status=Unknown", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ApproveProjectAndDashboard(t *testing.T) {
	s := setupTestServer(t)
	project, _ := s.createReceivedPayment("2", "20000")
	path := fmt.Sprintf("/api/v1/commissions/approve-project/%d", project.ID)

	w, resp := s.do(http.MethodPut, path, s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, resp)
	assert.Len(t, data["commissions"], 1)

	w, resp = s.do(http.MethodPut, path, s.admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 6101, resp.Code)

	w, _ = s.do(http.MethodPut, "/api/v1/commissions/approve-project/999999", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = s.do(http.MethodGet, "/api/v1/commissions/admin/dashboard", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeData(t, resp)
	assert.Equal(t, float64(1), stats["total_commissions"])
	assert.Equal(t, "400", stats["total_commission_amount"])
}
