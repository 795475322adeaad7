// Package main 开发环境种子数据
// 创建示例管理员、业务员、项目与回款，并输出可直接使用的访问令牌
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/realty-crm-backend/internal/common/config"
	"github.com/dumeirei/realty-crm-backend/internal/common/crypto"
	"github.com/dumeirei/realty-crm-backend/internal/common/database"
	"github.com/dumeirei/realty-crm-backend/internal/common/jwt"
	"github.com/dumeirei/realty-crm-backend/internal/common/logger"
	"github.com/dumeirei/realty-crm-backend/internal/models"
	"github.com/dumeirei/realty-crm-backend/internal/repository"
)

const defaultPassword = "password123"

type seedUser struct {
	name  string
	email string
	phone string
	role  string
}

var seedUsers = []seedUser{
	{name: "Admin User", email: "admin@realty.example", phone: "9000000001", role: models.UserRoleAdmin},
	{name: "Rahul Sharma", email: "rahul@realty.example", phone: "9000000002", role: models.UserRoleAssociate},
	{name: "Priya Patel", email: "priya@realty.example", phone: "9000000003", role: models.UserRoleAssociate},
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Named("seed")

	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	ctx := context.Background()
	users, err := seed(ctx, db, cfg.Crypto.BcryptCost, log)
	if err != nil {
		log.Fatal("Seed failed", zap.Error(err))
	}

	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})
	for _, u := range users {
		pair, err := jwtManager.GenerateTokenPair(u.ID, u.Role, u.Role)
		if err != nil {
			log.Fatal("Generate token failed", zap.Error(err))
		}
		fmt.Printf("%-10s %-24s id=%d\n  %s\n", u.Role, u.Email, u.ID, pair.AccessToken)
	}
}

// seed 写入示例数据，已存在的用户不会重复创建
func seed(ctx context.Context, db *gorm.DB, bcryptCost int, log *zap.Logger) ([]*models.User, error) {
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	hash, err := crypto.HashPassword(defaultPassword, bcryptCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		u, err := userRepo.GetByEmail(ctx, su.email)
		if err == nil {
			users = append(users, u)
			continue
		}
		if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		u = &models.User{
			Name:         su.name,
			Email:        su.email,
			Phone:        su.phone,
			Role:         su.role,
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := userRepo.Create(ctx, u); err != nil {
			return nil, err
		}
		log.Info("user created", zap.String("email", u.Email), zap.String("role", u.Role))
		users = append(users, u)
	}

	admin := users[0]
	project := &models.Project{
		Name:           "Skyline Residency",
		Description:    "3 BHK premium apartments",
		Location:       "Whitefield, Bengaluru",
		Type:           models.ProjectTypeResidential,
		Status:         models.ProjectStatusActive,
		CommissionRate: decimal.NewNullDecimal(decimal.NewFromInt(2)),
		CreatedBy:      admin.ID,
	}
	if err := projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	log.Info("project created", logger.ProjectID(project.ID))

	now := time.Now()
	payments := []struct {
		associate *models.User
		amount    string
		status    string
		kind      string
	}{
		{users[1], "20000", models.PaymentStatusReceived, models.PaymentTypeBooking},
		{users[1], "150000", models.PaymentStatusReceived, models.PaymentTypeInstallment},
		{users[2], "50000", models.PaymentStatusReceived, models.PaymentTypeBooking},
		{users[2], "75000", models.PaymentStatusPending, models.PaymentTypeInstallment},
	}
	for i, p := range payments {
		payment := &models.Payment{
			CustomerName:  fmt.Sprintf("Customer %d", i+1),
			CustomerPhone: fmt.Sprintf("98765432%02d", i),
			ProjectID:     project.ID,
			Amount:        decimal.RequireFromString(p.amount),
			PaymentType:   p.kind,
			PaymentMethod: models.PaymentMethodBankTransfer,
			Status:        p.status,
			AssociateID:   p.associate.ID,
			CreatedBy:     admin.ID,
		}
		if p.status == models.PaymentStatusReceived {
			received := now
			payment.ReceivedDate = &received
		}
		if err := paymentRepo.Create(ctx, payment); err != nil {
			return nil, err
		}
		log.Info("payment created", logger.PaymentID(payment.ID), logger.AssociateID(p.associate.ID), zap.String("status", p.status))
	}

	return users, nil
}
