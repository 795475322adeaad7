// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/realty-crm-backend/internal/models"
)

// ProjectRepository 项目仓储
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository 创建项目仓储
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// GetByID 根据 ID 获取项目
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// MarkCompleted 将未完成的项目置为已完成
// 返回受影响行数，0 表示项目不存在或已完成
func (r *ProjectRepository) MarkCompleted(ctx context.Context, tx *gorm.DB, id, adminID int64, at time.Time) (int64, error) {
	result := conn(ctx, r.db, tx).
		Model(&models.Project{}).
		Where("id = ? AND status <> ?", id, models.ProjectStatusCompleted).
		Updates(map[string]interface{}{
			"status":      models.ProjectStatusCompleted,
			"approved_by": adminID,
			"approved_at": at,
			"updated_at":  at,
		})
	return result.RowsAffected, result.Error
}
