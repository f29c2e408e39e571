package repository

import (
	"context"
	"errors"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"gorm.io/gorm"
)

// ProjectRepository 项目仓库
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository 创建项目仓库
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindByID 在组织范围内根据ID查找项目
func (r *ProjectRepository) FindByID(ctx context.Context, orgID, id string) (*entity.Project, error) {
	var project entity.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

// FindDetail 查找项目并带出工单与任务
func (r *ProjectRepository) FindDetail(ctx context.Context, orgID, id string) (*entity.Project, error) {
	var project entity.Project
	err := r.db.WithContext(ctx).
		Preload("WorkOrders", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// Update 更新项目
func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

// Delete 删除项目，级联删除其工单、任务及下属工序数据
func (r *ProjectRepository) Delete(ctx context.Context, orgID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		woIDs := func() *gorm.DB {
			return tx.Model(&entity.WorkOrder{}).Select("id").Where("project_id = ?", id)
		}
		opIDs := func() *gorm.DB {
			return tx.Model(&entity.Operation{}).Select("id").Where("work_order_id IN (?)", woIDs())
		}
		if err := tx.Where("operation_id IN (?)", opIDs()).Delete(&entity.TimeLog{}).Error; err != nil {
			return err
		}
		qcIDs := tx.Model(&entity.QualityCheck{}).Select("id").Where("operation_id IN (?)", opIDs())
		if err := tx.Where("quality_check_id IN (?)", qcIDs).Delete(&entity.QualityImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("operation_id IN (?)", opIDs()).Delete(&entity.QualityCheck{}).Error; err != nil {
			return err
		}
		if err := tx.Where("work_order_id IN (?)", woIDs()).Delete(&entity.Operation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&entity.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&entity.WorkOrder{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND organization_id = ?", id, orgID).Delete(&entity.Project{}).Error
	})
}

// List 获取组织内的项目列表
func (r *ProjectRepository) List(ctx context.Context, orgID string, page, pageSize int, filters map[string]interface{}) ([]entity.Project, int64, error) {
	var projects []entity.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Project{}).Where("organization_id = ?", orgID)

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("name ILIKE ?", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&projects).Error

	return projects, total, err
}

// CountByStatus 按状态统计组织内项目数
func (r *ProjectRepository) CountByStatus(ctx context.Context, orgID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.Project{}).
		Select("status, COUNT(*) as count").
		Where("organization_id = ?", orgID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
