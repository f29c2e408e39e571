package repository

import (
	"context"
	"errors"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"gorm.io/gorm"
)

// TaskRepository 任务仓库
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建任务仓库
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// FindByID 在组织范围内根据ID查找任务
func (r *TaskRepository) FindByID(ctx context.Context, orgID, id string) (*entity.Task, error) {
	var task entity.Task
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("WorkOrder").
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("tasks.id = ? AND projects.organization_id = ?", id, orgID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// Create 创建任务
func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Update 更新任务
func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// Delete 删除任务并解除工序对它的引用
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Operation{}).Where("task_id = ?", id).
			Update("task_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Task{}).Error
	})
}

// List 获取组织内的任务列表
func (r *TaskRepository) List(ctx context.Context, orgID string, page, pageSize int, filters map[string]interface{}) ([]entity.Task, int64, error) {
	var tasks []entity.Task
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Task{}).
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("projects.organization_id = ?", orgID)

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("tasks.status = ?", status)
	}
	if projectID, ok := filters["project_id"].(string); ok && projectID != "" {
		query = query.Where("tasks.project_id = ?", projectID)
	}
	if workOrderID, ok := filters["work_order_id"].(string); ok && workOrderID != "" {
		query = query.Where("tasks.work_order_id = ?", workOrderID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Project").
		Preload("WorkOrder").
		Order("tasks.created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&tasks).Error

	return tasks, total, err
}

// Count 统计组织内任务数
func (r *TaskRepository) Count(ctx context.Context, orgID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Task{}).
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("projects.organization_id = ?", orgID).
		Count(&n).Error
	return n, err
}
