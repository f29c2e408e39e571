package repository

import (
	"context"
	"errors"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"gorm.io/gorm"
)

// OperationRepository 工序与计时记录仓库
type OperationRepository struct {
	db *gorm.DB
}

// NewOperationRepository 创建工序仓库
func NewOperationRepository(db *gorm.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

// FindByID 在组织范围内根据ID查找工序
func (r *OperationRepository) FindByID(ctx context.Context, orgID, id string) (*entity.Operation, error) {
	var op entity.Operation
	err := r.db.WithContext(ctx).
		Joins("JOIN work_orders ON work_orders.id = operations.work_order_id").
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("operations.id = ? AND projects.organization_id = ?", id, orgID).
		First(&op).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &op, nil
}

// FindDetail 查找工序并带出计时记录与质检
func (r *OperationRepository) FindDetail(ctx context.Context, orgID, id string) (*entity.Operation, error) {
	var op entity.Operation
	err := r.db.WithContext(ctx).
		Preload("Task").
		Preload("WorkOrder").
		Preload("TimeLogs", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time DESC")
		}).
		Preload("QualityCheck").
		Joins("JOIN work_orders ON work_orders.id = operations.work_order_id").
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("operations.id = ? AND projects.organization_id = ?", id, orgID).
		First(&op).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &op, nil
}

// Create 创建工序
func (r *OperationRepository) Create(ctx context.Context, op *entity.Operation) error {
	return r.db.WithContext(ctx).Create(op).Error
}

// Update 更新工序
func (r *OperationRepository) Update(ctx context.Context, op *entity.Operation) error {
	return r.db.WithContext(ctx).Save(op).Error
}

// Delete 删除工序及其计时记录、质检数据
func (r *OperationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("operation_id = ?", id).Delete(&entity.TimeLog{}).Error; err != nil {
			return err
		}
		qcIDs := tx.Model(&entity.QualityCheck{}).Select("id").Where("operation_id = ?", id)
		if err := tx.Where("quality_check_id IN (?)", qcIDs).Delete(&entity.QualityImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("operation_id = ?", id).Delete(&entity.QualityCheck{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Operation{}).Error
	})
}

// List 获取组织内的工序列表
func (r *OperationRepository) List(ctx context.Context, orgID string, page, pageSize int, filters map[string]interface{}) ([]entity.Operation, int64, error) {
	var ops []entity.Operation
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Operation{}).
		Joins("JOIN work_orders ON work_orders.id = operations.work_order_id").
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("projects.organization_id = ?", orgID)

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("operations.status = ?", status)
	}
	if opType, ok := filters["type"].(string); ok && opType != "" {
		query = query.Where("operations.type = ?", opType)
	}
	if workOrderID, ok := filters["work_order_id"].(string); ok && workOrderID != "" {
		query = query.Where("operations.work_order_id = ?", workOrderID)
	}
	if taskID, ok := filters["task_id"].(string); ok && taskID != "" {
		query = query.Where("operations.task_id = ?", taskID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("WorkOrder").
		Preload("Task").
		Preload("TimeLogs").
		Preload("QualityCheck").
		Order("operations.created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&ops).Error

	return ops, total, err
}

// FindTimeLog 根据ID查找计时记录
func (r *OperationRepository) FindTimeLog(ctx context.Context, id string) (*entity.TimeLog, error) {
	var log entity.TimeLog
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// ListTimeLogs 获取组织内的计时记录列表
func (r *OperationRepository) ListTimeLogs(ctx context.Context, orgID string, filters map[string]interface{}) ([]entity.TimeLog, error) {
	query := r.db.WithContext(ctx).Model(&entity.TimeLog{}).
		Joins("JOIN operations ON operations.id = time_logs.operation_id").
		Joins("JOIN work_orders ON work_orders.id = operations.work_order_id").
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("projects.organization_id = ?", orgID)

	if operationID, ok := filters["operation_id"].(string); ok && operationID != "" {
		query = query.Where("time_logs.operation_id = ?", operationID)
	}
	if userID, ok := filters["user_id"].(string); ok && userID != "" {
		query = query.Where("time_logs.user_id = ?", userID)
	}
	if active, ok := filters["active"].(bool); ok && active {
		query = query.Where("time_logs.end_time IS NULL")
	}

	var logs []entity.TimeLog
	err := query.
		Preload("Operation").
		Preload("Operation.Task").
		Preload("Operation.WorkOrder").
		Order("time_logs.start_time DESC").
		Find(&logs).Error
	return logs, err
}

// HasActiveTimer 判断 (operation, user) 是否已有进行中的计时
func (r *OperationRepository) HasActiveTimer(ctx context.Context, operationID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.TimeLog{}).
		Where("operation_id = ? AND user_id = ? AND end_time IS NULL", operationID, userID).
		Count(&n).Error
	return n > 0, err
}

// CountActiveTimers 统计组织内进行中的计时数量
func (r *OperationRepository) CountActiveTimers(ctx context.Context, orgID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.TimeLog{}).
		Joins("JOIN operations ON operations.id = time_logs.operation_id").
		Joins("JOIN work_orders ON work_orders.id = operations.work_order_id").
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("projects.organization_id = ? AND time_logs.end_time IS NULL", orgID).
		Count(&n).Error
	return n, err
}
