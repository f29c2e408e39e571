package repository

import (
	"context"
	"errors"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"gorm.io/gorm"
)

// QualityRepository 质检仓库
type QualityRepository struct {
	db *gorm.DB
}

// NewQualityRepository 创建质检仓库
func NewQualityRepository(db *gorm.DB) *QualityRepository {
	return &QualityRepository{db: db}
}

// FindByID 在组织范围内根据ID查找质检记录
func (r *QualityRepository) FindByID(ctx context.Context, orgID, id string) (*entity.QualityCheck, error) {
	var check entity.QualityCheck
	err := r.db.WithContext(ctx).
		Preload("Operation").
		Preload("Images").
		Joins("JOIN operations ON operations.id = quality_checks.operation_id").
		Joins("JOIN work_orders ON work_orders.id = operations.work_order_id").
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("quality_checks.id = ? AND projects.organization_id = ?", id, orgID).
		First(&check).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &check, nil
}

// List 获取组织内的质检列表，附带工序及其任务/工单、图片数
func (r *QualityRepository) List(ctx context.Context, orgID string, page, pageSize int, filters map[string]interface{}) ([]entity.QualityCheck, int64, error) {
	var checks []entity.QualityCheck
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.QualityCheck{}).
		Joins("JOIN operations ON operations.id = quality_checks.operation_id").
		Joins("JOIN work_orders ON work_orders.id = operations.work_order_id").
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("projects.organization_id = ?", orgID)

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("quality_checks.status = ?", status)
	}
	if checkType, ok := filters["check_type"].(string); ok && checkType != "" {
		query = query.Where("quality_checks.check_type = ?", checkType)
	}
	if operationID, ok := filters["operation_id"].(string); ok && operationID != "" {
		query = query.Where("quality_checks.operation_id = ?", operationID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Operation").
		Preload("Operation.Task").
		Preload("Operation.WorkOrder").
		Order("quality_checks.created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&checks).Error
	if err != nil {
		return nil, 0, err
	}

	for i := range checks {
		if err := r.db.WithContext(ctx).Model(&entity.QualityImage{}).
			Where("quality_check_id = ?", checks[i].ID).
			Count(&checks[i].ImageCount).Error; err != nil {
			return nil, 0, err
		}
	}
	return checks, total, nil
}

// AddImage 追加质检图片
func (r *QualityRepository) AddImage(ctx context.Context, img *entity.QualityImage) error {
	return r.db.WithContext(ctx).Create(img).Error
}
