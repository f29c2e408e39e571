package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"gorm.io/gorm"
)

// WorkOrderRepository 工单仓库
type WorkOrderRepository struct {
	db *gorm.DB
}

// NewWorkOrderRepository 创建工单仓库
func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

// FindByID 在组织范围内根据ID查找工单（经 projects 关联确定租户）
func (r *WorkOrderRepository) FindByID(ctx context.Context, orgID, id string) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	err := r.db.WithContext(ctx).
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("work_orders.id = ? AND projects.organization_id = ?", id, orgID).
		First(&wo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &wo, nil
}

// FindDetail 查找工单并带出项目、父工单、子工单、任务与工序
func (r *WorkOrderRepository) FindDetail(ctx context.Context, orgID, id string) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Parent").
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Operations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Operations.TimeLogs", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time DESC")
		}).
		Preload("Operations.QualityCheck").
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("work_orders.id = ? AND projects.organization_id = ?", id, orgID).
		First(&wo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := r.fillCounts(ctx, wo.Children); err != nil {
		return nil, err
	}
	for i := range wo.Tasks {
		var n int64
		if err := r.db.WithContext(ctx).Model(&entity.Operation{}).
			Where("task_id = ?", wo.Tasks[i].ID).Count(&n).Error; err != nil {
			return nil, err
		}
		wo.Tasks[i].OperationCount = n
	}
	return &wo, nil
}

// Create 创建工单
func (r *WorkOrderRepository) Create(ctx context.Context, wo *entity.WorkOrder) error {
	return r.db.WithContext(ctx).Create(wo).Error
}

// Update 更新工单
func (r *WorkOrderRepository) Update(ctx context.Context, wo *entity.WorkOrder) error {
	return r.db.WithContext(ctx).Save(wo).Error
}

// Delete 删除工单及其工序数据，调用方负责先行检查子工单
func (r *WorkOrderRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		opIDs := func() *gorm.DB {
			return tx.Model(&entity.Operation{}).Select("id").Where("work_order_id = ?", id)
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
		if err := tx.Where("work_order_id = ?", id).Delete(&entity.Operation{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.Task{}).Where("work_order_id = ?", id).
			Update("work_order_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.WorkOrder{}).Error
	})
}

// CountChildren 统计直接子工单数量
func (r *WorkOrderRepository) CountChildren(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.WorkOrder{}).
		Where("parent_id = ?", id).Count(&n).Error
	return n, err
}

// List 获取组织内的工单列表，附带子工单/任务/工序统计
func (r *WorkOrderRepository) List(ctx context.Context, orgID string, page, pageSize int, filters map[string]interface{}) ([]entity.WorkOrder, int64, error) {
	var orders []entity.WorkOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.WorkOrder{}).
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("projects.organization_id = ?", orgID)

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("work_orders.status = ?", status)
	}
	if projectID, ok := filters["project_id"].(string); ok && projectID != "" {
		query = query.Where("work_orders.project_id = ?", projectID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Project").
		Order("work_orders.created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.fillCounts(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// fillCounts 填充子工单/任务/工序统计值
func (r *WorkOrderRepository) fillCounts(ctx context.Context, orders []entity.WorkOrder) error {
	for i := range orders {
		id := orders[i].ID
		if err := r.db.WithContext(ctx).Model(&entity.WorkOrder{}).
			Where("parent_id = ?", id).Count(&orders[i].ChildCount).Error; err != nil {
			return err
		}
		if err := r.db.WithContext(ctx).Model(&entity.Task{}).
			Where("work_order_id = ?", id).Count(&orders[i].TaskCount).Error; err != nil {
			return err
		}
		if err := r.db.WithContext(ctx).Model(&entity.Operation{}).
			Where("work_order_id = ?", id).Count(&orders[i].OperationCount).Error; err != nil {
			return err
		}
	}
	return nil
}

// GenerateCode 生成工单编码 WO-<年>-<序号>。序号来自年度计数器的
// 原子自增，并发创建不会产生重号。
func (r *WorkOrderRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Year()
	var seq int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO work_order_counters (year, seq) VALUES (?, 1)
		ON CONFLICT (year) DO UPDATE SET seq = work_order_counters.seq + 1
		RETURNING seq
	`, year).Scan(&seq).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("WO-%d-%03d", year, seq), nil
}

// CountByStatus 按状态统计组织内工单数
func (r *WorkOrderRepository) CountByStatus(ctx context.Context, orgID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.WorkOrder{}).
		Select("work_orders.status, COUNT(*) as count").
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("projects.organization_id = ?", orgID).
		Group("work_orders.status").
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
