package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"github.com/fabrimetal/oficina/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OperationService 工序与计时服务
type OperationService struct {
	repo          *repository.OperationRepository
	workOrderRepo *repository.WorkOrderRepository
	taskRepo      *repository.TaskRepository
	db            *gorm.DB // 计时与聚合需要跨表事务
}

// NewOperationService 创建工序服务
func NewOperationService(repo *repository.OperationRepository, workOrderRepo *repository.WorkOrderRepository, taskRepo *repository.TaskRepository, db *gorm.DB) *OperationService {
	return &OperationService{repo: repo, workOrderRepo: workOrderRepo, taskRepo: taskRepo, db: db}
}

// CreateOperationRequest 创建工序请求
type CreateOperationRequest struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	WorkOrderID string  `json:"work_order_id"`
	TaskID      *string `json:"task_id"`
	PerformedBy string  `json:"performed_by"`
}

// UpdateOperationRequest 更新工序请求，零值字段不变
type UpdateOperationRequest struct {
	Title       string `json:"title"`
	Status      string `json:"status"`
	PerformedBy string `json:"performed_by"`
}

// OperationListResult 工序列表结果
type OperationListResult struct {
	Items      []entity.Operation `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// List 获取工序列表
func (s *OperationService) List(ctx context.Context, orgID string, page, pageSize int, filters map[string]interface{}) (*OperationListResult, error) {
	ops, total, err := s.repo.List(ctx, orgID, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OperationListResult{
		Items:      ops,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get 获取工序详情，含计时记录与质检
func (s *OperationService) Get(ctx context.Context, orgID, id string) (*entity.Operation, error) {
	op, err := s.repo.FindDetail(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("find operation: %w", err)
	}
	return op, nil
}

// Create 创建工序
func (s *OperationService) Create(ctx context.Context, orgID, userID string, req *CreateOperationRequest) (*entity.Operation, error) {
	if req.Title == "" || req.WorkOrderID == "" || req.Type == "" {
		return nil, fmt.Errorf("%w: title, work_order_id and type are required", ErrValidation)
	}
	if !entity.ValidOperationType(req.Type) {
		return nil, fmt.Errorf("%w: invalid type %q", ErrValidation, req.Type)
	}

	if _, err := s.workOrderRepo.FindByID(ctx, orgID, req.WorkOrderID); err != nil {
		return nil, fmt.Errorf("find work order: %w", err)
	}
	if req.TaskID != nil && *req.TaskID != "" {
		if _, err := s.taskRepo.FindByID(ctx, orgID, *req.TaskID); err != nil {
			return nil, fmt.Errorf("find task: %w", err)
		}
	} else {
		req.TaskID = nil
	}

	performedBy := req.PerformedBy
	if performedBy == "" {
		performedBy = userID
	}

	now := time.Now()
	op := &entity.Operation{
		ID:          uuid.New().String()[:32],
		Type:        req.Type,
		Title:       req.Title,
		Status:      entity.OpStatusPending,
		TaskID:      req.TaskID,
		WorkOrderID: req.WorkOrderID,
		PerformedBy: performedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("create operation: %w", err)
	}
	return op, nil
}

// Update 更新工序
func (s *OperationService) Update(ctx context.Context, orgID, id string, req *UpdateOperationRequest) (*entity.Operation, error) {
	op, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("find operation: %w", err)
	}

	if req.Title != "" {
		op.Title = req.Title
	}
	if req.Status != "" {
		if !entity.ValidOperationStatus(req.Status) {
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, req.Status)
		}
		op.Status = req.Status
	}
	if req.PerformedBy != "" {
		op.PerformedBy = req.PerformedBy
	}
	op.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, op); err != nil {
		return nil, fmt.Errorf("update operation: %w", err)
	}
	return op, nil
}

// Delete 删除工序及其计时、质检数据
func (s *OperationService) Delete(ctx context.Context, orgID, id string) error {
	op, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return fmt.Errorf("find operation: %w", err)
	}
	if err := s.repo.Delete(ctx, op.ID); err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	return nil
}

// ListTimeLogs 获取计时记录列表
func (s *OperationService) ListTimeLogs(ctx context.Context, orgID string, filters map[string]interface{}) ([]entity.TimeLog, error) {
	logs, err := s.repo.ListTimeLogs(ctx, orgID, filters)
	if err != nil {
		return nil, fmt.Errorf("list time logs: %w", err)
	}
	return logs, nil
}

// StartTimer 为 (operation, user) 启动计时。整个流程在一个事务内，
// 进行中记录的部分唯一索引兜底并发下的重复启动。
func (s *OperationService) StartTimer(ctx context.Context, orgID, userID, operationID, notes string) (*entity.TimeLog, error) {
	if operationID == "" {
		return nil, fmt.Errorf("%w: operation_id is required", ErrValidation)
	}
	op, err := s.repo.FindByID(ctx, orgID, operationID)
	if err != nil {
		return nil, fmt.Errorf("find operation: %w", err)
	}

	now := time.Now()
	log := &entity.TimeLog{
		ID:          uuid.New().String()[:32],
		OperationID: op.ID,
		UserID:      userID,
		StartTime:   now,
		Notes:       notes,
		CreatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&entity.TimeLog{}).
			Where("operation_id = ? AND user_id = ? AND end_time IS NULL", op.ID, userID).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrTimerActive
		}
		if err := tx.Create(log).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTimerActive
			}
			return err
		}
		return tx.Model(&entity.Operation{}).
			Where("id = ?", op.ID).
			Updates(map[string]interface{}{
				"status":     entity.OpStatusInProgress,
				"start_time": now,
				"updated_at": now,
			}).Error
	})
	if err != nil {
		if errors.Is(err, ErrTimerActive) {
			return nil, ErrTimerActive
		}
		return nil, fmt.Errorf("start timer: %w", err)
	}
	return log, nil
}

// StopTimer 停止计时：写入时长（分钟，向下取整）并在同一事务内
// 重算工序的累计时长与结束时间。
func (s *OperationService) StopTimer(ctx context.Context, orgID, id string) (*entity.TimeLog, error) {
	var log entity.TimeLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&log).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := operationInOrg(tx, orgID, log.OperationID); err != nil {
			return err
		}
		if log.EndTime != nil {
			return ErrTimerStopped
		}

		now := time.Now()
		duration := int(now.Sub(log.StartTime) / time.Minute)
		log.EndTime = &now
		log.Duration = duration
		if err := tx.Model(&entity.TimeLog{}).
			Where("id = ?", log.ID).
			Updates(map[string]interface{}{
				"end_time": now,
				"duration": duration,
			}).Error; err != nil {
			return err
		}

		total, err := sumDurations(tx, log.OperationID)
		if err != nil {
			return err
		}
		return tx.Model(&entity.Operation{}).
			Where("id = ?", log.OperationID).
			Updates(map[string]interface{}{
				"duration":   total,
				"end_time":   now,
				"updated_at": now,
			}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrTimerStopped) {
			return nil, err
		}
		return nil, fmt.Errorf("stop timer: %w", err)
	}
	return &log, nil
}

// DeleteTimeLog 删除计时记录并重算工序累计时长，不改工序结束时间
func (s *OperationService) DeleteTimeLog(ctx context.Context, orgID, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var log entity.TimeLog
		if err := tx.Where("id = ?", id).First(&log).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := operationInOrg(tx, orgID, log.OperationID); err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&entity.TimeLog{}).Error; err != nil {
			return err
		}
		total, err := sumDurations(tx, log.OperationID)
		if err != nil {
			return err
		}
		return tx.Model(&entity.Operation{}).
			Where("id = ?", log.OperationID).
			Updates(map[string]interface{}{
				"duration":   total,
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete time log: %w", err)
	}
	return nil
}

// operationInOrg 校验工序属于调用方组织，避免跨租户操作计时记录
func operationInOrg(tx *gorm.DB, orgID, operationID string) error {
	var n int64
	err := tx.Model(&entity.Operation{}).
		Joins("JOIN work_orders ON work_orders.id = operations.work_order_id").
		Joins("JOIN projects ON projects.id = work_orders.project_id").
		Where("operations.id = ? AND projects.organization_id = ?", operationID, orgID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// sumDurations 汇总工序全部计时记录的分钟数
func sumDurations(tx *gorm.DB, operationID string) (int, error) {
	var total int
	err := tx.Model(&entity.TimeLog{}).
		Select("COALESCE(SUM(duration), 0)").
		Where("operation_id = ?", operationID).
		Scan(&total).Error
	return total, err
}
