package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"github.com/fabrimetal/oficina/internal/repository"
	"github.com/google/uuid"
)

// WorkOrderService 工单服务
type WorkOrderService struct {
	repo        *repository.WorkOrderRepository
	projectRepo *repository.ProjectRepository
}

// NewWorkOrderService 创建工单服务
func NewWorkOrderService(repo *repository.WorkOrderRepository, projectRepo *repository.ProjectRepository) *WorkOrderService {
	return &WorkOrderService{repo: repo, projectRepo: projectRepo}
}

// CreateWorkOrderRequest 创建工单请求
type CreateWorkOrderRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	ProjectID   string     `json:"project_id"`
	ParentID    *string    `json:"parent_id"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateWorkOrderRequest 更新工单请求，零值字段不变
type UpdateWorkOrderRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	ParentID    *string    `json:"parent_id"`
	DueDate     *time.Time `json:"due_date"`
	Detach      bool       `json:"detach"` // 置true时解除父工单
}

// WorkOrderListResult 工单列表结果
type WorkOrderListResult struct {
	Items      []entity.WorkOrder `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// List 获取工单列表
func (s *WorkOrderService) List(ctx context.Context, orgID string, page, pageSize int, filters map[string]interface{}) (*WorkOrderListResult, error) {
	orders, total, err := s.repo.List(ctx, orgID, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &WorkOrderListResult{
		Items:      orders,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get 获取工单详情，含项目、父子工单、任务与工序
func (s *WorkOrderService) Get(ctx context.Context, orgID, id string) (*entity.WorkOrder, error) {
	wo, err := s.repo.FindDetail(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("find work order: %w", err)
	}
	return wo, nil
}

// Create 创建工单并分配编码
func (s *WorkOrderService) Create(ctx context.Context, orgID, userID string, req *CreateWorkOrderRequest) (*entity.WorkOrder, error) {
	if req.Title == "" || req.ProjectID == "" || req.Type == "" {
		return nil, fmt.Errorf("%w: title, project_id and type are required", ErrValidation)
	}
	if !entity.ValidWorkOrderType(req.Type) {
		return nil, fmt.Errorf("%w: invalid type %q", ErrValidation, req.Type)
	}
	priority := req.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}
	if !entity.ValidPriority(priority) {
		return nil, fmt.Errorf("%w: invalid priority %q", ErrValidation, priority)
	}

	// 项目必须属于调用方组织
	if _, err := s.projectRepo.FindByID(ctx, orgID, req.ProjectID); err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	if req.ParentID != nil && *req.ParentID != "" {
		if _, err := s.repo.FindByID(ctx, orgID, *req.ParentID); err != nil {
			return nil, fmt.Errorf("find parent work order: %w", err)
		}
	} else {
		req.ParentID = nil
	}

	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	now := time.Now()
	wo := &entity.WorkOrder{
		ID:          uuid.New().String()[:32],
		Code:        code,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Status:      entity.WOStatusPending,
		Priority:    priority,
		ProjectID:   req.ProjectID,
		ParentID:    req.ParentID,
		DueDate:     req.DueDate,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, wo); err != nil {
		return nil, fmt.Errorf("create work order: %w", err)
	}
	return wo, nil
}

// Update 更新工单。状态变更按迁移表校验，置为 completed 时打完成时间戳。
func (s *WorkOrderService) Update(ctx context.Context, orgID, id string, req *UpdateWorkOrderRequest) (*entity.WorkOrder, error) {
	wo, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("find work order: %w", err)
	}

	if req.Title != "" {
		wo.Title = req.Title
	}
	if req.Description != "" {
		wo.Description = req.Description
	}
	if req.Priority != "" {
		if !entity.ValidPriority(req.Priority) {
			return nil, fmt.Errorf("%w: invalid priority %q", ErrValidation, req.Priority)
		}
		wo.Priority = req.Priority
	}
	if req.DueDate != nil {
		wo.DueDate = req.DueDate
	}
	if req.Detach {
		wo.ParentID = nil
	} else if req.ParentID != nil && *req.ParentID != "" {
		if *req.ParentID == wo.ID {
			return nil, fmt.Errorf("%w: work order cannot be its own parent", ErrValidation)
		}
		if _, err := s.repo.FindByID(ctx, orgID, *req.ParentID); err != nil {
			return nil, fmt.Errorf("find parent work order: %w", err)
		}
		wo.ParentID = req.ParentID
	}
	if req.Status != "" && req.Status != wo.Status {
		if !entity.ValidWorkOrderStatus(req.Status) {
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, req.Status)
		}
		if !entity.CanTransitionWorkOrder(wo.Status, req.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, wo.Status, req.Status)
		}
		wo.Status = req.Status
		if req.Status == entity.WOStatusCompleted {
			now := time.Now()
			wo.CompletedAt = &now
		}
	}
	wo.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, wo); err != nil {
		return nil, fmt.Errorf("update work order: %w", err)
	}
	return wo, nil
}

// Delete 删除工单，存在子工单时拒绝
func (s *WorkOrderService) Delete(ctx context.Context, orgID, id string) error {
	wo, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return fmt.Errorf("find work order: %w", err)
	}

	children, err := s.repo.CountChildren(ctx, wo.ID)
	if err != nil {
		return fmt.Errorf("count children: %w", err)
	}
	if children > 0 {
		return ErrHasChildren
	}

	if err := s.repo.Delete(ctx, wo.ID); err != nil {
		return fmt.Errorf("delete work order: %w", err)
	}
	return nil
}
