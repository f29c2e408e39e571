package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"github.com/fabrimetal/oficina/internal/repository"
	"github.com/google/uuid"
)

// TaskService 任务服务
type TaskService struct {
	repo          *repository.TaskRepository
	projectRepo   *repository.ProjectRepository
	workOrderRepo *repository.WorkOrderRepository
}

// NewTaskService 创建任务服务
func NewTaskService(repo *repository.TaskRepository, projectRepo *repository.ProjectRepository, workOrderRepo *repository.WorkOrderRepository) *TaskService {
	return &TaskService{repo: repo, projectRepo: projectRepo, workOrderRepo: workOrderRepo}
}

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	ProjectID   string     `json:"project_id"`
	WorkOrderID *string    `json:"work_order_id"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskRequest 更新任务请求，零值字段不变
type UpdateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskListResult 任务列表结果
type TaskListResult struct {
	Items      []entity.Task `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// List 获取任务列表
func (s *TaskService) List(ctx context.Context, orgID string, page, pageSize int, filters map[string]interface{}) (*TaskListResult, error) {
	tasks, total, err := s.repo.List(ctx, orgID, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &TaskListResult{
		Items:      tasks,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get 获取任务详情
func (s *TaskService) Get(ctx context.Context, orgID, id string) (*entity.Task, error) {
	task, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

// Create 创建任务
func (s *TaskService) Create(ctx context.Context, orgID, userID string, req *CreateTaskRequest) (*entity.Task, error) {
	if req.Title == "" || req.ProjectID == "" {
		return nil, fmt.Errorf("%w: title and project_id are required", ErrValidation)
	}
	status := req.Status
	if status == "" {
		status = entity.TaskStatusPending
	}
	if !entity.ValidTaskStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}
	priority := req.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}
	if !entity.ValidPriority(priority) {
		return nil, fmt.Errorf("%w: invalid priority %q", ErrValidation, priority)
	}

	if _, err := s.projectRepo.FindByID(ctx, orgID, req.ProjectID); err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	if req.WorkOrderID != nil && *req.WorkOrderID != "" {
		wo, err := s.workOrderRepo.FindByID(ctx, orgID, *req.WorkOrderID)
		if err != nil {
			return nil, fmt.Errorf("find work order: %w", err)
		}
		if wo.ProjectID != req.ProjectID {
			return nil, fmt.Errorf("%w: work order belongs to a different project", ErrValidation)
		}
	} else {
		req.WorkOrderID = nil
	}

	now := time.Now()
	task := &entity.Task{
		ID:          uuid.New().String()[:32],
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		ProjectID:   req.ProjectID,
		WorkOrderID: req.WorkOrderID,
		DueDate:     req.DueDate,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Update 更新任务
func (s *TaskService) Update(ctx context.Context, orgID, id string, req *UpdateTaskRequest) (*entity.Task, error) {
	task, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Status != "" {
		if !entity.ValidTaskStatus(req.Status) {
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, req.Status)
		}
		task.Status = req.Status
	}
	if req.Priority != "" {
		if !entity.ValidPriority(req.Priority) {
			return nil, fmt.Errorf("%w: invalid priority %q", ErrValidation, req.Priority)
		}
		task.Priority = req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	task.UpdatedAt = time.Now()

	// Save 会连带保存预加载的关联，清掉避免意外写入
	task.Project = nil
	task.WorkOrder = nil

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// Delete 删除任务
func (s *TaskService) Delete(ctx context.Context, orgID, id string) error {
	task, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return fmt.Errorf("find task: %w", err)
	}
	if err := s.repo.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
