package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"github.com/fabrimetal/oficina/internal/repository"
	"github.com/google/uuid"
)

// ProjectService 项目服务
type ProjectService struct {
	repo *repository.ProjectRepository
}

// NewProjectService 创建项目服务
func NewProjectService(repo *repository.ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo}
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// ProjectListResult 项目列表结果
type ProjectListResult struct {
	Items      []entity.Project `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// List 获取项目列表
func (s *ProjectService) List(ctx context.Context, orgID string, page, pageSize int, filters map[string]interface{}) (*ProjectListResult, error) {
	projects, total, err := s.repo.List(ctx, orgID, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &ProjectListResult{
		Items:      projects,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get 获取项目详情
func (s *ProjectService) Get(ctx context.Context, orgID, id string) (*entity.Project, error) {
	project, err := s.repo.FindDetail(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	return project, nil
}

// Create 创建项目
func (s *ProjectService) Create(ctx context.Context, orgID, userID string, req *CreateProjectRequest) (*entity.Project, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrValidation)
	}
	status := req.Status
	if status == "" {
		status = entity.ProjectStatusActive
	}
	if !entity.ValidProjectStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}

	now := time.Now()
	project := &entity.Project{
		ID:             uuid.New().String()[:32],
		Name:           req.Name,
		Description:    req.Description,
		Status:         status,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		OrganizationID: orgID,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// Update 更新项目
func (s *ProjectService) Update(ctx context.Context, orgID, id string, req *UpdateProjectRequest) (*entity.Project, error) {
	project, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Status != "" {
		if !entity.ValidProjectStatus(req.Status) {
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, req.Status)
		}
		project.Status = req.Status
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate
	}
	project.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// Delete 删除项目，级联删除其下全部工单与任务
func (s *ProjectService) Delete(ctx context.Context, orgID, id string) error {
	if _, err := s.repo.FindByID(ctx, orgID, id); err != nil {
		return fmt.Errorf("find project: %w", err)
	}
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
