package service

import (
	"errors"

	"github.com/fabrimetal/oficina/internal/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 业务错误，handler 层按此映射HTTP状态
var (
	ErrNotFound          = repository.ErrNotFound
	ErrValidation        = errors.New("validation failed")
	ErrHasChildren       = errors.New("work order has children")
	ErrTimerActive       = errors.New("timer already active")
	ErrTimerStopped      = errors.New("timer already stopped")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Services 服务集合
type Services struct {
	Organization *OrganizationService
	Project      *ProjectService
	WorkOrder    *WorkOrderService
	Task         *TaskService
	Operation    *OperationService
	Quality      *QualityService
	Dashboard    *DashboardService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client) *Services {
	return &Services{
		Organization: NewOrganizationService(repos.Organization, rdb),
		Project:      NewProjectService(repos.Project),
		WorkOrder:    NewWorkOrderService(repos.WorkOrder, repos.Project),
		Task:         NewTaskService(repos.Task, repos.Project, repos.WorkOrder),
		Operation:    NewOperationService(repos.Operation, repos.WorkOrder, repos.Task, db),
		Quality:      NewQualityService(repos.Quality, repos.Operation, repos.WorkOrder, db),
		Dashboard:    NewDashboardService(repos.Project, repos.WorkOrder, repos.Task, repos.Operation, rdb),
	}
}
