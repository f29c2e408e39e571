package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Organization *OrganizationRepository
	Project      *ProjectRepository
	WorkOrder    *WorkOrderRepository
	Task         *TaskRepository
	Operation    *OperationRepository
	Quality      *QualityRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Organization: NewOrganizationRepository(db),
		Project:      NewProjectRepository(db),
		WorkOrder:    NewWorkOrderRepository(db),
		Task:         NewTaskRepository(db),
		Operation:    NewOperationRepository(db),
		Quality:      NewQualityRepository(db),
	}
}
