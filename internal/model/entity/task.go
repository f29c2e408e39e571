package entity

import (
	"time"
)

// 任务状态
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "inProgress"
	TaskStatusCompleted  = "completed"
	TaskStatusBlocked    = "blocked"
)

// ValidTaskStatus 判断任务状态是否合法
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusBlocked:
		return true
	}
	return false
}

// Task 任务实体，必属于项目，可挂到某个工单
type Task struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	Title       string     `json:"title" gorm:"size:256;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Status      string     `json:"status" gorm:"size:16;not null;default:pending"`
	Priority    string     `json:"priority" gorm:"size:16;not null;default:medium"`
	ProjectID   string     `json:"project_id" gorm:"size:32;not null;index"`
	WorkOrderID *string    `json:"work_order_id" gorm:"size:32;index"`
	DueDate     *time.Time `json:"due_date"`
	CreatedBy   string     `json:"created_by" gorm:"size:64;not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	Project   *Project   `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	WorkOrder *WorkOrder `json:"work_order,omitempty" gorm:"foreignKey:WorkOrderID"`

	// 详情视图附带的统计值，不落库
	OperationCount int64 `json:"operation_count" gorm:"-"`
}

func (Task) TableName() string {
	return "tasks"
}
