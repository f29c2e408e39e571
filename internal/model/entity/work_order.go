package entity

import (
	"time"
)

// 工单类型
const (
	WOTypeAssembly = "assembly"
	WOTypePart     = "part"
	WOTypeService  = "service"
)

// 工单状态
const (
	WOStatusPending    = "pending"
	WOStatusInProgress = "inProgress"
	WOStatusCompleted  = "completed"
	WOStatusCancelled  = "cancelled"
)

// 优先级
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidWorkOrderType 判断工单类型是否合法
func ValidWorkOrderType(t string) bool {
	switch t {
	case WOTypeAssembly, WOTypePart, WOTypeService:
		return true
	}
	return false
}

// ValidWorkOrderStatus 判断工单状态是否合法
func ValidWorkOrderStatus(s string) bool {
	switch s {
	case WOStatusPending, WOStatusInProgress, WOStatusCompleted, WOStatusCancelled:
		return true
	}
	return false
}

// ValidPriority 判断优先级是否合法
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// 工单状态迁移表：completed / cancelled 为终态
var woTransitions = map[string][]string{
	WOStatusPending:    {WOStatusInProgress, WOStatusCancelled},
	WOStatusInProgress: {WOStatusCompleted, WOStatusCancelled},
	WOStatusCompleted:  {},
	WOStatusCancelled:  {},
}

// CanTransitionWorkOrder 校验工单状态迁移是否允许，状态不变视为允许
func CanTransitionWorkOrder(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range woTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// WorkOrder 工单，parent_id 自引用构成装配树
type WorkOrder struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	Code        string     `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Title       string     `json:"title" gorm:"size:256;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Type        string     `json:"type" gorm:"size:16;not null"`
	Status      string     `json:"status" gorm:"size:16;not null;default:pending"`
	Priority    string     `json:"priority" gorm:"size:16;not null;default:medium"`
	ProjectID   string     `json:"project_id" gorm:"size:32;not null;index"`
	ParentID    *string    `json:"parent_id" gorm:"size:32;index"`
	DueDate     *time.Time `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedBy   string     `json:"created_by" gorm:"size:64;not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	Project    *Project    `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Parent     *WorkOrder  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children   []WorkOrder `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	Tasks      []Task      `json:"tasks,omitempty" gorm:"foreignKey:WorkOrderID"`
	Operations []Operation `json:"operations,omitempty" gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`

	// 列表视图附带的统计值，不落库
	ChildCount     int64 `json:"child_count" gorm:"-"`
	TaskCount      int64 `json:"task_count" gorm:"-"`
	OperationCount int64 `json:"operation_count" gorm:"-"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

// WorkOrderCounter 工单编码的年度计数器，避免 count-then-insert 竞态
type WorkOrderCounter struct {
	Year int `gorm:"primaryKey"`
	Seq  int `gorm:"not null;default:0"`
}

func (WorkOrderCounter) TableName() string {
	return "work_order_counters"
}
