package entity

import (
	"time"
)

// 项目状态
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusOnHold    = "onHold"
	ProjectStatusCancelled = "cancelled"
)

// ValidProjectStatus 判断项目状态是否合法
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusOnHold, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project 项目实体
type Project struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	Name           string     `json:"name" gorm:"size:128;not null"`
	Description    string     `json:"description" gorm:"type:text"`
	Status         string     `json:"status" gorm:"size:16;not null;default:active"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	OrganizationID string     `json:"organization_id" gorm:"size:32;not null;index"`
	CreatedBy      string     `json:"created_by" gorm:"size:64;not null"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// 关联，删除项目时级联删除工单与任务
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	WorkOrders   []WorkOrder   `json:"work_orders,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Tasks        []Task        `json:"tasks,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

func (Project) TableName() string {
	return "projects"
}
