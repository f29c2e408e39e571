package entity

import (
	"time"
)

// 成员角色
const (
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"
)

// Organization 组织（租户）
type Organization struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Name        string    `json:"name" gorm:"size:128;not null"`
	Slug        string    `json:"slug" gorm:"size:64;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联
	Members  []UserOrganization `json:"members,omitempty" gorm:"foreignKey:OrganizationID"`
	Projects []Project          `json:"projects,omitempty" gorm:"foreignKey:OrganizationID"`
}

func (Organization) TableName() string {
	return "organizations"
}

// UserOrganization 用户与组织的关联。user_id 上的唯一索引保证
// 一个用户至多属于一个组织，并让并发的首次请求只有一个能建组织。
type UserOrganization struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	UserID         string    `json:"user_id" gorm:"size:64;not null;uniqueIndex"`
	OrganizationID string    `json:"organization_id" gorm:"size:32;not null;index"`
	Role           string    `json:"role" gorm:"size:16;not null;default:admin"`
	CreatedAt      time.Time `json:"created_at"`

	// 关联
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

func (UserOrganization) TableName() string {
	return "user_organizations"
}
