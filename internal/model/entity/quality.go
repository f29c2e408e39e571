package entity

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONB 用于PostgreSQL JSONB类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// 质检类型
const (
	CheckTypeVisual      = "Visual"
	CheckTypeMeasurement = "Measurement"
	CheckTypeFunctional  = "Functional"
	CheckTypeSafety      = "Safety"
)

// ValidCheckType 判断质检类型是否合法
func ValidCheckType(t string) bool {
	switch t {
	case CheckTypeVisual, CheckTypeMeasurement, CheckTypeFunctional, CheckTypeSafety:
		return true
	}
	return false
}

// 质检状态
const (
	CheckStatusPassed  = "passed"
	CheckStatusFailed  = "failed"
	CheckStatusPending = "pending"
)

// ValidCheckStatus 判断质检状态是否合法
func ValidCheckStatus(s string) bool {
	switch s {
	case CheckStatusPassed, CheckStatusFailed, CheckStatusPending:
		return true
	}
	return false
}

// QualityCheck 质检记录，创建后不可修改；每道工序至多一条
type QualityCheck struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	OperationID  string     `json:"operation_id" gorm:"size:32;not null;uniqueIndex"`
	CheckType    string     `json:"check_type" gorm:"size:32;not null"`
	Status       string     `json:"status" gorm:"size:16;not null;default:pending"`
	CheckedBy    string     `json:"checked_by" gorm:"size:64;not null"`
	CheckedAt    *time.Time `json:"checked_at"`
	Notes        string     `json:"notes" gorm:"type:text"`
	Measurements JSONB      `json:"measurements" gorm:"type:jsonb"` // tolerance / actual
	QRCode       string     `json:"qr_code" gorm:"size:128"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 关联
	Operation *Operation     `json:"operation,omitempty" gorm:"foreignKey:OperationID"`
	Images    []QualityImage `json:"images,omitempty" gorm:"foreignKey:QualityCheckID;constraint:OnDelete:CASCADE"`

	// 列表视图附带的统计值，不落库
	ImageCount int64 `json:"image_count" gorm:"-"`
}

func (QualityCheck) TableName() string {
	return "quality_checks"
}

// QualityImage 质检图片，只存外部URL
type QualityImage struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	QualityCheckID string    `json:"quality_check_id" gorm:"size:32;not null;index"`
	URL            string    `json:"url" gorm:"size:512;not null"`
	Caption        string    `json:"caption" gorm:"size:256"`
	CreatedAt      time.Time `json:"created_at"`
}

func (QualityImage) TableName() string {
	return "quality_images"
}
