package entity

import (
	"time"
)

// 工序类型，对应车间的固定工艺词汇
const (
	OpTypeCorte       = "corte"       // 切割
	OpTypeFuros       = "furos"       // 钻孔
	OpTypeQuinagem    = "quinagem"    // 折弯
	OpTypeSoldadura   = "soldadura"   // 焊接
	OpTypeLimpeza     = "limpeza"     // 清洗
	OpTypePintura     = "pintura"     // 喷涂
	OpTypeMontagem    = "montagem"    // 装配
	OpTypeVerificacao = "verificacao" // 检验
)

// OperationTypes 工序类型全集
var OperationTypes = []string{
	OpTypeCorte, OpTypeFuros, OpTypeQuinagem, OpTypeSoldadura,
	OpTypeLimpeza, OpTypePintura, OpTypeMontagem, OpTypeVerificacao,
}

// ValidOperationType 判断工序类型是否合法
func ValidOperationType(t string) bool {
	for _, v := range OperationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// 工序状态
const (
	OpStatusPending    = "pending"
	OpStatusInProgress = "inProgress"
	OpStatusCompleted  = "completed"
	OpStatusFailed     = "failed"
)

// ValidOperationStatus 判断工序状态是否合法
func ValidOperationStatus(s string) bool {
	switch s {
	case OpStatusPending, OpStatusInProgress, OpStatusCompleted, OpStatusFailed:
		return true
	}
	return false
}

// Operation 工序，Duration 为其所有计时记录的分钟数之和
type Operation struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	Type        string     `json:"type" gorm:"size:16;not null"`
	Title       string     `json:"title" gorm:"size:256;not null"`
	Status      string     `json:"status" gorm:"size:16;not null;default:pending"`
	TaskID      *string    `json:"task_id" gorm:"size:32;index"`
	WorkOrderID string     `json:"work_order_id" gorm:"size:32;not null;index"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Duration    int        `json:"duration" gorm:"not null;default:0"` // 分钟
	PerformedBy string     `json:"performed_by" gorm:"size:64"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	Task         *Task         `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	WorkOrder    *WorkOrder    `json:"work_order,omitempty" gorm:"foreignKey:WorkOrderID"`
	TimeLogs     []TimeLog     `json:"time_logs,omitempty" gorm:"foreignKey:OperationID;constraint:OnDelete:CASCADE"`
	QualityCheck *QualityCheck `json:"quality_check,omitempty" gorm:"foreignKey:OperationID"`
}

func (Operation) TableName() string {
	return "operations"
}

// TimeLog 计时记录。end_time 为空表示计时进行中；
// 部分唯一索引保证同一 (operation, user) 至多一条进行中的记录。
type TimeLog struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	OperationID string     `json:"operation_id" gorm:"size:32;not null;index;uniqueIndex:idx_time_logs_active,where:end_time IS NULL"`
	UserID      string     `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_time_logs_active,where:end_time IS NULL"`
	StartTime   time.Time  `json:"start_time" gorm:"not null"`
	EndTime     *time.Time `json:"end_time"`
	Duration    int        `json:"duration" gorm:"not null;default:0"` // 分钟，向下取整
	Notes       string     `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`

	// 关联
	Operation *Operation `json:"operation,omitempty" gorm:"foreignKey:OperationID"`
}

func (TimeLog) TableName() string {
	return "time_logs"
}
