package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"github.com/fabrimetal/oficina/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QualityService 质检服务
type QualityService struct {
	repo          *repository.QualityRepository
	operationRepo *repository.OperationRepository
	workOrderRepo *repository.WorkOrderRepository
	db            *gorm.DB // 不合格联动工序状态需要事务
}

// NewQualityService 创建质检服务
func NewQualityService(repo *repository.QualityRepository, operationRepo *repository.OperationRepository, workOrderRepo *repository.WorkOrderRepository, db *gorm.DB) *QualityService {
	return &QualityService{repo: repo, operationRepo: operationRepo, workOrderRepo: workOrderRepo, db: db}
}

// QualityImageInput 质检图片输入
type QualityImageInput struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// CreateQualityCheckRequest 创建质检请求
type CreateQualityCheckRequest struct {
	OperationID  string              `json:"operation_id"`
	CheckType    string              `json:"check_type"`
	Status       string              `json:"status"`
	Notes        string              `json:"notes"`
	Measurements entity.JSONB        `json:"measurements"`
	QRCode       string              `json:"qr_code"`
	Images       []QualityImageInput `json:"images"`
}

// QualityListResult 质检列表结果
type QualityListResult struct {
	Items      []entity.QualityCheck `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// List 获取质检列表
func (s *QualityService) List(ctx context.Context, orgID string, page, pageSize int, filters map[string]interface{}) (*QualityListResult, error) {
	checks, total, err := s.repo.List(ctx, orgID, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list quality checks: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &QualityListResult{
		Items:      checks,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get 获取质检详情
func (s *QualityService) Get(ctx context.Context, orgID, id string) (*entity.QualityCheck, error) {
	check, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("find quality check: %w", err)
	}
	return check, nil
}

// Create 创建质检记录。质检只增不改；创建即判 failed 时，
// 同一事务内把所属工序置为 failed。
func (s *QualityService) Create(ctx context.Context, orgID, userID string, req *CreateQualityCheckRequest) (*entity.QualityCheck, error) {
	if req.OperationID == "" || req.CheckType == "" {
		return nil, fmt.Errorf("%w: operation_id and check_type are required", ErrValidation)
	}
	if !entity.ValidCheckType(req.CheckType) {
		return nil, fmt.Errorf("%w: invalid check type %q", ErrValidation, req.CheckType)
	}
	status := req.Status
	if status == "" {
		status = entity.CheckStatusPending
	}
	if !entity.ValidCheckStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}

	op, err := s.operationRepo.FindByID(ctx, orgID, req.OperationID)
	if err != nil {
		return nil, fmt.Errorf("find operation: %w", err)
	}

	qrCode := req.QRCode
	if qrCode == "" {
		wo, err := s.workOrderRepo.FindByID(ctx, orgID, op.WorkOrderID)
		if err != nil {
			return nil, fmt.Errorf("find work order: %w", err)
		}
		qrCode = fmt.Sprintf("QR-%s-%s", wo.Code, shortID(op.ID))
	}

	now := time.Now()
	check := &entity.QualityCheck{
		ID:           uuid.New().String()[:32],
		OperationID:  op.ID,
		CheckType:    req.CheckType,
		Status:       status,
		CheckedBy:    userID,
		CheckedAt:    &now,
		Notes:        req.Notes,
		Measurements: req.Measurements,
		QRCode:       qrCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, img := range req.Images {
		if img.URL == "" {
			continue
		}
		check.Images = append(check.Images, entity.QualityImage{
			ID:             uuid.New().String()[:32],
			QualityCheckID: check.ID,
			URL:            img.URL,
			Caption:        img.Caption,
			CreatedAt:      now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(check).Error; err != nil {
			return err
		}
		if status == entity.CheckStatusFailed {
			return tx.Model(&entity.Operation{}).
				Where("id = ?", op.ID).
				Updates(map[string]interface{}{
					"status":     entity.OpStatusFailed,
					"updated_at": now,
				}).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create quality check: %w", err)
	}
	return check, nil
}

// shortID 取ID前8位用于二维码内容
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
