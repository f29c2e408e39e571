package handler

import (
	"github.com/fabrimetal/oficina/internal/service"
	"github.com/gin-gonic/gin"
)

// QualityHandler 质检处理器
type QualityHandler struct {
	svc *service.QualityService
}

// NewQualityHandler 创建质检处理器
func NewQualityHandler(svc *service.QualityService) *QualityHandler {
	return &QualityHandler{svc: svc}
}

// List 获取质检记录列表
func (h *QualityHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	filters := map[string]interface{}{
		"status":       c.Query("status"),
		"check_type":   c.Query("checkType"),
		"operation_id": c.Query("operationId"),
	}

	result, err := h.svc.List(c.Request.Context(), GetOrgID(c), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// Get 获取质检记录详情
func (h *QualityHandler) Get(c *gin.Context) {
	check, err := h.svc.Get(c.Request.Context(), GetOrgID(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, check)
}

// Create 创建质检记录，判定不合格时同步将工序置为失败
func (h *QualityHandler) Create(c *gin.Context) {
	var req service.CreateQualityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	check, err := h.svc.Create(c.Request.Context(), GetOrgID(c), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, check)
}
