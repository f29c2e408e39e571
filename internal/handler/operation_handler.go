package handler

import (
	"github.com/fabrimetal/oficina/internal/service"
	"github.com/gin-gonic/gin"
)

// OperationHandler 工序处理器
type OperationHandler struct {
	svc *service.OperationService
}

// NewOperationHandler 创建工序处理器
func NewOperationHandler(svc *service.OperationService) *OperationHandler {
	return &OperationHandler{svc: svc}
}

// List 获取工序列表
func (h *OperationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	filters := map[string]interface{}{
		"status":        c.Query("status"),
		"type":          c.Query("type"),
		"work_order_id": c.Query("workOrderId"),
		"task_id":       c.Query("taskId"),
	}

	result, err := h.svc.List(c.Request.Context(), GetOrgID(c), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// Get 获取工序详情，含计时记录与质检结果
func (h *OperationHandler) Get(c *gin.Context) {
	op, err := h.svc.Get(c.Request.Context(), GetOrgID(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, op)
}

// Create 创建工序
func (h *OperationHandler) Create(c *gin.Context) {
	var req service.CreateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	op, err := h.svc.Create(c.Request.Context(), GetOrgID(c), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, op)
}

// Update 更新工序
func (h *OperationHandler) Update(c *gin.Context) {
	var req service.UpdateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	op, err := h.svc.Update(c.Request.Context(), GetOrgID(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, op)
}

// Delete 删除工序
func (h *OperationHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetOrgID(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}
