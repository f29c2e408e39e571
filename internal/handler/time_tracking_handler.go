package handler

import (
	"github.com/fabrimetal/oficina/internal/service"
	"github.com/gin-gonic/gin"
)

// TimeTrackingHandler 计时处理器
type TimeTrackingHandler struct {
	svc *service.OperationService
}

// NewTimeTrackingHandler 创建计时处理器
func NewTimeTrackingHandler(svc *service.OperationService) *TimeTrackingHandler {
	return &TimeTrackingHandler{svc: svc}
}

// StartTimerRequest 启动计时请求
type StartTimerRequest struct {
	OperationID string `json:"operation_id" binding:"required"`
	Notes       string `json:"notes"`
}

// List 获取计时记录列表，active=true 只返回进行中的记录
func (h *TimeTrackingHandler) List(c *gin.Context) {
	filters := map[string]interface{}{
		"operation_id": c.Query("operationId"),
		"user_id":      c.Query("userId"),
		"active":       c.Query("active") == "true",
	}

	logs, err := h.svc.ListTimeLogs(c.Request.Context(), GetOrgID(c), filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, logs)
}

// Start 启动计时，同一用户同一工序已有进行中计时则返回409
func (h *TimeTrackingHandler) Start(c *gin.Context) {
	var req StartTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	log, err := h.svc.StartTimer(c.Request.Context(), GetOrgID(c), GetUserID(c), req.OperationID, req.Notes)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, log)
}

// Stop 停止计时并重算工序总时长
func (h *TimeTrackingHandler) Stop(c *gin.Context) {
	log, err := h.svc.StopTimer(c.Request.Context(), GetOrgID(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, log)
}

// Delete 删除计时记录并重算工序总时长
func (h *TimeTrackingHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteTimeLog(c.Request.Context(), GetOrgID(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}
