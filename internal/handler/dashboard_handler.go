package handler

import (
	"github.com/fabrimetal/oficina/internal/service"
	"github.com/gin-gonic/gin"
)

// DashboardHandler 看板处理器
type DashboardHandler struct {
	svc *service.DashboardService
}

// NewDashboardHandler 创建看板处理器
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Stats 获取当前组织的统计汇总
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), GetOrgID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, stats)
}
