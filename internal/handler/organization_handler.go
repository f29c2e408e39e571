package handler

import (
	"github.com/fabrimetal/oficina/internal/service"
	"github.com/gin-gonic/gin"
)

// OrganizationHandler 组织处理器
type OrganizationHandler struct {
	svc *service.OrganizationService
}

// NewOrganizationHandler 创建组织处理器
func NewOrganizationHandler(svc *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{svc: svc}
}

// Get 获取当前用户所属组织
func (h *OrganizationHandler) Get(c *gin.Context) {
	org, err := h.svc.Get(c.Request.Context(), GetOrgID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, org)
}

// Update 更新组织信息，改名时同步更新slug
func (h *OrganizationHandler) Update(c *gin.Context) {
	var req service.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	org, err := h.svc.Update(c.Request.Context(), GetOrgID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, org)
}
