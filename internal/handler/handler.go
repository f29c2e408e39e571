package handler

import (
	"errors"
	"strconv"

	"github.com/fabrimetal/oficina/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Organization *OrganizationHandler
	Project      *ProjectHandler
	WorkOrder    *WorkOrderHandler
	Task         *TaskHandler
	Operation    *OperationHandler
	TimeTracking *TimeTrackingHandler
	Quality      *QualityHandler
	Dashboard    *DashboardHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Organization: NewOrganizationHandler(svc.Organization),
		Project:      NewProjectHandler(svc.Project),
		WorkOrder:    NewWorkOrderHandler(svc.WorkOrder),
		Task:         NewTaskHandler(svc.Task),
		Operation:    NewOperationHandler(svc.Operation),
		TimeTracking: NewTimeTrackingHandler(svc.Operation),
		Quality:      NewQualityHandler(svc.Quality),
		Dashboard:    NewDashboardHandler(svc.Dashboard),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleError 按业务错误类型映射HTTP状态。实体不存在与越租户访问
// 统一报404，避免向外泄露其他组织的数据存在性。
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrHasChildren),
		errors.Is(err, service.ErrTimerActive),
		errors.Is(err, service.ErrTimerStopped),
		errors.Is(err, service.ErrInvalidTransition):
		Conflict(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetOrgID 从上下文获取组织ID
func GetOrgID(c *gin.Context) string {
	orgID, _ := c.Get("organization_id")
	if id, ok := orgID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
