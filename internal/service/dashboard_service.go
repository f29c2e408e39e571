package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fabrimetal/oficina/internal/repository"
	"github.com/redis/go-redis/v9"
)

const statsCacheTTL = 30 * time.Second

// DashboardService 看板统计服务
type DashboardService struct {
	projectRepo   *repository.ProjectRepository
	workOrderRepo *repository.WorkOrderRepository
	taskRepo      *repository.TaskRepository
	operationRepo *repository.OperationRepository
	rdb           *redis.Client
}

// NewDashboardService 创建看板统计服务
func NewDashboardService(projectRepo *repository.ProjectRepository, workOrderRepo *repository.WorkOrderRepository, taskRepo *repository.TaskRepository, operationRepo *repository.OperationRepository, rdb *redis.Client) *DashboardService {
	return &DashboardService{
		projectRepo:   projectRepo,
		workOrderRepo: workOrderRepo,
		taskRepo:      taskRepo,
		operationRepo: operationRepo,
		rdb:           rdb,
	}
}

// DashboardStats 看板统计数据
type DashboardStats struct {
	Projects     map[string]int64 `json:"projects"`
	WorkOrders   map[string]int64 `json:"work_orders"`
	TaskCount    int64            `json:"task_count"`
	ActiveTimers int64            `json:"active_timers"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// Stats 统计组织的项目/工单状态分布、任务数与进行中的计时数，
// 短TTL缓存以抗住看板轮询。
func (s *DashboardService) Stats(ctx context.Context, orgID string) (*DashboardStats, error) {
	cacheKey := "dashboard:stats:" + orgID
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var stats DashboardStats
			if json.Unmarshal(raw, &stats) == nil {
				return &stats, nil
			}
		}
	}

	projects, err := s.projectRepo.CountByStatus(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	workOrders, err := s.workOrderRepo.CountByStatus(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("count work orders: %w", err)
	}
	taskCount, err := s.taskRepo.Count(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	activeTimers, err := s.operationRepo.CountActiveTimers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("count active timers: %w", err)
	}

	stats := &DashboardStats{
		Projects:     projects,
		WorkOrders:   workOrders,
		TaskCount:    taskCount,
		ActiveTimers: activeTimers,
		GeneratedAt:  time.Now(),
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(stats); err == nil {
			s.rdb.Set(ctx, cacheKey, raw, statsCacheTTL)
		}
	}
	return stats, nil
}
