package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"github.com/fabrimetal/oficina/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const orgCacheTTL = 24 * time.Hour

// OrganizationService 组织解析服务
type OrganizationService struct {
	repo *repository.OrganizationRepository
	rdb  *redis.Client
}

// NewOrganizationService 创建组织解析服务
func NewOrganizationService(repo *repository.OrganizationRepository, rdb *redis.Client) *OrganizationService {
	return &OrganizationService{repo: repo, rdb: rdb}
}

func orgCacheKey(userID string) string {
	return "org:user:" + userID
}

// EnsureOrganization 解析用户所属组织，首次访问时惰性创建默认组织。
// 用户到组织的映射一旦建立不再变化，可安全缓存。
func (s *OrganizationService) EnsureOrganization(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", ErrValidation)
	}

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, orgCacheKey(userID)).Result(); err == nil && cached != "" {
			return cached, nil
		}
	}

	link, err := s.repo.FindLinkByUser(ctx, userID)
	if err == nil {
		s.cache(ctx, userID, link.OrganizationID)
		return link.OrganizationID, nil
	}
	if err != repository.ErrNotFound {
		return "", fmt.Errorf("find user organization: %w", err)
	}

	now := time.Now()
	shortID := userID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	org := &entity.Organization{
		ID:          uuid.New().String()[:32],
		Name:        fmt.Sprintf("Organization for User %s", userID),
		Slug:        "org-" + shortID,
		Description: fmt.Sprintf("Default organization for user %s", userID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	newLink := &entity.UserOrganization{
		ID:             uuid.New().String()[:32],
		UserID:         userID,
		OrganizationID: org.ID,
		Role:           entity.OrgRoleAdmin,
		CreatedAt:      now,
	}

	created, err := s.repo.CreateWithLink(ctx, org, newLink)
	if err != nil {
		return "", fmt.Errorf("create organization: %w", err)
	}
	if !created {
		// 并发的首次请求抢先创建，改读已有关联
		link, err := s.repo.FindLinkByUser(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("find user organization: %w", err)
		}
		s.cache(ctx, userID, link.OrganizationID)
		return link.OrganizationID, nil
	}

	s.cache(ctx, userID, org.ID)
	return org.ID, nil
}

// Get 获取组织详情
func (s *OrganizationService) Get(ctx context.Context, orgID string) (*entity.Organization, error) {
	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return org, nil
}

// UpdateOrganizationRequest 组织更新请求
type UpdateOrganizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Update 更新组织名称与描述，名称变化时同步重算 slug
func (s *OrganizationService) Update(ctx context.Context, orgID string, req *UpdateOrganizationRequest) (*entity.Organization, error) {
	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("find organization: %w", err)
	}

	if req.Name != "" && req.Name != org.Name {
		org.Name = req.Name
		org.Slug = Slugify(req.Name)
	}
	if req.Description != "" {
		org.Description = req.Description
	}
	org.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("update organization: %w", err)
	}
	return org, nil
}

func (s *OrganizationService) cache(ctx context.Context, userID, orgID string) {
	if s.rdb == nil {
		return
	}
	// 缓存失败不影响请求
	s.rdb.Set(ctx, orgCacheKey(userID), orgID, orgCacheTTL)
}

// Slugify 将名称折叠为URL安全的slug：去重音、小写、非字母数字折为连字符
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
