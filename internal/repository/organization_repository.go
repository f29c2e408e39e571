package repository

import (
	"context"
	"errors"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrganizationRepository 组织仓库
type OrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository 创建组织仓库
func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// FindByID 根据ID查找组织
func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*entity.Organization, error) {
	var org entity.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// Update 更新组织
func (r *OrganizationRepository) Update(ctx context.Context, org *entity.Organization) error {
	return r.db.WithContext(ctx).Save(org).Error
}

// FindLinkByUser 查找用户的组织关联
func (r *OrganizationRepository) FindLinkByUser(ctx context.Context, userID string) (*entity.UserOrganization, error) {
	var link entity.UserOrganization
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// errLinkExists 并发的首次请求抢先建立了关联，本事务整体回滚
var errLinkExists = errors.New("user organization link exists")

// CreateWithLink 在同一事务内创建组织及 admin 关联。
// user_id 唯一索引使并发的首次请求只有一个插入成功，
// 冲突方回滚自己建的组织并改读已有关联。
func (r *OrganizationRepository) CreateWithLink(ctx context.Context, org *entity.Organization, link *entity.UserOrganization) (created bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(link)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errLinkExists
		}
		return nil
	})
	if errors.Is(err, errLinkExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
