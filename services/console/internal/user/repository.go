package user

import (
	"context"

	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/services/console/internal/model"
	"gorm.io/gorm"
)

// Repository 用户仓储接口
type Repository interface {
	dal.Repository[model.User]
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindUsersPaged(ctx context.Context, keyword string, status *int8, deptID int64, p *dal.Pagination) (*dal.PagedResult[model.User], error)
	RoleIDs(ctx context.Context, userID int64) ([]int64, error)
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error
	DeleteWithRoles(ctx context.Context, userID int64) error
}

type repository struct {
	*dal.BaseRepository[model.User]
}

// NewRepository 创建用户仓储
func NewRepository() Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepository[model.User](),
	}
}

// NewRepositoryWithDB 使用指定DB创建用户仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepositoryWithDB[model.User](db),
	}
}

// FindByUsername 按用户名查找
func (r *repository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.FindOne(ctx, map[string]interface{}{"username": username})
}

// FindUsersPaged 用户分页查询
func (r *repository) FindUsersPaged(ctx context.Context, keyword string, status *int8, deptID int64, p *dal.Pagination) (*dal.PagedResult[model.User], error) {
	query := r.DB().WithContext(ctx).Model(&model.User{})
	if keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("username LIKE ? OR nickname LIKE ?", like, like)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if deptID > 0 {
		query = query.Where("dept_id = ?", deptID)
	}
	query = query.Order("id ASC")
	return r.FindPagedWithQuery(ctx, query, p)
}

// RoleIDs 查询用户的角色ID
func (r *repository) RoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.DB().WithContext(ctx).Model(&model.UserRole{}).
		Where("user_id = ?", userID).
		Pluck("role_id", &ids).Error
	return ids, err
}

// ReplaceRoles 整体替换用户的角色
func (r *repository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		if len(roleIDs) == 0 {
			return nil
		}
		binds := make([]model.UserRole, 0, len(roleIDs))
		for _, id := range roleIDs {
			binds = append(binds, model.UserRole{UserID: userID, RoleID: id})
		}
		return tx.CreateInBatches(binds, 100).Error
	})
}

// DeleteWithRoles 删除用户并清理角色关联
func (r *repository) DeleteWithRoles(ctx context.Context, userID int64) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).Delete(&model.User{}).Error
	})
}
