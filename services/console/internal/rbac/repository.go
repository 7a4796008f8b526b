package rbac

import (
	"context"
	"errors"

	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/services/console/internal/model"
	"gorm.io/gorm"
)

// Repository 角色与授权仓储接口
type Repository interface {
	dal.Repository[model.Role]
	FindRolesPaged(ctx context.Context, name string, status *int8, p *dal.Pagination) (*dal.PagedResult[model.Role], error)
	UserRoleIDs(ctx context.Context, userID int64) ([]int64, error)
	MenuIDsByRoles(ctx context.Context, roleIDs []int64) ([]int64, error)
	MenuIDsByRole(ctx context.Context, roleID int64) ([]int64, error)
	ReplaceMenus(ctx context.Context, roleID int64, menuIDs []int64) error
	CountRoleUsers(ctx context.Context, roleID int64) (int64, error)
	DeleteWithGrants(ctx context.Context, roleID int64) error
	FindUser(ctx context.Context, userID int64) (*model.User, error)
}

type repository struct {
	*dal.BaseRepository[model.Role]
}

// NewRepository 创建角色仓储
func NewRepository() Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepository[model.Role](),
	}
}

// NewRepositoryWithDB 使用指定DB创建角色仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepositoryWithDB[model.Role](db),
	}
}

// FindRolesPaged 角色分页查询
func (r *repository) FindRolesPaged(ctx context.Context, name string, status *int8, p *dal.Pagination) (*dal.PagedResult[model.Role], error) {
	query := r.DB().WithContext(ctx).Model(&model.Role{})
	if name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	query = query.Order("sort ASC, id ASC")
	return r.FindPagedWithQuery(ctx, query, p)
}

// UserRoleIDs 查询用户的启用角色ID
func (r *repository) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.DB().WithContext(ctx).Model(&model.UserRole{}).
		Joins("JOIN sys_role ON sys_role.id = sys_user_role.role_id").
		Where("sys_user_role.user_id = ? AND sys_role.status = ? AND sys_role.deleted_at IS NULL", userID, 1).
		Pluck("sys_user_role.role_id", &ids).Error
	return ids, err
}

// MenuIDsByRoles 查询一组角色授权的菜单ID（去重）
func (r *repository) MenuIDsByRoles(ctx context.Context, roleIDs []int64) ([]int64, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	err := r.DB().WithContext(ctx).Model(&model.RoleMenu{}).
		Where("role_id IN ?", roleIDs).
		Distinct().
		Pluck("menu_id", &ids).Error
	return ids, err
}

// MenuIDsByRole 查询单个角色授权的菜单ID
func (r *repository) MenuIDsByRole(ctx context.Context, roleID int64) ([]int64, error) {
	var ids []int64
	err := r.DB().WithContext(ctx).Model(&model.RoleMenu{}).
		Where("role_id = ?", roleID).
		Pluck("menu_id", &ids).Error
	return ids, err
}

// ReplaceMenus 整体替换角色的菜单授权
func (r *repository) ReplaceMenus(ctx context.Context, roleID int64, menuIDs []int64) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&model.RoleMenu{}).Error; err != nil {
			return err
		}
		if len(menuIDs) == 0 {
			return nil
		}
		grants := make([]model.RoleMenu, 0, len(menuIDs))
		for _, id := range menuIDs {
			grants = append(grants, model.RoleMenu{RoleID: roleID, MenuID: id})
		}
		return tx.CreateInBatches(grants, 100).Error
	})
}

// CountRoleUsers 统计角色下的用户数量
func (r *repository) CountRoleUsers(ctx context.Context, roleID int64) (int64, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&model.UserRole{}).
		Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

// DeleteWithGrants 删除角色并清理授权与用户关联
func (r *repository) DeleteWithGrants(ctx context.Context, roleID int64) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&model.RoleMenu{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", roleID).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", roleID).Delete(&model.Role{}).Error
	})
}

// FindUser 查询用户
func (r *repository) FindUser(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := r.DB().WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
