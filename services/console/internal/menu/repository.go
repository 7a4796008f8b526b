package menu

import (
	"context"

	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/services/console/internal/model"
	"gorm.io/gorm"
)

// Repository 菜单仓储接口
type Repository interface {
	dal.Repository[model.Menu]
	FindAllOrdered(ctx context.Context) ([]model.Menu, error)
	FindVisible(ctx context.Context) ([]model.Menu, error)
	CountChildren(ctx context.Context, id int64) (int64, error)
	DeleteWithGrants(ctx context.Context, id int64) error
}

type repository struct {
	*dal.BaseRepository[model.Menu]
}

// NewRepository 创建菜单仓储
func NewRepository() Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepository[model.Menu](),
	}
}

// NewRepositoryWithDB 使用指定DB创建菜单仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepositoryWithDB[model.Menu](db),
	}
}

// FindAllOrdered 查找全部菜单，按排序值排序
func (r *repository) FindAllOrdered(ctx context.Context) ([]model.Menu, error) {
	return r.FindAll(ctx, nil, dal.WithOrder("sort ASC, id ASC"))
}

// FindVisible 查找启用且可见的导航菜单（不含按钮）
func (r *repository) FindVisible(ctx context.Context) ([]model.Menu, error) {
	var menus []model.Menu
	err := r.DB().WithContext(ctx).
		Where("status = ? AND visible = ? AND type <> ?", 1, 1, model.MenuTypeButton).
		Order("sort ASC, id ASC").
		Find(&menus).Error
	return menus, err
}

// CountChildren 统计直接子菜单数量
func (r *repository) CountChildren(ctx context.Context, id int64) (int64, error) {
	return r.Count(ctx, map[string]interface{}{"parent_id": id})
}

// DeleteWithGrants 删除菜单并清理角色授权关联
func (r *repository) DeleteWithGrants(ctx context.Context, id int64) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("menu_id = ?", id).Delete(&model.RoleMenu{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Menu{}).Error
	})
}
