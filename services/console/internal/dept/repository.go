package dept

import (
	"context"

	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/services/console/internal/model"
	"gorm.io/gorm"
)

// Repository 部门仓储接口
type Repository interface {
	dal.Repository[model.Dept]
	FindAllOrdered(ctx context.Context) ([]model.Dept, error)
	CountChildren(ctx context.Context, id int64) (int64, error)
	CountUsers(ctx context.Context, deptID int64) (int64, error)
}

type repository struct {
	*dal.BaseRepository[model.Dept]
}

// NewRepository 创建部门仓储
func NewRepository() Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepository[model.Dept](),
	}
}

// NewRepositoryWithDB 使用指定DB创建部门仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepositoryWithDB[model.Dept](db),
	}
}

// FindAllOrdered 查找全部部门，按排序值排序
func (r *repository) FindAllOrdered(ctx context.Context) ([]model.Dept, error) {
	return r.FindAll(ctx, nil, dal.WithOrder("sort ASC, id ASC"))
}

// CountChildren 统计直接子部门数量
func (r *repository) CountChildren(ctx context.Context, id int64) (int64, error) {
	return r.Count(ctx, map[string]interface{}{"parent_id": id})
}

// CountUsers 统计部门下的用户数量
func (r *repository) CountUsers(ctx context.Context, deptID int64) (int64, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&model.User{}).
		Where("dept_id = ?", deptID).Count(&count).Error
	return count, err
}
