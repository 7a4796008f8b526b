package rbac

import "github.com/goadmin/pkg/tree"

// CreateRoleRequest 创建角色请求
type CreateRoleRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Status      *int8  `json:"status"`
	Sort        int    `json:"sort"`
	Description string `json:"description"`
}

// UpdateRoleRequest 更新角色请求
type UpdateRoleRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Status      *int8  `json:"status"`
	Sort        *int   `json:"sort"`
	Description string `json:"description"`
}

// ListRoleRequest 角色列表请求
type ListRoleRequest struct {
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
	Name     string `query:"name"`
	Status   *int8  `query:"status"`
}

// AssignMenusRequest 角色授权请求
type AssignMenusRequest struct {
	MenuIDs []int64 `json:"menuIds"`
}

// CheckedKeysResponse 角色已授权菜单
// CheckedKeys 仅含叶子授权，前端树组件用它回显勾选，
// 半选的父节点由组件自行推导。
type CheckedKeysResponse struct {
	MenuIDs     []int64  `json:"menuIds"`
	CheckedKeys []string `json:"checkedKeys"`
}

// CatalogTreeRequest 权限目录树请求
type CatalogTreeRequest struct {
	Keyword string `query:"keyword"`
}

// CatalogTreeResponse 权限目录树响应
type CatalogTreeResponse struct {
	List         []*tree.Node `json:"list"`
	ExpandedKeys []string     `json:"expandedKeys,omitempty"`
	Total        int          `json:"total"`
}
