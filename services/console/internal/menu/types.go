package menu

import "github.com/goadmin/pkg/tree"

// CreateRequest 创建菜单请求
type CreateRequest struct {
	ParentID  int64  `json:"parentId"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Component string `json:"component"`
	Icon      string `json:"icon"`
	Type      int8   `json:"type"`
	Visible   *int8  `json:"visible"`
	Status    *int8  `json:"status"`
	Redirect  string `json:"redirect"`
	Sort      int    `json:"sort"`
	PermCode  string `json:"permCode"`
}

// UpdateRequest 更新菜单请求
type UpdateRequest struct {
	ParentID  *int64 `json:"parentId"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Component string `json:"component"`
	Icon      string `json:"icon"`
	Type      *int8  `json:"type"`
	Visible   *int8  `json:"visible"`
	Status    *int8  `json:"status"`
	Redirect  string `json:"redirect"`
	Sort      *int   `json:"sort"`
	PermCode  string `json:"permCode"`
}

// TreeRequest 菜单树请求
type TreeRequest struct {
	Keyword     string `query:"keyword"`
	OnlyEnabled bool   `query:"onlyEnabled"`
}

// TreeResponse 菜单树响应
type TreeResponse struct {
	List         []*tree.Node `json:"list"`
	ExpandedKeys []string     `json:"expandedKeys,omitempty"`
	Total        int          `json:"total"`
}

// UserMenuNode 用户菜单节点（前端路由渲染用）
type UserMenuNode struct {
	ID        int64           `json:"id"`
	ParentID  int64           `json:"parentId"`
	Name      string          `json:"name"`
	Path      string          `json:"path"`
	Component string          `json:"component"`
	Icon      string          `json:"icon"`
	Type      int8            `json:"type"`
	Redirect  string          `json:"redirect"`
	Sort      int             `json:"sort"`
	Children  []*UserMenuNode `json:"children,omitempty"`
}
