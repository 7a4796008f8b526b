package dept

import "github.com/goadmin/pkg/tree"

// CreateRequest 创建部门请求
type CreateRequest struct {
	ParentID int64  `json:"parentId"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Sort     int    `json:"sort"`
	Leader   string `json:"leader"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Status   *int8  `json:"status"`
}

// UpdateRequest 更新部门请求
type UpdateRequest struct {
	ParentID *int64 `json:"parentId"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Sort     *int   `json:"sort"`
	Leader   string `json:"leader"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Status   *int8  `json:"status"`
}

// ListRequest 部门列表请求
type ListRequest struct {
	Name   string `query:"name"`
	Status *int8  `query:"status"`
}

// TreeRequest 部门树请求
type TreeRequest struct {
	Keyword     string `query:"keyword"`
	OnlyEnabled bool   `query:"onlyEnabled"`
	ExcludeID   int64  `query:"excludeId"` // 编辑部门时排除自身子树，避免选到自己的后代作为父节点
}

// TreeResponse 部门树响应
// ExpandedKeys 仅在关键字搜索时返回，用于前端展开全部命中路径。
type TreeResponse struct {
	List         []*tree.Node `json:"list"`
	ExpandedKeys []string     `json:"expandedKeys,omitempty"`
	Total        int          `json:"total"`
}
