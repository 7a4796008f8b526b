package user

// CreateRequest 创建用户请求
type CreateRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Nickname string  `json:"nickname"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Avatar   string  `json:"avatar"`
	Status   *int8   `json:"status"`
	DeptID   int64   `json:"deptId"`
	RoleIDs  []int64 `json:"roleIds"`
}

// UpdateRequest 更新用户请求
type UpdateRequest struct {
	Nickname string  `json:"nickname"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Avatar   string  `json:"avatar"`
	Status   *int8   `json:"status"`
	DeptID   *int64  `json:"deptId"`
	RoleIDs  []int64 `json:"roleIds"`
}

// ListRequest 用户列表请求
type ListRequest struct {
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
	Keyword  string `query:"keyword"` // 用户名/昵称模糊匹配
	Status   *int8  `query:"status"`
	DeptID   int64  `query:"deptId"`
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Password string `json:"password"`
}
