package model

import (
	"github.com/goadmin/pkg/dal"
)

// 用户类型
const (
	UserTypeSuperAdmin int8 = 0 // 超级管理员，跳过权限判定
	UserTypeNormal     int8 = 1 // 普通用户
)

// User 用户模型
type User struct {
	dal.Model
	Username string  `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Password string  `gorm:"size:255;not null" json:"-"`
	Nickname string  `gorm:"size:50" json:"nickname"`
	Email    string  `gorm:"size:100" json:"email"`
	Phone    string  `gorm:"size:20" json:"phone"`
	Avatar   string  `gorm:"size:255" json:"avatar"`
	Status   int8    `gorm:"not null" json:"status"` // 1:正常 0:禁用
	UserType int8    `gorm:"not null" json:"userType"`
	DeptID   int64   `gorm:"index" json:"deptId"`
	Roles    []*Role `gorm:"many2many:sys_user_role;joinForeignKey:UserID;joinReferences:RoleID" json:"roles,omitempty"`
}

// TableName 表名
func (User) TableName() string {
	return "sys_user"
}

// IsSuperAdmin 是否超级管理员
func (u *User) IsSuperAdmin() bool {
	return u.UserType == UserTypeSuperAdmin
}

// UserRole 用户角色关联
type UserRole struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"index:idx_user_role;not null" json:"userId"`
	RoleID int64 `gorm:"index:idx_user_role;not null" json:"roleId"`
}

// TableName 表名
func (UserRole) TableName() string {
	return "sys_user_role"
}
