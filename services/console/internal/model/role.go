package model

import (
	"github.com/goadmin/pkg/dal"
)

// Role 角色模型
type Role struct {
	dal.Model
	Name        string `gorm:"size:50;not null" json:"name"`
	Code        string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Status      int8   `gorm:"not null" json:"status"`
	Sort        int    `gorm:"default:0" json:"sort"`
	Description string `gorm:"size:255" json:"description"`
}

// TableName 表名
func (Role) TableName() string {
	return "sys_role"
}

// RoleMenu 角色菜单授权关联
type RoleMenu struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleID int64 `gorm:"index:idx_role_menu;not null" json:"roleId"`
	MenuID int64 `gorm:"index:idx_role_menu;not null" json:"menuId"`
}

// TableName 表名
func (RoleMenu) TableName() string {
	return "sys_role_menu"
}
