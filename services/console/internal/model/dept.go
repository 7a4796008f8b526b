package model

import (
	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/pkg/tree"
)

// Dept 部门模型
type Dept struct {
	dal.Model
	ParentID int64  `gorm:"default:0;index" json:"parentId"`
	Name     string `gorm:"size:50;not null" json:"name"`
	Code     string `gorm:"size:50" json:"code"`
	Sort     int    `gorm:"default:0" json:"sort"`
	Leader   string `gorm:"size:50" json:"leader"`
	Phone    string `gorm:"size:20" json:"phone"`
	Email    string `gorm:"size:100" json:"email"`
	Status   int8   `gorm:"not null" json:"status"` // 1:启用 0:禁用
}

// TableName 表名
func (Dept) TableName() string {
	return "sys_dept"
}

// DeptEntity 部门的树实体适配
type DeptEntity struct {
	Dept *Dept
}

func (e DeptEntity) EntityID() string {
	if e.Dept.ID == 0 {
		return ""
	}
	return formatID(e.Dept.ID)
}

func (e DeptEntity) EntityParentID() string {
	if e.Dept.ParentID == 0 {
		return ""
	}
	return formatID(e.Dept.ParentID)
}

func (e DeptEntity) EntityLabel() string   { return e.Dept.Name }
func (e DeptEntity) EntityCode() string    { return e.Dept.Code }
func (e DeptEntity) EntityEnabled() bool   { return e.Dept.Status == 1 }
func (e DeptEntity) EntityKind() string    { return "Dept" }
func (e DeptEntity) Nested() []tree.Entity { return nil }

// DeptEntities 转换为树实体切片
func DeptEntities(depts []Dept) []tree.Entity {
	entities := make([]tree.Entity, len(depts))
	for i := range depts {
		entities[i] = DeptEntity{Dept: &depts[i]}
	}
	return entities
}
