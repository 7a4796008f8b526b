package model

import (
	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/pkg/perm"
	"github.com/goadmin/pkg/tree"
)

// 菜单类型
const (
	MenuTypeDirectory int8 = 1 // 目录
	MenuTypeMenu      int8 = 2 // 菜单
	MenuTypeButton    int8 = 3 // 按钮
)

// Menu 菜单模型，同时充当权限目录：
// 目录/菜单构成导航层级，按钮挂权限码供角色授权。
type Menu struct {
	dal.Model
	ParentID  int64  `gorm:"default:0;index" json:"parentId"`
	Name      string `gorm:"size:50;not null" json:"name"`
	Path      string `gorm:"size:255" json:"path"`
	Component string `gorm:"size:255" json:"component"`
	Icon      string `gorm:"size:50" json:"icon"`
	Type      int8   `gorm:"not null" json:"type"` // 1:目录 2:菜单 3:按钮
	Visible   int8   `gorm:"not null" json:"visible"`
	Status    int8   `gorm:"not null" json:"status"`
	Redirect  string `gorm:"size:255" json:"redirect"`
	Sort      int    `gorm:"default:0" json:"sort"`
	PermCode  string `gorm:"size:100" json:"permCode"` // 权限标识，如 system:user:create
}

// TableName 表名
func (Menu) TableName() string {
	return "sys_menu"
}

// MenuEntity 菜单的树实体适配
type MenuEntity struct {
	Menu *Menu
}

func (e MenuEntity) EntityID() string {
	if e.Menu.ID == 0 {
		return ""
	}
	return formatID(e.Menu.ID)
}

func (e MenuEntity) EntityParentID() string {
	if e.Menu.ParentID == 0 {
		return ""
	}
	return formatID(e.Menu.ParentID)
}

func (e MenuEntity) EntityLabel() string   { return e.Menu.Name }
func (e MenuEntity) EntityCode() string    { return e.Menu.PermCode }
func (e MenuEntity) EntityEnabled() bool   { return e.Menu.Status == 1 }
func (e MenuEntity) EntityKind() string    { return "Menu" }
func (e MenuEntity) Nested() []tree.Entity { return nil }

// MenuEntities 转换为树实体切片
func MenuEntities(menus []Menu) []tree.Entity {
	entities := make([]tree.Entity, len(menus))
	for i := range menus {
		entities[i] = MenuEntity{Menu: &menus[i]}
	}
	return entities
}

// PermDefs 转换为权限目录定义
func PermDefs(menus []Menu) []*perm.Def {
	defs := make([]*perm.Def, len(menus))
	for i := range menus {
		m := &menus[i]
		defs[i] = &perm.Def{
			ID:       m.ID,
			ParentID: m.ParentID,
			Name:     m.Name,
			Code:     m.PermCode,
			Type:     perm.DefType(m.Type),
			Enabled:  m.Status == 1,
		}
	}
	return defs
}
