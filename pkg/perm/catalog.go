package perm

import "strconv"

// DefType 权限定义类型
type DefType int8

const (
	// TypeDirectory 目录（分组节点，不参与授权判定）
	TypeDirectory DefType = 1
	// TypeMenu 菜单
	TypeMenu DefType = 2
	// TypeButton 按钮（动作级权限）
	TypeButton DefType = 3
)

// String 类型名称
func (t DefType) String() string {
	switch t {
	case TypeDirectory:
		return "directory"
	case TypeMenu:
		return "menu"
	case TypeButton:
		return "button"
	default:
		return "unknown"
	}
}

// Def 权限定义（目录中的一条）
type Def struct {
	ID       int64   `json:"id"`
	ParentID int64   `json:"parentId"`
	Name     string  `json:"name"`
	Code     string  `json:"code"`
	Type     DefType `json:"type"`
	Enabled  bool    `json:"enabled"`
}

// Catalog 权限目录
// 权限定义树，会话期加载一次，只读消费，不做增量修改；
// 定义变更后整体重建。
type Catalog struct {
	defs   []*Def
	byID   map[int64]*Def
	byCode map[string]*Def
}

// NewCatalog 构建权限目录
func NewCatalog(defs []*Def) *Catalog {
	c := &Catalog{
		defs:   defs,
		byID:   make(map[int64]*Def, len(defs)),
		byCode: make(map[string]*Def, len(defs)),
	}
	for _, d := range defs {
		c.byID[d.ID] = d
		if d.Code != "" {
			c.byCode[d.Code] = d
		}
	}
	return c
}

// Defs 全部权限定义
func (c *Catalog) Defs() []*Def {
	return c.defs
}

// ByID 按ID查找
func (c *Catalog) ByID(id int64) (*Def, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// ByCode 按权限码查找
func (c *Catalog) ByCode(code string) (*Def, bool) {
	d, ok := c.byCode[code]
	return d, ok
}

// GrantableCodes 可授权的权限码（菜单/按钮，目录仅作分组）
func (c *Catalog) GrantableCodes() []string {
	var codes []string
	for _, d := range c.defs {
		if d.Type != TypeDirectory && d.Enabled && d.Code != "" {
			codes = append(codes, d.Code)
		}
	}
	return codes
}

// Len 定义条数
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Key 目录定义在勾选树中的节点键
func (d *Def) Key() string {
	return strconv.FormatInt(d.ID, 10)
}
