// Package tree 提供部门/菜单/权限等层级数据的通用树引擎
//
// 核心能力：
//   - Build: 将扁平(父ID指针)或已嵌套的实体集合构建为不可变的展示树
//   - Filter: 按关键字裁剪树，保留匹配节点及其祖先链
//   - AllKeys: 前序收集全部节点键，驱动"全部展开/展开搜索结果"
//
// 所有操作均为纯函数：输入不被修改，输出树构建后不再变更，
// 每次数据变化整树重建，不做增量修补。
package tree

import "strings"

// PathSeparator 面包屑路径分隔符
const PathSeparator = " / "

// Entity 树实体接口
// 部门、菜单、权限定义等后端记录实现此接口后即可参与建树。
// 扁平来源返回 nil Nested，嵌套来源返回子实体列表。
type Entity interface {
	// EntityID 稳定唯一标识（树内键），为空的实体会被跳过
	EntityID() string
	// EntityParentID 父实体ID，根节点返回空串
	EntityParentID() string
	// EntityLabel 展示名称，可为空（回退为 "<Kind>-<ID>"）
	EntityLabel() string
	// EntityCode 次要展示字段（编码等），参与搜索文本
	EntityCode() string
	// EntityEnabled 是否启用
	EntityEnabled() bool
	// EntityKind 实体类别名，用于空名称回退
	EntityKind() string
	// Nested 预嵌套的子实体，扁平来源返回 nil
	Nested() []Entity
}

// Node 展示树节点
// 构建完成后只读；FullPath 在构建时一次性自顶向下计算，
// 过滤裁剪后原样复制，绝不按裁剪后的结构重算。
type Node struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	FullPath   string  `json:"fullPath"`
	Disabled   bool    `json:"disabled,omitempty"`
	SearchText string  `json:"-"`
	Source     Entity  `json:"-"`
	Children   []*Node `json:"children,omitempty"`
}

// Leaf 是否为叶子节点
func (n *Node) Leaf() bool {
	return len(n.Children) == 0
}

// Options 建树选项，各选项可独立组合
type Options struct {
	// OnlyEnabled 丢弃禁用实体。禁用节点不会级联禁用后代：
	// 存在保留后代的禁用父节点仍然可见（带禁用标记）
	OnlyEnabled bool
	// ExcludeIDs 无条件丢弃这些实体及其整棵子树
	ExcludeIDs []string
	// LabelFormatter 路径段格式化（如长编码缩写），只影响 FullPath，
	// 节点 Label 与 Source 上的原始值不变
	LabelFormatter func(label string) string
	// Separator 路径分隔符，空串时使用 PathSeparator
	Separator string
}

// AbbrevFormatter 返回长编码缩写格式化器
// 超过 threshold 个字符的路径段缩写为前两个字符加省略号。
func AbbrevFormatter(threshold int) func(string) string {
	return func(label string) string {
		if threshold <= 0 || len([]rune(label)) <= threshold {
			return label
		}
		r := []rune(label)
		if len(r) <= 2 {
			return label
		}
		return string(r[:2]) + "…"
	}
}

// fallbackLabel 空名称回退为 "<Kind>-<ID>"
func fallbackLabel(e Entity) string {
	label := strings.TrimSpace(e.EntityLabel())
	if label != "" {
		return label
	}
	kind := e.EntityKind()
	if kind == "" {
		kind = "Entity"
	}
	return kind + "-" + e.EntityID()
}

// searchText 搜索文本：名称+编码小写拼接
func searchText(label, code string) string {
	if code = strings.TrimSpace(code); code != "" {
		return strings.ToLower(label + " " + code)
	}
	return strings.ToLower(label)
}
