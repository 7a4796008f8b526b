package tree_test

import (
	"testing"

	"github.com/goadmin/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entity 测试用实体
type entity struct {
	id       string
	parentID string
	name     string
	code     string
	disabled bool
	children []tree.Entity
}

func (e *entity) EntityID() string       { return e.id }
func (e *entity) EntityParentID() string { return e.parentID }
func (e *entity) EntityLabel() string    { return e.name }
func (e *entity) EntityCode() string     { return e.code }
func (e *entity) EntityEnabled() bool    { return !e.disabled }
func (e *entity) EntityKind() string     { return "Dept" }
func (e *entity) Nested() []tree.Entity  { return e.children }

func flat(id, parentID, name string) *entity {
	return &entity{id: id, parentID: parentID, name: name}
}

func entities(es ...*entity) []tree.Entity {
	result := make([]tree.Entity, len(es))
	for i, e := range es {
		result[i] = e
	}
	return result
}

// 总部/销售/亚太三级链
func orgChain() []tree.Entity {
	return entities(
		flat("1", "", "HQ"),
		flat("2", "1", "Sales"),
		flat("3", "2", "APAC"),
	)
}

func TestBuildFlatChain(t *testing.T) {
	nodes, report := tree.Build(orgChain(), tree.Options{})
	require.Len(t, nodes, 1)
	assert.Equal(t, 3, report.Built)
	assert.False(t, report.Warnings())

	hq := nodes[0]
	assert.Equal(t, "1", hq.Key)
	assert.Equal(t, "HQ", hq.Label)
	assert.Equal(t, "HQ", hq.FullPath)
	require.Len(t, hq.Children, 1)

	sales := hq.Children[0]
	assert.Equal(t, "HQ / Sales", sales.FullPath)
	require.Len(t, sales.Children, 1)

	apac := sales.Children[0]
	assert.Equal(t, "HQ / Sales / APAC", apac.FullPath)
	assert.True(t, apac.Leaf())
}

func TestBuildNestedInput(t *testing.T) {
	root := &entity{id: "1", name: "HQ", children: entities(
		&entity{id: "2", name: "Sales", children: entities(
			flat("3", "", "APAC"),
		)},
	)}
	nodes, report := tree.Build([]tree.Entity{root}, tree.Options{})
	require.Len(t, nodes, 1)
	assert.Equal(t, 3, report.Built)
	assert.Equal(t, "HQ / Sales / APAC", nodes[0].Children[0].Children[0].FullPath)
}

func TestBuildUnknownParentBecomesRoot(t *testing.T) {
	nodes, report := tree.Build(entities(
		flat("1", "", "HQ"),
		flat("2", "99", "Orphan"),
	), tree.Options{})
	require.Len(t, nodes, 2)
	assert.Equal(t, "Orphan", nodes[1].FullPath)
	assert.Equal(t, 2, report.Built)
}

func TestBuildMissingIDSkipped(t *testing.T) {
	nodes, report := tree.Build(entities(
		flat("", "", "NoID"),
		flat("1", "", "HQ"),
	), tree.Options{})
	require.Len(t, nodes, 1)
	assert.Equal(t, 1, report.Built)
	assert.Equal(t, 1, report.Skipped)
	assert.True(t, report.Warnings())
}

func TestBuildDuplicateIDSkipped(t *testing.T) {
	_, report := tree.Build(entities(
		flat("1", "", "HQ"),
		flat("1", "", "HQ again"),
	), tree.Options{})
	assert.Equal(t, 1, report.Built)
	assert.Equal(t, 1, report.Skipped)
}

func TestBuildCycleBroken(t *testing.T) {
	// 1→2→1 环：第二次遇到的连接视为不存在，实体降级为根
	nodes, report := tree.Build(entities(
		flat("1", "2", "A"),
		flat("2", "1", "B"),
	), tree.Options{})
	require.Len(t, nodes, 1)
	assert.NotEmpty(t, report.Cycles)
	assert.Equal(t, 2, report.Built)

	keys := tree.AllKeys(nodes)
	assert.ElementsMatch(t, []string{"1", "2"}, keys)
}

func TestBuildSelfReferenceBroken(t *testing.T) {
	nodes, report := tree.Build(entities(
		flat("1", "1", "Selfie"),
	), tree.Options{})
	require.Len(t, nodes, 1)
	assert.Equal(t, []string{"1"}, report.Cycles)
}

func TestBuildExcludeIDsPrunesSubtree(t *testing.T) {
	nodes, report := tree.Build(orgChain(), tree.Options{ExcludeIDs: []string{"2"}})
	require.Len(t, nodes, 1)
	assert.Empty(t, nodes[0].Children)
	assert.Equal(t, 1, report.Built)
	assert.Equal(t, 2, report.Pruned)
}

func TestBuildOnlyEnabled(t *testing.T) {
	// 禁用父节点不级联禁用后代：有保留子节点时仍然可见（带禁用标记）
	nodes, report := tree.Build(entities(
		flat("1", "", "HQ"),
		&entity{id: "2", parentID: "1", name: "Sales", disabled: true},
		flat("3", "2", "APAC"),
		&entity{id: "4", parentID: "1", name: "Legacy", disabled: true},
	), tree.Options{OnlyEnabled: true})
	require.Len(t, nodes, 1)

	hq := nodes[0]
	require.Len(t, hq.Children, 1, "无后代的禁用节点应被裁剪")
	sales := hq.Children[0]
	assert.True(t, sales.Disabled)
	require.Len(t, sales.Children, 1)
	assert.Equal(t, "APAC", sales.Children[0].Label)

	assert.Equal(t, 3, report.Built)
	assert.Equal(t, 1, report.Pruned)
}

func TestBuildDisabledMarkedWhenKept(t *testing.T) {
	nodes, _ := tree.Build(entities(
		&entity{id: "1", name: "HQ", disabled: true},
	), tree.Options{})
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].Disabled)
}

func TestBuildLabelFallback(t *testing.T) {
	nodes, _ := tree.Build(entities(
		flat("42", "", "  "),
	), tree.Options{})
	require.Len(t, nodes, 1)
	assert.Equal(t, "Dept-42", nodes[0].Label)
}

func TestBuildLabelFormatterOnlyAffectsPath(t *testing.T) {
	nodes, _ := tree.Build(entities(
		flat("1", "", "Headquarters"),
		flat("2", "1", "Ops"),
	), tree.Options{LabelFormatter: tree.AbbrevFormatter(5)})
	require.Len(t, nodes, 1)
	hq := nodes[0]
	assert.Equal(t, "Headquarters", hq.Label, "节点名称保持原样")
	assert.Equal(t, "He…", hq.FullPath)
	assert.Equal(t, "He… / Ops", hq.Children[0].FullPath)
}

func TestBuildAccounting(t *testing.T) {
	// 实体总数 == 建成 + 裁剪 + 跳过
	input := entities(
		flat("1", "", "HQ"),
		&entity{id: "2", parentID: "1", name: "Sales", disabled: true},
		flat("3", "", ""),
		flat("", "", "NoID"),
		flat("4", "1", "Ops"),
	)
	_, report := tree.Build(input, tree.Options{OnlyEnabled: true})
	assert.Equal(t, len(input), report.Built+report.Pruned+report.Skipped)
}

func TestBuildSearchTextIncludesCode(t *testing.T) {
	nodes, _ := tree.Build(entities(
		&entity{id: "1", name: "User Center", code: "SYS_USER"},
	), tree.Options{})
	require.Len(t, nodes, 1)
	assert.Equal(t, "user center sys_user", nodes[0].SearchText)
}
