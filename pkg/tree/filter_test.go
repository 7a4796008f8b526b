package tree_test

import (
	"strings"
	"testing"

	"github.com/goadmin/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOrg(t *testing.T) []*tree.Node {
	t.Helper()
	nodes, report := tree.Build(entities(
		flat("1", "", "HQ"),
		flat("2", "1", "Sales"),
		flat("3", "2", "APAC"),
		flat("4", "2", "EMEA"),
		flat("5", "1", "Engineering"),
		flat("6", "5", "Platform"),
	), tree.Options{})
	require.False(t, report.Warnings())
	return nodes
}

func TestFilterBlankKeywordIsIdentity(t *testing.T) {
	nodes := buildOrg(t)
	assert.Equal(t, nodes, tree.Filter(nodes, ""))
	assert.Equal(t, nodes, tree.Filter(nodes, "   "))
}

func TestFilterKeepsAncestorChain(t *testing.T) {
	nodes := buildOrg(t)
	filtered := tree.Filter(nodes, "apac")

	require.Len(t, filtered, 1)
	hq := filtered[0]
	assert.Equal(t, "HQ", hq.Label)
	require.Len(t, hq.Children, 1)
	sales := hq.Children[0]
	assert.Equal(t, "Sales", sales.Label)
	require.Len(t, sales.Children, 1)
	assert.Equal(t, "APAC", sales.Children[0].Label)
}

func TestFilterSelfMatchDropsSubtree(t *testing.T) {
	// 仅因自身匹配保留的节点不携带子树
	nodes := buildOrg(t)
	filtered := tree.Filter(nodes, "sales")
	require.Len(t, filtered, 1)
	require.Len(t, filtered[0].Children, 1)
	assert.Empty(t, filtered[0].Children[0].Children)
}

func TestFilterCaseInsensitiveSubstring(t *testing.T) {
	nodes := buildOrg(t)
	assert.NotEmpty(t, tree.Filter(nodes, "EME"))
	assert.NotEmpty(t, tree.Filter(nodes, "eme"))
	assert.NotEmpty(t, tree.Filter(nodes, "ngineer"))
	assert.Empty(t, tree.Filter(nodes, "不存在"))
}

func TestFilterIdempotent(t *testing.T) {
	nodes := buildOrg(t)
	once := tree.Filter(nodes, "apac")
	twice := tree.Filter(once, "apac")
	assert.Equal(t, tree.AllKeys(once), tree.AllKeys(twice))
}

func TestFilterPreservesFullPath(t *testing.T) {
	// 裁剪后的 FullPath 与原树一致，不按裁剪结构重算
	nodes := buildOrg(t)
	filtered := tree.Filter(nodes, "platform")
	require.Len(t, filtered, 1)
	eng := filtered[0].Children[0]
	assert.Equal(t, "HQ / Engineering / Platform", eng.Children[0].FullPath)
}

func TestFilterDoesNotMutateSource(t *testing.T) {
	nodes := buildOrg(t)
	before := tree.CountNodes(nodes)
	tree.Filter(nodes, "apac")
	assert.Equal(t, before, tree.CountNodes(nodes))
	assert.Len(t, nodes[0].Children, 2)
}

func TestFilterEveryLeafReachesMatch(t *testing.T) {
	nodes := buildOrg(t)
	filtered := tree.Filter(nodes, "e")

	// 结果中每个叶子要么自身命中，要么存在命中的祖先
	var checkLeaf func(n *tree.Node, chainMatched bool)
	checkLeaf = func(n *tree.Node, chainMatched bool) {
		self := strings.Contains(n.SearchText, "e")
		if n.Leaf() {
			assert.True(t, self || chainMatched, "叶子 %s 既不命中也无命中祖先", n.Label)
			return
		}
		for _, c := range n.Children {
			checkLeaf(c, chainMatched || self)
		}
	}
	for _, n := range filtered {
		checkLeaf(n, false)
	}
}
