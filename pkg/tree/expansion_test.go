package tree_test

import (
	"testing"

	"github.com/goadmin/pkg/tree"
	"github.com/stretchr/testify/assert"
)

func TestAllKeysPreOrder(t *testing.T) {
	nodes := buildOrg(t)
	keys := tree.AllKeys(nodes)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, keys)
}

func TestAllKeysAfterFilter(t *testing.T) {
	// 过滤后的键集合恰好是裁剪树中的节点，不多不少
	nodes := buildOrg(t)
	filtered := tree.Filter(nodes, "apac")
	keys := tree.AllKeys(filtered)
	assert.Equal(t, []string{"1", "2", "3"}, keys)
	assert.Equal(t, tree.CountNodes(filtered), len(keys))
}

func TestAllKeysEmpty(t *testing.T) {
	assert.Empty(t, tree.AllKeys(nil))
}
