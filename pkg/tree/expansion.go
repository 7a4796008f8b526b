package tree

// AllKeys 前序收集树中全部节点键
// 键在树内唯一（建树保证），无需去重。用于"全部展开"
// 以及过滤后展开全部命中路径，避免搜索结果被折叠祖先遮住。
func AllKeys(nodes []*Node) []string {
	var keys []string
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			keys = append(keys, n.Key)
			walk(n.Children)
		}
	}
	walk(nodes)
	return keys
}

// CountNodes 统计树中节点总数
func CountNodes(nodes []*Node) int {
	total := 0
	for _, n := range nodes {
		total += 1 + CountNodes(n.Children)
	}
	return total
}
