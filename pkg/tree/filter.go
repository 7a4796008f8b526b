package tree

import "strings"

// Filter 按关键字裁剪树
// 匹配判定自底向上：节点保留当且仅当自身 SearchText 含关键字(不区分大小写
// 的子串匹配)，或存在被保留的子节点。仅因自身匹配保留的节点不携带子树。
// 空白关键字原样返回输入。源树不被修改，保留节点为浅拷贝，
// FullPath 原样复制。幂等：Filter(Filter(t,k),k) == Filter(t,k)。
func Filter(nodes []*Node, keyword string) []*Node {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nodes
	}
	return filterNodes(nodes, strings.ToLower(keyword))
}

func filterNodes(nodes []*Node, kw string) []*Node {
	var result []*Node
	for _, n := range nodes {
		if kept := filterNode(n, kw); kept != nil {
			result = append(result, kept)
		}
	}
	return result
}

func filterNode(n *Node, kw string) *Node {
	children := filterNodes(n.Children, kw)
	if len(children) > 0 {
		kept := *n
		kept.Children = children
		return &kept
	}
	if strings.Contains(n.SearchText, kw) {
		kept := *n
		kept.Children = nil
		return &kept
	}
	return nil
}
