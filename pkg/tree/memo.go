package tree

import "sync"

// FilterMemo 过滤结果记忆化
// 同一棵树上连续键入时（每次按键都会触发过滤），相同关键字直接返回
// 缓存结果。过滤是纯函数，重算只是性能问题，缓存不影响正确性；
// 底层树重建后应整体丢弃并新建。
type FilterMemo struct {
	nodes   []*Node
	mu      sync.RWMutex
	results map[string][]*Node
}

// NewFilterMemo 基于一棵已构建的树创建过滤缓存
func NewFilterMemo(nodes []*Node) *FilterMemo {
	return &FilterMemo{
		nodes:   nodes,
		results: make(map[string][]*Node),
	}
}

// Nodes 返回底层未过滤的树
func (m *FilterMemo) Nodes() []*Node {
	return m.nodes
}

// Filter 带缓存的过滤
func (m *FilterMemo) Filter(keyword string) []*Node {
	m.mu.RLock()
	cached, ok := m.results[keyword]
	m.mu.RUnlock()
	if ok {
		return cached
	}

	result := Filter(m.nodes, keyword)
	m.mu.Lock()
	m.results[keyword] = result
	m.mu.Unlock()
	return result
}

// Keys 带缓存过滤后的全部键（过滤结果的展开提示）
func (m *FilterMemo) Keys(keyword string) []string {
	return AllKeys(m.Filter(keyword))
}
