package tree

// Report 建树报告
// 计数满足 Built + Pruned + Skipped == 输入实体总数（嵌套输入按展开计）。
type Report struct {
	Built   int      `json:"built"`   // 进入结果树的节点数
	Pruned  int      `json:"pruned"`  // 因 OnlyEnabled/ExcludeIDs 被裁剪的实体数
	Skipped int      `json:"skipped"` // 因缺失ID或键重复被跳过的实体数
	Cycles  []string `json:"cycles,omitempty"` // 环引用被降级为根的实体ID（数据完整性警告）
}

// Warnings 是否存在数据完整性警告
func (r *Report) Warnings() bool {
	return r.Skipped > 0 || len(r.Cycles) > 0
}

// builder 单次构建的内部状态
type builder struct {
	opts     Options
	sep      string
	exclude  map[string]struct{}
	seen     map[string]struct{} // 已占用的节点键
	report   *Report
}

// Build 构建展示树
// 接受扁平(父ID指针)或预嵌套的实体集合，深度优先、父先于子，
// FullPath 自顶向下一次算出。实体不会被修改。
func Build(entities []Entity, opts Options) ([]*Node, *Report) {
	b := &builder{
		opts:   opts,
		sep:    opts.Separator,
		seen:   make(map[string]struct{}),
		report: &Report{},
	}
	if b.sep == "" {
		b.sep = PathSeparator
	}
	if len(opts.ExcludeIDs) > 0 {
		b.exclude = make(map[string]struct{}, len(opts.ExcludeIDs))
		for _, id := range opts.ExcludeIDs {
			b.exclude[id] = struct{}{}
		}
	}

	if nested(entities) {
		return b.buildNested(entities, ""), b.report
	}
	return b.buildFlat(entities), b.report
}

// nested 判断输入是否为预嵌套集合
func nested(entities []Entity) bool {
	for _, e := range entities {
		if e.Nested() != nil {
			return true
		}
	}
	return false
}

// buildFlat 扁平输入：按ID索引后重建嵌套关系
// 父ID无法解析的实体视为根；环引用在挂接阶段检测并打断。
func (b *builder) buildFlat(entities []Entity) []*Node {
	index := make(map[string]Entity, len(entities))
	order := make([]Entity, 0, len(entities))
	for _, e := range entities {
		id := e.EntityID()
		if id == "" {
			b.report.Skipped++
			continue
		}
		if _, dup := index[id]; dup {
			b.report.Skipped++
			continue
		}
		index[id] = e
		order = append(order, e)
	}

	// 环检测：沿父链着色，挂接中再次遇到同链实体时
	// 将第二次遇到的连接视为不存在，实体降级为根
	const (
		unvisited = iota
		attaching
		done
	)
	state := make(map[string]int, len(order))
	demoted := make(map[string]struct{})
	var attach func(id string)
	attach = func(id string) {
		if state[id] != unvisited {
			return
		}
		state[id] = attaching
		pid := index[id].EntityParentID()
		if pid != "" && pid != id {
			if _, ok := index[pid]; ok {
				if state[pid] == attaching {
					demoted[id] = struct{}{}
					b.report.Cycles = append(b.report.Cycles, id)
				} else {
					attach(pid)
				}
			}
		} else if pid == id {
			// 自引用同样打断
			demoted[id] = struct{}{}
			b.report.Cycles = append(b.report.Cycles, id)
		}
		state[id] = done
	}
	for _, e := range order {
		attach(e.EntityID())
	}

	children := make(map[string][]Entity)
	var roots []Entity
	for _, e := range order {
		id := e.EntityID()
		pid := e.EntityParentID()
		if _, dem := demoted[id]; dem {
			pid = ""
		}
		if _, ok := index[pid]; pid == "" || !ok {
			roots = append(roots, e)
			continue
		}
		children[pid] = append(children[pid], e)
	}

	var build func(e Entity, parentPath string) *Node
	build = func(e Entity, parentPath string) *Node {
		n, keep := b.newNode(e, parentPath)
		if n == nil {
			if keep {
				// 子树整体裁剪
				b.prune(1 + flatSubtreeSize(e.EntityID(), children))
			}
			return nil
		}
		for _, c := range children[e.EntityID()] {
			if cn := build(c, n.FullPath); cn != nil {
				n.Children = append(n.Children, cn)
			}
		}
		if b.opts.OnlyEnabled && !e.EntityEnabled() && len(n.Children) == 0 {
			// 禁用且无保留后代：裁剪
			b.unbuild(n)
			return nil
		}
		return n
	}

	var result []*Node
	for _, r := range roots {
		if n := build(r, ""); n != nil {
			result = append(result, n)
		}
	}
	return result
}

// buildNested 预嵌套输入：直接在 Nested 上递归
func (b *builder) buildNested(entities []Entity, parentPath string) []*Node {
	var result []*Node
	for _, e := range entities {
		n, keep := b.newNode(e, parentPath)
		if n == nil {
			if keep {
				b.prune(1 + nestedSubtreeSize(e))
			}
			continue
		}
		n.Children = b.buildNested(e.Nested(), n.FullPath)
		if b.opts.OnlyEnabled && !e.EntityEnabled() && len(n.Children) == 0 {
			b.unbuild(n)
			continue
		}
		result = append(result, n)
	}
	return result
}

// newNode 创建单个节点
// 返回 (nil, true) 表示实体被显式裁剪(ExcludeIDs)，
// 返回 (nil, false) 表示实体被跳过(缺失ID/键重复)。
func (b *builder) newNode(e Entity, parentPath string) (*Node, bool) {
	id := e.EntityID()
	if id == "" {
		b.report.Skipped++
		return nil, false
	}
	if _, ex := b.exclude[id]; ex {
		return nil, true
	}
	if _, dup := b.seen[id]; dup {
		// 嵌套输入中的键重复（含对象环）：跳过，保证键唯一
		b.report.Skipped++
		return nil, false
	}
	b.seen[id] = struct{}{}

	label := fallbackLabel(e)
	segment := label
	if b.opts.LabelFormatter != nil {
		segment = b.opts.LabelFormatter(segment)
	}
	path := segment
	if parentPath != "" {
		path = parentPath + b.sep + segment
	}

	b.report.Built++
	return &Node{
		Key:        id,
		Label:      label,
		FullPath:   path,
		Disabled:   !e.EntityEnabled(),
		SearchText: searchText(label, e.EntityCode()),
		Source:     e,
	}, false
}

// unbuild 回退一个已计数的节点及其已保留的后代为裁剪
func (b *builder) unbuild(n *Node) {
	b.report.Built--
	b.report.Pruned++
	for _, c := range n.Children {
		b.unbuild(c)
	}
	delete(b.seen, n.Key)
}

func (b *builder) prune(count int) {
	b.report.Pruned += count
}

// flatSubtreeSize 扁平索引下子树的实体数（不含自身）
func flatSubtreeSize(id string, children map[string][]Entity) int {
	total := 0
	for _, c := range children[id] {
		total += 1 + flatSubtreeSize(c.EntityID(), children)
	}
	return total
}

// nestedSubtreeSize 嵌套实体子树的实体数（不含自身）
func nestedSubtreeSize(e Entity) int {
	total := 0
	for _, c := range e.Nested() {
		total += 1 + nestedSubtreeSize(c)
	}
	return total
}
