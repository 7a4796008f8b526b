package perm

// Gate 权限门面
// 暴露给界面渲染/路由守卫的唯一入口，仅委托 Resolve，
// 不附加任何逻辑。持有的是当前会话的权限集合。
type Gate struct {
	held *Set
}

// NewGate 基于会话权限集合创建门面
// held 为 nil（未登录）时所有判定均为 false。
func NewGate(held *Set) *Gate {
	return &Gate{held: held}
}

// Can 持有单个权限
func (g *Gate) Can(code string) bool {
	return Resolve(g.held, Require(code))
}

// CanAny 持有任一权限
func (g *Gate) CanAny(codes ...string) bool {
	return Resolve(g.held, RequireAny(codes...))
}

// CanAll 持有全部权限
func (g *Gate) CanAll(codes ...string) bool {
	return Resolve(g.held, RequireAll(codes...))
}

// Held 当前会话的权限集合（只读）
func (g *Gate) Held() *Set {
	return g.held
}
