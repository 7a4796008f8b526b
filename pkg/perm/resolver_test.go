package perm_test

import (
	"testing"

	"github.com/goadmin/pkg/perm"
	"github.com/stretchr/testify/assert"
)

func TestResolveExactMatch(t *testing.T) {
	held := perm.NewSet(false, []string{"user:create", "user:list"})
	assert.True(t, perm.Resolve(held, perm.Require("user:create")))
	assert.False(t, perm.Resolve(held, perm.Require("user:delete")))
}

func TestResolveSuperAdminBypass(t *testing.T) {
	// 超级管理员无条件放行，权限集合为空也一样
	held := perm.NewSet(true, nil)
	assert.True(t, perm.Resolve(held, perm.Require("anything:at:all")))
	assert.True(t, perm.Resolve(held, perm.RequireAll("a", "b", "c")))
}

func TestResolveNilSetDenied(t *testing.T) {
	// 无会话恒为 false，包括空列表 All
	assert.False(t, perm.Resolve(nil, perm.Require("user:list")))
	assert.False(t, perm.Resolve(nil, perm.RequireAll()))
}

func TestResolveUniversalWildcard(t *testing.T) {
	held := perm.NewSet(false, []string{perm.UniversalWildcard})
	assert.True(t, perm.Resolve(held, perm.Require("user:create")))
	assert.True(t, perm.Resolve(held, perm.Require("dept:delete:batch")))
}

func TestResolvePrefixWildcard(t *testing.T) {
	held := perm.NewSet(false, []string{"user:*"})

	assert.True(t, perm.Resolve(held, perm.Require("user:create")))
	assert.True(t, perm.Resolve(held, perm.Require("user:delete:batch")))

	// 前缀必须连同分隔符整体匹配
	assert.False(t, perm.Resolve(held, perm.Require("user")), "无尾段的裸码不满足")
	assert.False(t, perm.Resolve(held, perm.Require("users:create")), "不是裸字符串前缀匹配")
}

func TestResolveEmptySetDeniesEverything(t *testing.T) {
	held := perm.NewSet(false, nil)
	assert.False(t, perm.Resolve(held, perm.Require("user:list")))
}

func TestResolveAnyCombinator(t *testing.T) {
	held := perm.NewSet(false, []string{"a"})
	assert.True(t, perm.Resolve(held, perm.RequireAny("a", "b")))
	assert.False(t, perm.Resolve(held, perm.RequireAny("b", "c")))
}

func TestResolveAllCombinator(t *testing.T) {
	held := perm.NewSet(false, []string{"a"})
	assert.False(t, perm.Resolve(held, perm.RequireAll("a", "b")))

	held = perm.NewSet(false, []string{"a", "b"})
	assert.True(t, perm.Resolve(held, perm.RequireAll("a", "b")))
}

func TestResolveVacuousQuantifiers(t *testing.T) {
	// 空列表：Any 恒假，All 恒真（标准量词语义）
	held := perm.NewSet(false, []string{"a"})
	assert.False(t, perm.Resolve(held, perm.RequireAny()))
	assert.True(t, perm.Resolve(held, perm.RequireAll()))
}

func TestResolveWildcardInsideCombinator(t *testing.T) {
	held := perm.NewSet(false, []string{"user:*"})
	assert.True(t, perm.Resolve(held, perm.RequireAll("user:create", "user:delete")))
	assert.False(t, perm.Resolve(held, perm.RequireAll("user:create", "dept:list")))
}

func TestSetImmutableView(t *testing.T) {
	held := perm.NewSet(false, []string{"b", "a", "a", ""})
	assert.Equal(t, []string{"a", "b"}, held.Codes())
	assert.Equal(t, 2, held.Len())

	// Codes 返回副本，修改不影响集合
	view := held.Codes()
	view[0] = "c"
	assert.True(t, held.Has("a"))
}
