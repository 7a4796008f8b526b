// Package perm 提供权限解析引擎
//
// 权限码为冒号分隔的字符串（如 user:create），支持前缀通配
// （user:* 满足 user:create、user:delete:batch）与全局通配 *:*:*。
// 用户权限集合在登录时整体构建、登出时整体丢弃，解析期间只读，
// 必须显式传递给调用方，核心逻辑不读取任何全局状态。
package perm

import "sort"

// Set 用户权限集合
// 会话级状态：登录时从认证身份一次性填充，登出/重新登录整体替换，
// 不做增量修改。零值不可用，必须经 NewSet 构建。
type Set struct {
	superAdmin bool
	codes      map[string]struct{}
}

// NewSet 构建权限集合
func NewSet(superAdmin bool, codes []string) *Set {
	s := &Set{
		superAdmin: superAdmin,
		codes:      make(map[string]struct{}, len(codes)),
	}
	for _, c := range codes {
		if c != "" {
			s.codes[c] = struct{}{}
		}
	}
	return s
}

// SuperAdmin 是否超级管理员（无条件放行）
func (s *Set) SuperAdmin() bool {
	return s.superAdmin
}

// Has 精确持有指定权限码
func (s *Set) Has(code string) bool {
	_, ok := s.codes[code]
	return ok
}

// Codes 持有的全部权限码（排序副本）
func (s *Set) Codes() []string {
	codes := make([]string, 0, len(s.codes))
	for c := range s.codes {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Len 持有的权限码数量
func (s *Set) Len() int {
	return len(s.codes)
}
