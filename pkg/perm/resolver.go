package perm

import "strings"

// UniversalWildcard 全局通配权限码
const UniversalWildcard = "*:*:*"

// wildcardSuffix 前缀通配后缀
const wildcardSuffix = ":*"

// Combinator 多权限码组合方式
type Combinator int8

const (
	// Any 任一满足即通过；空列表恒为 false
	Any Combinator = iota + 1
	// All 全部满足才通过；空列表恒为 true（标准量词语义）
	All
)

// Requirement 权限要求：单个权限码或带组合方式的权限码列表
type Requirement struct {
	Codes      []string   `json:"codes"`
	Combinator Combinator `json:"combinator"`
}

// Require 单个权限码要求
func Require(code string) Requirement {
	return Requirement{Codes: []string{code}, Combinator: Any}
}

// RequireAny 任一满足的权限要求
func RequireAny(codes ...string) Requirement {
	return Requirement{Codes: codes, Combinator: Any}
}

// RequireAll 全部满足的权限要求
func RequireAll(codes ...string) Requirement {
	return Requirement{Codes: codes, Combinator: All}
}

// Resolve 判定持有的权限集合是否满足权限要求
// 纯函数，不修改 held。判定优先级：
//  1. held 为 nil（无会话）恒为 false
//  2. 超级管理员无条件放行
//  3. 逐码判定：精确匹配 / 全局通配 / 前缀通配
//  4. Any 至少一个满足，All 全部满足（空列表按量词语义）
func Resolve(held *Set, req Requirement) bool {
	if held == nil {
		return false
	}
	if held.superAdmin {
		return true
	}
	if req.Combinator == All {
		for _, code := range req.Codes {
			if !resolveCode(held, code) {
				return false
			}
		}
		return true
	}
	for _, code := range req.Codes {
		if resolveCode(held, code) {
			return true
		}
	}
	return false
}

// resolveCode 判定单个权限码
func resolveCode(held *Set, code string) bool {
	if code == "" {
		return false
	}
	if held.Has(code) {
		return true
	}
	if held.Has(UniversalWildcard) {
		return true
	}
	for granted := range held.codes {
		if !strings.HasSuffix(granted, wildcardSuffix) {
			continue
		}
		// user:* 满足 user:create，但不满足裸 user，
		// 也不满足 users:create：前缀必须连同分隔符整体匹配
		prefix := granted[:len(granted)-1]
		if len(code) > len(prefix) && strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}
