package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(409, "角色编码已存在")

	assert.Equal(t, 409, err.Code)
	assert.Equal(t, "角色编码已存在", err.Message)
	assert.Equal(t, "[409] 角色编码已存在", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := Wrap(cause, 500, "数据库连接失败")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 500, GetCode(err))
	assert.Equal(t, "数据库连接失败", GetMessage(err))
}

func TestGetCodeUnwrapsNestedError(t *testing.T) {
	// AppError 被再次包装后仍能取到原始错误码
	inner := BadRequest("父菜单不能是自身的下级")
	outer := Wrap(inner, 500, "更新失败")

	var appErr *AppError
	require.True(t, stderrors.As(outer, &appErr))
	assert.Equal(t, 500, GetCode(outer))
	assert.Equal(t, 400, GetCode(inner))
}

func TestGetCodeDefaultsForPlainError(t *testing.T) {
	err := stderrors.New("boom")

	assert.Equal(t, 500, GetCode(err))
	assert.Equal(t, "boom", GetMessage(err))
}

func TestConstructors(t *testing.T) {
	nf := NotFound("菜单")
	assert.Equal(t, 404, nf.Code)
	assert.Equal(t, "菜单不存在", nf.Message)

	br := BadRequest("无效的菜单类型")
	assert.Equal(t, 400, br.Code)

	fb := Forbidden("没有访问权限")
	assert.Equal(t, 403, fb.Code)
}
