package perm_test

import (
	"testing"

	"github.com/goadmin/pkg/perm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() *perm.Catalog {
	return perm.NewCatalog([]*perm.Def{
		{ID: 1, Name: "系统管理", Type: perm.TypeDirectory, Enabled: true},
		{ID: 2, ParentID: 1, Name: "用户管理", Code: "user:list", Type: perm.TypeMenu, Enabled: true},
		{ID: 3, ParentID: 2, Name: "新增用户", Code: "user:create", Type: perm.TypeButton, Enabled: true},
		{ID: 4, ParentID: 2, Name: "删除用户", Code: "user:delete", Type: perm.TypeButton, Enabled: false},
	})
}

func TestCatalogLookup(t *testing.T) {
	c := sampleCatalog()

	d, ok := c.ByID(3)
	require.True(t, ok)
	assert.Equal(t, "user:create", d.Code)

	d, ok = c.ByCode("user:list")
	require.True(t, ok)
	assert.EqualValues(t, 2, d.ID)

	_, ok = c.ByCode("nope")
	assert.False(t, ok)
}

func TestCatalogGrantableCodes(t *testing.T) {
	// 目录不可授权，禁用定义不可授权
	codes := sampleCatalog().GrantableCodes()
	assert.ElementsMatch(t, []string{"user:list", "user:create"}, codes)
}

func TestDefTypeString(t *testing.T) {
	assert.Equal(t, "directory", perm.TypeDirectory.String())
	assert.Equal(t, "menu", perm.TypeMenu.String())
	assert.Equal(t, "button", perm.TypeButton.String())
}
