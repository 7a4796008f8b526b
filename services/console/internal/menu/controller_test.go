package menu

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	pkgerrors "github.com/goadmin/pkg/errors"
	"github.com/goadmin/pkg/utils"
	"github.com/goadmin/services/console/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupController(t *testing.T) (*Controller, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Menu{}, &model.RoleMenu{}))

	return &Controller{Repo: NewRepositoryWithDB(db)}, db
}

// sampleMenus 与导航查询一致，按 sort, id 排序给出
func sampleMenus() []model.Menu {
	mk := func(id, parentID int64, name string, typ int8, code string, sort int) model.Menu {
		m := model.Menu{ParentID: parentID, Name: name, Type: typ, PermCode: code, Visible: 1, Status: 1, Sort: sort}
		m.ID = id
		return m
	}
	return []model.Menu{
		mk(2, 1, "用户管理", model.MenuTypeMenu, "system:user:list", 1),
		mk(4, 0, "工作台", model.MenuTypeMenu, "", 1),
		mk(1, 0, "系统管理", model.MenuTypeDirectory, "", 2),
		mk(3, 1, "角色管理", model.MenuTypeMenu, "system:role:list", 2),
	}
}

func grantedSet(ids ...int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestAssembleUserTreeKeepsGrantedBranches(t *testing.T) {
	// 授权 用户管理：其父目录因后代存活被保留，角色管理被裁掉
	nodes := assembleUserTree(sampleMenus(), grantedSet(2), false)

	require.Len(t, nodes, 2)
	assert.Equal(t, "工作台", nodes[0].Name)
	assert.Equal(t, "系统管理", nodes[1].Name)
	require.Len(t, nodes[1].Children, 1)
	assert.Equal(t, "用户管理", nodes[1].Children[0].Name)
}

func TestAssembleUserTreeGrantedLeafWithoutChildren(t *testing.T) {
	nodes := assembleUserTree(sampleMenus(), grantedSet(3), false)

	require.Len(t, nodes, 2)
	assert.Equal(t, "系统管理", nodes[1].Name)
	require.Len(t, nodes[1].Children, 1)
	assert.Equal(t, "角色管理", nodes[1].Children[0].Name)
	assert.Empty(t, nodes[1].Children[0].Children)
}

func TestAssembleUserTreeSuperAdminSeesAll(t *testing.T) {
	nodes := assembleUserTree(sampleMenus(), nil, true)

	require.Len(t, nodes, 2)
	// 查询已按 sort 排序，组树保持该顺序
	assert.Equal(t, "工作台", nodes[0].Name)
	assert.Equal(t, "系统管理", nodes[1].Name)
	assert.Len(t, nodes[1].Children, 2)
}

func TestAssembleUserTreePublicMenuWithoutGrants(t *testing.T) {
	// 无任何授权：无权限标识的 工作台 仍可见，
	// 带标识的菜单被裁掉，空目录随之剪除
	nodes := assembleUserTree(sampleMenus(), grantedSet(), false)

	require.Len(t, nodes, 1)
	assert.Equal(t, "工作台", nodes[0].Name)
	assert.Empty(t, nodes[0].Children)
}

func TestAssembleUserTreePrunesEmptyDirectory(t *testing.T) {
	menus := sampleMenus()
	empty := model.Menu{Name: "空目录", Type: model.MenuTypeDirectory, Visible: 1, Status: 1, Sort: 3}
	empty.ID = 9
	menus = append(menus, empty)

	nodes := assembleUserTree(menus, grantedSet(2), false)
	for _, n := range nodes {
		assert.NotEqual(t, "空目录", n.Name)
	}
}

func TestAssembleUserTreeOrphanParentBecomesRoot(t *testing.T) {
	menus := sampleMenus()
	// 父节点不可见时，子节点提升为根
	orphan := model.Menu{ParentID: 99, Name: "游离页", Type: model.MenuTypeMenu, PermCode: "demo:page:view", Visible: 1, Status: 1, Sort: 4}
	orphan.ID = 5
	menus = append(menus, orphan)

	nodes := assembleUserTree(menus, grantedSet(5), false)
	require.Len(t, nodes, 2)
	assert.Equal(t, "游离页", nodes[1].Name)
}

// seedMenuChain 系统管理 > 用户管理 > 新增用户（按钮）
func seedMenuChain(t *testing.T, db *gorm.DB) (dir, page, button model.Menu) {
	t.Helper()

	dir = model.Menu{Name: "系统管理", Type: model.MenuTypeDirectory, Visible: 1, Status: 1}
	require.NoError(t, db.Create(&dir).Error)
	page = model.Menu{ParentID: dir.ID, Name: "用户管理", Type: model.MenuTypeMenu, PermCode: "system:user:list", Visible: 1, Status: 1}
	require.NoError(t, db.Create(&page).Error)
	button = model.Menu{ParentID: page.ID, Name: "新增用户", Type: model.MenuTypeButton, PermCode: "system:user:create", Visible: 1, Status: 1}
	require.NoError(t, db.Create(&button).Error)
	return
}

func TestUpdateRejectsSelfParent(t *testing.T) {
	c, db := setupController(t)
	dir, _, _ := seedMenuChain(t, db)

	_, err := c.update(context.Background(), dir.ID, &UpdateRequest{ParentID: utils.Ptr(dir.ID)})
	require.Error(t, err)
	assert.Equal(t, 400, pkgerrors.GetCode(err))
}

func TestUpdateRejectsDescendantParent(t *testing.T) {
	c, db := setupController(t)
	dir, _, button := seedMenuChain(t, db)

	// 目录挂到自己的孙节点下会成环
	_, err := c.update(context.Background(), dir.ID, &UpdateRequest{ParentID: utils.Ptr(button.ID)})
	require.Error(t, err)
	assert.Equal(t, 400, pkgerrors.GetCode(err))

	// 数据未被改动
	stored, ferr := c.Repo.FindByID(context.Background(), dir.ID)
	require.NoError(t, ferr)
	assert.Equal(t, int64(0), stored.ParentID)
}

func TestUpdateRejectsMissingParent(t *testing.T) {
	c, db := setupController(t)
	_, page, _ := seedMenuChain(t, db)

	_, err := c.update(context.Background(), page.ID, &UpdateRequest{ParentID: utils.Ptr(int64(999))})
	require.Error(t, err)
	assert.Equal(t, 400, pkgerrors.GetCode(err))
}

func TestUpdateRejectsButtonParent(t *testing.T) {
	c, db := setupController(t)
	dir, _, button := seedMenuChain(t, db)

	other := model.Menu{ParentID: dir.ID, Name: "角色管理", Type: model.MenuTypeMenu, PermCode: "system:role:list", Visible: 1, Status: 1}
	require.NoError(t, db.Create(&other).Error)

	_, err := c.update(context.Background(), other.ID, &UpdateRequest{ParentID: utils.Ptr(button.ID)})
	require.Error(t, err)
	assert.Equal(t, 400, pkgerrors.GetCode(err))
}

func TestUpdateReparentToSibling(t *testing.T) {
	c, db := setupController(t)
	dir, page, _ := seedMenuChain(t, db)

	second := model.Menu{Name: "运营中心", Type: model.MenuTypeDirectory, Visible: 1, Status: 1}
	require.NoError(t, db.Create(&second).Error)

	updated, err := c.update(context.Background(), page.ID, &UpdateRequest{ParentID: utils.Ptr(second.ID)})
	require.NoError(t, err)
	assert.Equal(t, second.ID, updated.ParentID)
	assert.NotEqual(t, dir.ID, updated.ParentID)
}
