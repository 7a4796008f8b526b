package rbac_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/goadmin/pkg/database"
	"github.com/goadmin/services/console/internal/menu"
	"github.com/goadmin/services/console/internal/model"
	"github.com/goadmin/services/console/internal/rbac"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*rbac.PermissionService, rbac.Repository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.UserRole{},
		&model.Menu{},
		&model.Role{}, &model.RoleMenu{},
	))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := rbac.NewRepositoryWithDB(db)
	menuRepo := menu.NewRepositoryWithDB(db)
	cache := database.NewCacheWithClient(client, rbac.CachePrefix)

	svc := rbac.NewPermissionService(repo, menuRepo, cache, time.Minute)
	return svc, repo, db
}

// seedRBAC 构造一套典型授权数据：
//
//	用户 alice(普通) 持有角色 operator
//	operator 授权 系统管理/用户管理 菜单及其 新增 按钮
func seedRBAC(t *testing.T, db *gorm.DB) (alice, root model.User) {
	t.Helper()

	dir := model.Menu{ParentID: 0, Name: "系统管理", Type: model.MenuTypeDirectory, Status: 1, Visible: 1}
	require.NoError(t, db.Create(&dir).Error)
	page := model.Menu{ParentID: dir.ID, Name: "用户管理", Type: model.MenuTypeMenu, Status: 1, Visible: 1, PermCode: "system:user:list"}
	require.NoError(t, db.Create(&page).Error)
	btn := model.Menu{ParentID: page.ID, Name: "新增用户", Type: model.MenuTypeButton, Status: 1, Visible: 1, PermCode: "system:user:create"}
	require.NoError(t, db.Create(&btn).Error)
	disabled := model.Menu{ParentID: page.ID, Name: "删除用户", Type: model.MenuTypeButton, Status: 0, Visible: 1, PermCode: "system:user:delete"}
	require.NoError(t, db.Create(&disabled).Error)

	operator := model.Role{Name: "运营", Code: "operator", Status: 1}
	require.NoError(t, db.Create(&operator).Error)
	for _, menuID := range []int64{dir.ID, page.ID, btn.ID, disabled.ID} {
		require.NoError(t, db.Create(&model.RoleMenu{RoleID: operator.ID, MenuID: menuID}).Error)
	}

	alice = model.User{Username: "alice", Password: "x", Status: 1, UserType: model.UserTypeNormal}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&model.UserRole{UserID: alice.ID, RoleID: operator.ID}).Error)

	root = model.User{Username: "root", Password: "x", Status: 1, UserType: model.UserTypeSuperAdmin}
	require.NoError(t, db.Create(&root).Error)

	return alice, root
}

func TestBuildUserSetAssemblesRoleGrants(t *testing.T) {
	svc, _, db := setupService(t)
	alice, _ := seedRBAC(t, db)

	set, err := svc.BuildUserSet(context.Background(), alice.ID)
	require.NoError(t, err)

	assert.False(t, set.SuperAdmin())
	assert.True(t, set.Has("system:user:list"))
	assert.True(t, set.Has("system:user:create"))
	// 禁用菜单上的权限码不进集合
	assert.False(t, set.Has("system:user:delete"))
	// 目录节点无权限码
	assert.Equal(t, 2, set.Len())
}

func TestBuildUserSetSuperAdmin(t *testing.T) {
	svc, _, db := setupService(t)
	_, root := seedRBAC(t, db)

	set, err := svc.BuildUserSet(context.Background(), root.ID)
	require.NoError(t, err)
	assert.True(t, set.SuperAdmin())
}

func TestBuildUserSetDisabledRole(t *testing.T) {
	svc, _, db := setupService(t)
	alice, _ := seedRBAC(t, db)

	require.NoError(t, db.Model(&model.Role{}).Where("code = ?", "operator").Update("status", 0).Error)

	set, err := svc.BuildUserSet(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.False(t, set.Has("system:user:list"))
}

func TestBuildUserSetDisabledUser(t *testing.T) {
	svc, _, db := setupService(t)
	alice, _ := seedRBAC(t, db)

	require.NoError(t, db.Model(&model.User{}).Where("id = ?", alice.ID).Update("status", 0).Error)

	set, err := svc.BuildUserSet(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestLoadCachesResult(t *testing.T) {
	svc, _, db := setupService(t)
	alice, _ := seedRBAC(t, db)
	ctx := context.Background()

	set, err := svc.Load(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.True(t, set.Has("system:user:list"))

	// 清空授权后缓存仍然命中旧集合
	require.NoError(t, db.Where("1 = 1").Delete(&model.RoleMenu{}).Error)

	cached, err := svc.Load(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.True(t, cached.Has("system:user:list"))

	// 失效后重新装配
	require.NoError(t, svc.InvalidateUser(ctx, alice.ID))
	fresh, err := svc.Load(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.False(t, fresh.Has("system:user:list"))
}

func TestLoadSuperAdminSkipsDatabase(t *testing.T) {
	svc, _, _ := setupService(t)

	// 用户不存在也能拿到全通过集合
	set, err := svc.Load(context.Background(), 999, true)
	require.NoError(t, err)
	assert.True(t, set.SuperAdmin())
}

func TestInvalidateAllClearsEveryUser(t *testing.T) {
	svc, _, db := setupService(t)
	alice, _ := seedRBAC(t, db)
	ctx := context.Background()

	_, err := svc.Load(ctx, alice.ID, false)
	require.NoError(t, err)

	require.NoError(t, db.Where("1 = 1").Delete(&model.RoleMenu{}).Error)
	require.NoError(t, svc.InvalidateAll(ctx))

	fresh, err := svc.Load(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Len())
}

func TestUserMenuIDs(t *testing.T) {
	svc, _, db := setupService(t)
	alice, root := seedRBAC(t, db)
	ctx := context.Background()

	ids, err := svc.UserMenuIDs(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Len(t, ids, 4)

	all, err := svc.UserMenuIDs(ctx, root.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCatalogTreeFiltersAndMemoizes(t *testing.T) {
	svc, _, db := setupService(t)
	seedRBAC(t, db)
	ctx := context.Background()

	nodes, keys, err := svc.CatalogTree(ctx, "用户管理")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "系统管理", nodes[0].Label)
	require.Len(t, nodes[0].Children, 1)
	assert.Equal(t, "用户管理", nodes[0].Children[0].Label)
	assert.Equal(t, "系统管理 / 用户管理", nodes[0].Children[0].FullPath)
	assert.Len(t, keys, 2)

	// 相同关键字返回记忆化的同一结果
	again, _, err := svc.CatalogTree(ctx, "用户管理")
	require.NoError(t, err)
	assert.Same(t, nodes[0], again[0])
}

func TestCatalogGrantableCodes(t *testing.T) {
	svc, _, db := setupService(t)
	seedRBAC(t, db)

	catalog, err := svc.Catalog(context.Background())
	require.NoError(t, err)

	codes := catalog.GrantableCodes()
	assert.Contains(t, codes, "system:user:list")
	assert.Contains(t, codes, "system:user:create")
	// 禁用节点不可授权
	assert.NotContains(t, codes, "system:user:delete")
}

func TestResetCatalogRebuilds(t *testing.T) {
	svc, _, db := setupService(t)
	seedRBAC(t, db)
	ctx := context.Background()

	nodes, _, err := svc.CatalogTree(ctx, "")
	require.NoError(t, err)
	before := len(nodes)

	extra := model.Menu{ParentID: 0, Name: "监控中心", Type: model.MenuTypeDirectory, Status: 1, Visible: 1}
	require.NoError(t, db.Create(&extra).Error)

	// 未重置时仍是旧快照
	stale, _, err := svc.CatalogTree(ctx, "")
	require.NoError(t, err)
	assert.Len(t, stale, before)

	svc.ResetCatalog()
	fresh, _, err := svc.CatalogTree(ctx, "")
	require.NoError(t, err)
	assert.Len(t, fresh, before+1)
}
