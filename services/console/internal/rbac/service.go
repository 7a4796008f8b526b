package rbac

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/goadmin/pkg/database"
	"github.com/goadmin/pkg/errors"
	"github.com/goadmin/pkg/logger"
	"github.com/goadmin/pkg/perm"
	"github.com/goadmin/pkg/tree"
	"github.com/goadmin/services/console/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachePrefix 用户权限集合的Redis键前缀，完整键形如 user_perms:<userID>
const CachePrefix = "user_perms"

// MenuSource 权限目录的数据来源
type MenuSource interface {
	FindAllOrdered(ctx context.Context) ([]model.Menu, error)
}

// cachedSet 权限集合的缓存载体
type cachedSet struct {
	SuperAdmin bool     `json:"superAdmin"`
	Codes      []string `json:"codes"`
}

// PermissionService 权限集合装配与缓存
//
// 装配链路：用户 -> 启用角色 -> 角色授权的菜单 -> 启用菜单上的权限码。
// 结果按用户缓存在Redis，角色/菜单变更后整体失效。
type PermissionService struct {
	repo  Repository
	menus MenuSource
	cache *database.Cache
	ttl   time.Duration

	mu      sync.Mutex
	memo    *tree.FilterMemo
	catalog *perm.Catalog
}

// NewPermissionService 创建权限服务
func NewPermissionService(repo Repository, menus MenuSource, cache *database.Cache, ttl time.Duration) *PermissionService {
	return &PermissionService{
		repo:  repo,
		menus: menus,
		cache: cache,
		ttl:   ttl,
	}
}

// Load 装配用户权限集合，优先读缓存
// 超级管理员不查库，直接返回全通过集合。
func (s *PermissionService) Load(ctx context.Context, userID int64, superAdmin bool) (*perm.Set, error) {
	if superAdmin {
		return perm.NewSet(true, nil), nil
	}

	key := strconv.FormatInt(userID, 10)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var cached cachedSet
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return perm.NewSet(cached.SuperAdmin, cached.Codes), nil
		}
		logger.Warn("权限缓存数据损坏，重新装配", zap.Int64("userId", userID))
	} else if err != redis.Nil {
		logger.Warn("读取权限缓存失败", zap.Error(err), zap.Int64("userId", userID))
	}

	set, err := s.BuildUserSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cachedSet{SuperAdmin: set.SuperAdmin(), Codes: set.Codes()})
	if err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			logger.Warn("写入权限缓存失败", zap.Error(err), zap.Int64("userId", userID))
		}
	}

	return set, nil
}

// BuildUserSet 从数据库装配用户权限集合
func (s *PermissionService) BuildUserSet(ctx context.Context, userID int64) (*perm.Set, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NotFound("用户")
	}
	if user.IsSuperAdmin() {
		return perm.NewSet(true, nil), nil
	}
	if user.Status != 1 {
		// 禁用用户装配为空集合，判定一律拒绝
		return perm.NewSet(false, nil), nil
	}

	roleIDs, err := s.repo.UserRoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	menuIDs, err := s.repo.MenuIDsByRoles(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	if len(menuIDs) == 0 {
		return perm.NewSet(false, nil), nil
	}

	granted := make(map[int64]struct{}, len(menuIDs))
	for _, id := range menuIDs {
		granted[id] = struct{}{}
	}

	menus, err := s.menus.FindAllOrdered(ctx)
	if err != nil {
		return nil, err
	}

	var codes []string
	for i := range menus {
		m := &menus[i]
		if _, ok := granted[m.ID]; !ok {
			continue
		}
		if m.Status != 1 || m.PermCode == "" {
			continue
		}
		codes = append(codes, m.PermCode)
	}

	return perm.NewSet(false, codes), nil
}

// UserMenuIDs 查询用户被授权的菜单ID集合
// 超级管理员返回全量菜单。
func (s *PermissionService) UserMenuIDs(ctx context.Context, userID int64, superAdmin bool) (map[int64]struct{}, error) {
	if superAdmin {
		menus, err := s.menus.FindAllOrdered(ctx)
		if err != nil {
			return nil, err
		}
		ids := make(map[int64]struct{}, len(menus))
		for i := range menus {
			ids[menus[i].ID] = struct{}{}
		}
		return ids, nil
	}

	roleIDs, err := s.repo.UserRoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	menuIDs, err := s.repo.MenuIDsByRoles(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{}, len(menuIDs))
	for _, id := range menuIDs {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// InvalidateUser 失效单个用户的权限缓存
func (s *PermissionService) InvalidateUser(ctx context.Context, userID int64) error {
	return s.cache.Del(ctx, strconv.FormatInt(userID, 10))
}

// InvalidateAll 失效全部用户的权限缓存并重置本地目录
func (s *PermissionService) InvalidateAll(ctx context.Context) error {
	s.ResetCatalog()
	return s.cache.DelPattern(ctx, "*")
}

// ResetCatalog 丢弃本地权限目录快照，下次访问时重建
func (s *PermissionService) ResetCatalog() {
	s.mu.Lock()
	s.memo = nil
	s.catalog = nil
	s.mu.Unlock()
}

// ensureCatalog 构建并缓存权限目录快照
func (s *PermissionService) ensureCatalog(ctx context.Context) (*perm.Catalog, *tree.FilterMemo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil && s.memo != nil {
		return s.catalog, s.memo, nil
	}

	menus, err := s.menus.FindAllOrdered(ctx)
	if err != nil {
		return nil, nil, err
	}

	defs := model.PermDefs(menus)
	catalog := perm.NewCatalog(defs)

	entities := make([]tree.Entity, len(defs))
	for i := range defs {
		entities[i] = DefEntity{Def: defs[i]}
	}
	nodes, report := tree.Build(entities, tree.Options{})
	if report.Warnings() {
		logger.Warn("权限目录数据存在完整性问题",
			zap.Int("skipped", report.Skipped),
			zap.Strings("cycles", report.Cycles),
		)
	}

	s.catalog = catalog
	s.memo = tree.NewFilterMemo(nodes)
	return s.catalog, s.memo, nil
}

// Catalog 权限目录
func (s *PermissionService) Catalog(ctx context.Context) (*perm.Catalog, error) {
	catalog, _, err := s.ensureCatalog(ctx)
	return catalog, err
}

// CatalogTree 权限目录树，按关键字过滤（结果带记忆化）
func (s *PermissionService) CatalogTree(ctx context.Context, keyword string) ([]*tree.Node, []string, error) {
	_, memo, err := s.ensureCatalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	return memo.Filter(keyword), memo.Keys(keyword), nil
}

// DefEntity 权限定义的树实体适配
type DefEntity struct {
	Def *perm.Def
}

func (e DefEntity) EntityID() string {
	if e.Def.ID == 0 {
		return ""
	}
	return e.Def.Key()
}

func (e DefEntity) EntityParentID() string {
	if e.Def.ParentID == 0 {
		return ""
	}
	return strconv.FormatInt(e.Def.ParentID, 10)
}

func (e DefEntity) EntityLabel() string   { return e.Def.Name }
func (e DefEntity) EntityCode() string    { return e.Def.Code }
func (e DefEntity) EntityEnabled() bool   { return e.Def.Enabled }
func (e DefEntity) EntityKind() string    { return "Permission" }
func (e DefEntity) Nested() []tree.Entity { return nil }
