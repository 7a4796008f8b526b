package menu

import (
	"context"
	"strconv"
	"strings"

	"github.com/goadmin/pkg/errors"
	"github.com/goadmin/pkg/lifecycle"
	"github.com/goadmin/pkg/logger"
	"github.com/goadmin/pkg/middleware"
	"github.com/goadmin/pkg/perm"
	"github.com/goadmin/pkg/response"
	"github.com/goadmin/pkg/router"
	"github.com/goadmin/pkg/tree"
	"github.com/goadmin/pkg/utils"
	"github.com/goadmin/services/console/internal/model"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Granter 查询用户被授权的菜单ID集合
type Granter interface {
	UserMenuIDs(ctx context.Context, userID int64, superAdmin bool) (map[int64]struct{}, error)
}

// Invalidator 权限缓存整体失效
type Invalidator interface {
	InvalidateAll(ctx context.Context) error
}

// Controller 菜单控制器
type Controller struct {
	router.BaseController
	Repo    Repository
	Granter Granter
	Perm    Invalidator
}

// Prefix 路由前缀
func (c *Controller) Prefix() string {
	return "/menus"
}

// Routes 路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	jwt := middlewares["jwt"]
	perms := middlewares["perms"]
	return []router.Route{
		{Method: "GET", Path: "/user", Handler: c.UserMenus, Middlewares: &[]fiber.Handler{jwt, perms}},
		{Method: "GET", Path: "/tree", Handler: c.Tree, Middlewares: &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:menu:list"))}},
		{Method: "GET", Path: "/:id", Handler: c.Get, Middlewares: &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:menu:list"))}},
		{Method: "POST", Path: "", Handler: c.Create, Middlewares: &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:menu:create"))}},
		{Method: "PUT", Path: "/:id", Handler: c.Update, Middlewares: &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:menu:update"))}},
		{Method: "DELETE", Path: "/:id", Handler: c.Delete, Middlewares: &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:menu:delete"))}},
	}
}

// Tree 菜单管理树
// 管理端视图：禁用节点带标记展示，支持关键字过滤。
func (c *Controller) Tree(ctx *fiber.Ctx) error {
	var req TreeRequest
	if err := ctx.QueryParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	menus, err := c.Repo.FindAllOrdered(ctx.UserContext())
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	nodes, report := tree.Build(model.MenuEntities(menus), tree.Options{OnlyEnabled: req.OnlyEnabled})
	if report.Warnings() {
		logger.Warn("菜单数据存在完整性问题",
			zap.Int("skipped", report.Skipped),
			zap.Strings("cycles", report.Cycles),
		)
	}

	resp := &TreeResponse{List: tree.Filter(nodes, req.Keyword)}
	resp.Total = tree.CountNodes(resp.List)
	if strings.TrimSpace(req.Keyword) != "" {
		resp.ExpandedKeys = tree.AllKeys(resp.List)
	}

	return response.Success(ctx, resp)
}

// UserMenus 当前用户的导航菜单树
// 超级管理员看到全部，其他用户只看到角色授权的菜单及其祖先。
func (c *Controller) UserMenus(ctx *fiber.Ctx) error {
	userID := middleware.GetUserID(ctx)
	superAdmin := middleware.GetSuperAdmin(ctx)

	nodes, err := c.userMenus(ctx.UserContext(), userID, superAdmin)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	return response.Success(ctx, nodes)
}

func (c *Controller) userMenus(ctx context.Context, userID int64, superAdmin bool) ([]*UserMenuNode, error) {
	menus, err := c.Repo.FindVisible(ctx)
	if err != nil {
		return nil, err
	}

	granted, err := c.Granter.UserMenuIDs(ctx, userID, superAdmin)
	if err != nil {
		return nil, err
	}

	return assembleUserTree(menus, granted, superAdmin), nil
}

// assembleUserTree 组装用户菜单树
// 无权限标识的菜单对所有登录用户可见；带标识的菜单需授权，
// 或有被保留的后代；目录只在留下至少一个子节点时保留。
func assembleUserTree(menus []model.Menu, granted map[int64]struct{}, all bool) []*UserMenuNode {
	children := make(map[int64][]*model.Menu)
	byID := make(map[int64]*model.Menu, len(menus))
	for i := range menus {
		m := &menus[i]
		byID[m.ID] = m
	}
	var roots []*model.Menu
	for i := range menus {
		m := &menus[i]
		if _, ok := byID[m.ParentID]; m.ParentID != 0 && ok {
			children[m.ParentID] = append(children[m.ParentID], m)
		} else {
			roots = append(roots, m)
		}
	}

	var build func(m *model.Menu) *UserMenuNode
	build = func(m *model.Menu) *UserMenuNode {
		node := &UserMenuNode{
			ID:        m.ID,
			ParentID:  m.ParentID,
			Name:      m.Name,
			Path:      m.Path,
			Component: m.Component,
			Icon:      m.Icon,
			Type:      m.Type,
			Redirect:  m.Redirect,
			Sort:      m.Sort,
		}
		for _, child := range children[m.ID] {
			if cn := build(child); cn != nil {
				node.Children = append(node.Children, cn)
			}
		}
		if !all {
			switch {
			case m.Type == model.MenuTypeDirectory:
				if len(node.Children) == 0 {
					return nil
				}
			case m.PermCode != "":
				if _, ok := granted[m.ID]; !ok && len(node.Children) == 0 {
					return nil
				}
			}
		}
		return node
	}

	// 入参已按 sort, id 排序，根节点顺序随之保持
	result := make([]*UserMenuNode, 0, len(roots))
	for _, r := range roots {
		if n := build(r); n != nil {
			result = append(result, n)
		}
	}
	return result
}

// Get 获取菜单详情
func (c *Controller) Get(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的菜单ID")
	}

	menu, err := c.Repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}
	if menu == nil {
		return response.NotFound(ctx, "菜单不存在")
	}

	return response.Success(ctx, menu)
}

// Create 创建菜单
func (c *Controller) Create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	menu, err := c.create(ctx.UserContext(), &req)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	c.invalidate(ctx.UserContext())
	return response.Success(ctx, menu)
}

func (c *Controller) create(ctx context.Context, req *CreateRequest) (*model.Menu, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.BadRequest("菜单名称不能为空")
	}
	if !utils.Contains([]int8{model.MenuTypeDirectory, model.MenuTypeMenu, model.MenuTypeButton}, req.Type) {
		return nil, errors.BadRequest("无效的菜单类型")
	}
	if req.Type == model.MenuTypeButton && strings.TrimSpace(req.PermCode) == "" {
		return nil, errors.BadRequest("按钮必须配置权限标识")
	}

	if req.ParentID > 0 {
		parent, err := c.Repo.FindByID(ctx, req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, errors.BadRequest("父菜单不存在")
		}
		if parent.Type == model.MenuTypeButton {
			return nil, errors.BadRequest("按钮下不能挂子菜单")
		}
	}

	menu := &model.Menu{
		ParentID:  req.ParentID,
		Name:      req.Name,
		Path:      req.Path,
		Component: req.Component,
		Icon:      req.Icon,
		Type:      req.Type,
		Visible:   1,
		Status:    1,
		Redirect:  req.Redirect,
		Sort:      req.Sort,
		PermCode:  req.PermCode,
	}
	if req.Visible != nil {
		menu.Visible = *req.Visible
	}
	if req.Status != nil {
		menu.Status = *req.Status
	}

	if err := c.Repo.Create(ctx, menu); err != nil {
		return nil, err
	}

	return menu, nil
}

// Update 更新菜单
func (c *Controller) Update(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的菜单ID")
	}

	var req UpdateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	menu, err := c.update(ctx.UserContext(), id, &req)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	c.invalidate(ctx.UserContext())
	return response.Success(ctx, menu)
}

func (c *Controller) update(ctx context.Context, id int64, req *UpdateRequest) (*model.Menu, error) {
	menu, err := c.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if menu == nil {
		return nil, errors.NotFound("菜单")
	}

	if req.ParentID != nil && *req.ParentID != menu.ParentID {
		if err := c.checkParent(ctx, id, *req.ParentID); err != nil {
			return nil, err
		}
		menu.ParentID = *req.ParentID
	}
	if req.Name != "" {
		menu.Name = req.Name
	}
	if req.Path != "" {
		menu.Path = req.Path
	}
	if req.Component != "" {
		menu.Component = req.Component
	}
	if req.Icon != "" {
		menu.Icon = req.Icon
	}
	if req.Type != nil {
		menu.Type = *req.Type
	}
	if req.Visible != nil {
		menu.Visible = *req.Visible
	}
	if req.Status != nil {
		menu.Status = *req.Status
	}
	if req.Redirect != "" {
		menu.Redirect = req.Redirect
	}
	if req.Sort != nil {
		menu.Sort = *req.Sort
	}
	if req.PermCode != "" {
		menu.PermCode = req.PermCode
	}

	if err := c.Repo.Update(ctx, menu); err != nil {
		return nil, err
	}

	return menu, nil
}

// checkParent 校验父菜单调整不会形成环
// 新父节点必须存在、不能是按钮、不能是自身或自身的后代。
func (c *Controller) checkParent(ctx context.Context, id, parentID int64) error {
	if parentID == 0 {
		return nil
	}
	if parentID == id {
		return errors.BadRequest("父菜单不能是自身")
	}

	parent, err := c.Repo.FindByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return errors.BadRequest("父菜单不存在")
	}
	if parent.Type == model.MenuTypeButton {
		return errors.BadRequest("按钮下不能挂子菜单")
	}

	menus, err := c.Repo.FindAllOrdered(ctx)
	if err != nil {
		return err
	}
	parents := make(map[int64]int64, len(menus))
	for _, m := range menus {
		parents[m.ID] = m.ParentID
	}

	// 从新父节点沿父链向上，遇到自身说明成环
	seen := make(map[int64]struct{})
	for cur := parentID; cur != 0; cur = parents[cur] {
		if _, ok := seen[cur]; ok {
			break // 存量数据本身有环，不再继续
		}
		seen[cur] = struct{}{}
		if parents[cur] == id {
			return errors.BadRequest("父菜单不能是自身的下级")
		}
	}
	return nil
}

// Delete 删除菜单
// 存在子菜单时拒绝；角色授权关联随菜单一并清理。
func (c *Controller) Delete(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的菜单ID")
	}

	if err := c.delete(ctx.UserContext(), id); err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	c.invalidate(ctx.UserContext())
	return response.Success(ctx, nil)
}

func (c *Controller) delete(ctx context.Context, id int64) error {
	menu, err := c.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if menu == nil {
		return errors.NotFound("菜单")
	}

	children, err := c.Repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return errors.BadRequest("存在子菜单，无法删除")
	}

	return c.Repo.DeleteWithGrants(ctx, id)
}

// invalidate 菜单变更影响权限目录与用户权限集合
// 本节点直接失效，其他节点通过广播重建目录快照。
func (c *Controller) invalidate(ctx context.Context) {
	if c.Perm != nil {
		if err := c.Perm.InvalidateAll(ctx); err != nil {
			logger.Error("失效权限缓存失败", zap.Error(err))
		}
	}
	_ = c.Invalidate(ctx, lifecycle.ModuleMenu, "")
	_ = c.Invalidate(ctx, lifecycle.ModuleRBAC, "")
}
