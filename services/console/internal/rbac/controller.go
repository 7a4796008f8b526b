package rbac

import (
	"context"
	"strconv"
	"strings"

	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/pkg/errors"
	"github.com/goadmin/pkg/lifecycle"
	"github.com/goadmin/pkg/middleware"
	"github.com/goadmin/pkg/perm"
	"github.com/goadmin/pkg/response"
	"github.com/goadmin/pkg/router"
	"github.com/goadmin/pkg/utils"
	"github.com/goadmin/services/console/internal/model"
	"github.com/gofiber/fiber/v2"
)

// Controller 角色与授权控制器
type Controller struct {
	router.BaseController
	Repo Repository
	Perm *PermissionService
}

// Prefix 路由前缀
func (c *Controller) Prefix() string {
	return "/roles"
}

// Routes 路由配置
// 权限目录相关路由为绝对路径，注册在 /permissions 下。
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	jwt := middlewares["jwt"]
	perms := middlewares["perms"]
	roleRead := &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:role:list"))}
	roleWrite := func(code string) *[]fiber.Handler {
		return &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require(code))}
	}
	return []router.Route{
		{Method: "GET", Path: "", Handler: c.ListRoles, Middlewares: roleRead},
		{Method: "GET", Path: "/:id", Handler: c.GetRole, Middlewares: roleRead},
		{Method: "POST", Path: "", Handler: c.CreateRole, Middlewares: roleWrite("system:role:create")},
		{Method: "PUT", Path: "/:id", Handler: c.UpdateRole, Middlewares: roleWrite("system:role:update")},
		{Method: "DELETE", Path: "/:id", Handler: c.DeleteRole, Middlewares: roleWrite("system:role:delete")},
		{Method: "GET", Path: "/:id/menus", Handler: c.CheckedMenus, Middlewares: roleRead},
		{Method: "PUT", Path: "/:id/menus", Handler: c.AssignMenus, Middlewares: roleWrite("system:role:assign")},
		{Method: "GET", Path: "/permissions/tree", Absolute: true, Handler: c.CatalogTree, Middlewares: roleRead},
		{Method: "GET", Path: "/permissions/codes", Absolute: true, Handler: c.GrantableCodes, Middlewares: roleRead},
	}
}

// ListRoles 角色分页列表
func (c *Controller) ListRoles(ctx *fiber.Ctx) error {
	var req ListRoleRequest
	if err := ctx.QueryParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	pagination := dal.NewPagination(req.Page, req.PageSize)
	result, err := c.Repo.FindRolesPaged(ctx.UserContext(), req.Name, req.Status, pagination)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	return response.SuccessPage(ctx, result.List, result.Total, result.Page, result.PageSize)
}

// GetRole 角色详情
func (c *Controller) GetRole(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的角色ID")
	}

	role, err := c.Repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}
	if role == nil {
		return response.NotFound(ctx, "角色不存在")
	}

	return response.Success(ctx, role)
}

// CreateRole 创建角色
func (c *Controller) CreateRole(ctx *fiber.Ctx) error {
	var req CreateRoleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	role, err := c.createRole(ctx.UserContext(), &req)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	return response.Success(ctx, role)
}

func (c *Controller) createRole(ctx context.Context, req *CreateRoleRequest) (*model.Role, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Code) == "" {
		return nil, errors.BadRequest("角色名称和编码不能为空")
	}

	exists, err := c.Repo.Exists(ctx, map[string]interface{}{"code": req.Code})
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New(409, "角色编码已存在")
	}

	role := &model.Role{
		Name:        req.Name,
		Code:        req.Code,
		Status:      1,
		Sort:        req.Sort,
		Description: req.Description,
	}
	if req.Status != nil {
		role.Status = *req.Status
	}

	if err := c.Repo.Create(ctx, role); err != nil {
		return nil, err
	}

	return role, nil
}

// UpdateRole 更新角色
// 角色状态变化影响其下用户的权限集合，需整体失效缓存。
func (c *Controller) UpdateRole(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的角色ID")
	}

	var req UpdateRoleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	role, err := c.updateRole(ctx.UserContext(), id, &req)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	c.invalidate(ctx.UserContext())
	return response.Success(ctx, role)
}

func (c *Controller) updateRole(ctx context.Context, id int64, req *UpdateRoleRequest) (*model.Role, error) {
	role, err := c.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, errors.NotFound("角色")
	}

	if req.Name != "" {
		role.Name = req.Name
	}
	if req.Code != "" && req.Code != role.Code {
		exists, err := c.Repo.Exists(ctx, map[string]interface{}{"code": req.Code})
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errors.New(409, "角色编码已存在")
		}
		role.Code = req.Code
	}
	if req.Status != nil {
		role.Status = *req.Status
	}
	if req.Sort != nil {
		role.Sort = *req.Sort
	}
	if req.Description != "" {
		role.Description = req.Description
	}

	if err := c.Repo.Update(ctx, role); err != nil {
		return nil, err
	}

	return role, nil
}

// DeleteRole 删除角色
// 角色下仍有用户时拒绝删除。
func (c *Controller) DeleteRole(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的角色ID")
	}

	if err := c.deleteRole(ctx.UserContext(), id); err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	c.invalidate(ctx.UserContext())
	return response.Success(ctx, nil)
}

func (c *Controller) deleteRole(ctx context.Context, id int64) error {
	role, err := c.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if role == nil {
		return errors.NotFound("角色")
	}

	users, err := c.Repo.CountRoleUsers(ctx, id)
	if err != nil {
		return err
	}
	if users > 0 {
		return errors.BadRequest("角色下存在用户，无法删除")
	}

	return c.Repo.DeleteWithGrants(ctx, id)
}

// CheckedMenus 角色已授权的菜单
func (c *Controller) CheckedMenus(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的角色ID")
	}

	menuIDs, err := c.Repo.MenuIDsByRole(ctx.UserContext(), id)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	keys := utils.Map(menuIDs, func(mid int64) string { return strconv.FormatInt(mid, 10) })

	return response.Success(ctx, &CheckedKeysResponse{MenuIDs: menuIDs, CheckedKeys: keys})
}

// AssignMenus 整体替换角色授权
func (c *Controller) AssignMenus(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的角色ID")
	}

	var req AssignMenusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	role, err := c.Repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}
	if role == nil {
		return response.NotFound(ctx, "角色不存在")
	}

	if err := c.Repo.ReplaceMenus(ctx.UserContext(), id, req.MenuIDs); err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	c.invalidate(ctx.UserContext())
	return response.Success(ctx, nil)
}

// CatalogTree 权限目录树
func (c *Controller) CatalogTree(ctx *fiber.Ctx) error {
	var req CatalogTreeRequest
	if err := ctx.QueryParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	nodes, keys, err := c.Perm.CatalogTree(ctx.UserContext(), req.Keyword)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	resp := &CatalogTreeResponse{List: nodes, Total: len(keys)}
	if strings.TrimSpace(req.Keyword) != "" {
		resp.ExpandedKeys = keys
	}

	return response.Success(ctx, resp)
}

// GrantableCodes 可授权的权限码（启用的非目录节点）
func (c *Controller) GrantableCodes(ctx *fiber.Ctx) error {
	catalog, err := c.Perm.Catalog(ctx.UserContext())
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	return response.Success(ctx, catalog.GrantableCodes())
}

// invalidate 授权变更后失效全部权限缓存并广播
func (c *Controller) invalidate(ctx context.Context) {
	_ = c.Perm.InvalidateAll(ctx)
	_ = c.Invalidate(ctx, lifecycle.ModuleRBAC, "")
}
