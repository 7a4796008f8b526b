package user

import (
	"context"
	"strconv"
	"strings"

	"github.com/goadmin/pkg/auth"
	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/pkg/errors"
	"github.com/goadmin/pkg/middleware"
	"github.com/goadmin/pkg/perm"
	"github.com/goadmin/pkg/response"
	"github.com/goadmin/pkg/router"
	"github.com/goadmin/pkg/utils"
	"github.com/goadmin/services/console/internal/model"
	"github.com/gofiber/fiber/v2"
)

// Invalidator 用户权限缓存失效
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64) error
}

// Controller 用户控制器
type Controller struct {
	router.BaseController
	Repo Repository
	Perm Invalidator
}

// Prefix 路由前缀
func (c *Controller) Prefix() string {
	return "/users"
}

// Routes 路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	jwt := middlewares["jwt"]
	perms := middlewares["perms"]
	guard := func(code string) *[]fiber.Handler {
		return &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require(code))}
	}
	return []router.Route{
		{Method: "GET", Path: "", Handler: c.List, Middlewares: guard("system:user:list")},
		{Method: "GET", Path: "/:id", Handler: c.Get, Middlewares: guard("system:user:list")},
		{Method: "POST", Path: "", Handler: c.Create, Middlewares: guard("system:user:create")},
		{Method: "PUT", Path: "/:id", Handler: c.Update, Middlewares: guard("system:user:update")},
		{Method: "DELETE", Path: "/:id", Handler: c.Delete, Middlewares: guard("system:user:delete")},
		{Method: "PUT", Path: "/:id/password", Handler: c.ResetPassword, Middlewares: guard("system:user:update")},
	}
}

// List 用户分页列表
func (c *Controller) List(ctx *fiber.Ctx) error {
	var req ListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	pagination := dal.NewPagination(req.Page, req.PageSize)
	result, err := c.Repo.FindUsersPaged(ctx.UserContext(), req.Keyword, req.Status, req.DeptID, pagination)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	return response.SuccessPage(ctx, result.List, result.Total, result.Page, result.PageSize)
}

// Get 用户详情（含角色ID）
func (c *Controller) Get(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的用户ID")
	}

	user, err := c.Repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}
	if user == nil {
		return response.NotFound(ctx, "用户不存在")
	}

	roleIDs, err := c.Repo.RoleIDs(ctx.UserContext(), id)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	return response.Success(ctx, fiber.Map{
		"user":    user,
		"roleIds": roleIDs,
	})
}

// Create 创建用户
func (c *Controller) Create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	user, err := c.create(ctx.UserContext(), &req)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	return response.Success(ctx, user)
}

func (c *Controller) create(ctx context.Context, req *CreateRequest) (*model.User, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, errors.BadRequest("用户名和密码不能为空")
	}

	existing, err := c.Repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New(409, "用户名已存在")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		Password: hash,
		Nickname: req.Nickname,
		Email:    req.Email,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
		Status:   1,
		UserType: model.UserTypeNormal,
		DeptID:   req.DeptID,
	}
	if req.Status != nil {
		user.Status = *req.Status
	}

	if err := c.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if len(req.RoleIDs) > 0 {
		if err := c.Repo.ReplaceRoles(ctx, user.ID, utils.Unique(req.RoleIDs)); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// Update 更新用户
// 角色或状态变化后失效该用户的权限缓存。
func (c *Controller) Update(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的用户ID")
	}

	var req UpdateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	user, err := c.update(ctx.UserContext(), id, &req)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	_ = c.Perm.InvalidateUser(ctx.UserContext(), id)
	return response.Success(ctx, user)
}

func (c *Controller) update(ctx context.Context, id int64, req *UpdateRequest) (*model.User, error) {
	user, err := c.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NotFound("用户")
	}

	if req.Nickname != "" {
		user.Nickname = req.Nickname
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.DeptID != nil {
		user.DeptID = *req.DeptID
	}

	if err := c.Repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if req.RoleIDs != nil {
		if err := c.Repo.ReplaceRoles(ctx, id, utils.Unique(req.RoleIDs)); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// Delete 删除用户
func (c *Controller) Delete(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的用户ID")
	}

	user, err := c.Repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}
	if user == nil {
		return response.NotFound(ctx, "用户不存在")
	}
	if user.IsSuperAdmin() {
		return response.Forbidden(ctx, "不能删除超级管理员")
	}

	if err := c.Repo.DeleteWithRoles(ctx.UserContext(), id); err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	_ = c.Perm.InvalidateUser(ctx.UserContext(), id)
	return response.Success(ctx, nil)
}

// ResetPassword 重置用户密码
func (c *Controller) ResetPassword(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的用户ID")
	}

	var req ResetPasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}
	if len(req.Password) < 6 {
		return response.ValidateError(ctx, "密码长度至少6位")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	if err := c.Repo.UpdateFields(ctx.UserContext(), id, map[string]interface{}{"password": hash}); err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	return response.Success(ctx, nil)
}
