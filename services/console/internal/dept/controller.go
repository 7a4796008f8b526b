package dept

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

// Controller 部门控制器
type Controller struct {
	router.BaseController
	Repo Repository

	// 面包屑展示选项，零值使用树引擎默认
	Separator       string
	AbbrevThreshold int
}

// Prefix 路由前缀
func (c *Controller) Prefix() string {
	return "/depts"
}

// Routes 路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	jwt := middlewares["jwt"]
	perms := middlewares["perms"]
	return []router.Route{
		{Method: "GET", Path: "/tree", Handler: c.Tree, Middlewares: &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:dept:list"))}},
		{Method: "GET", Path: "", Handler: c.List, Middlewares: &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:dept:list"))}},
		{Method: "GET", Path: "/:id", Handler: c.Get, Middlewares: &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:dept:list"))}},
		{Method: "POST", Path: "", Handler: c.Create, Middlewares: &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:dept:create"))}},
		{Method: "PUT", Path: "/:id", Handler: c.Update, Middlewares: &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:dept:update"))}},
		{Method: "DELETE", Path: "/:id", Handler: c.Delete, Middlewares: &[]fiber.Handler{jwt, perms, middleware.Permission(perm.Require("system:dept:delete"))}},
	}
}

// Tree 部门树
// 支持关键字过滤（保留命中节点及其祖先链）与仅启用视图。
func (c *Controller) Tree(ctx *fiber.Ctx) error {
	var req TreeRequest
	if err := ctx.QueryParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	resp, err := c.buildTree(ctx.UserContext(), &req)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	return response.Success(ctx, resp)
}

func (c *Controller) buildTree(ctx context.Context, req *TreeRequest) (*TreeResponse, error) {
	depts, err := c.Repo.FindAllOrdered(ctx)
	if err != nil {
		return nil, err
	}

	opts := tree.Options{OnlyEnabled: req.OnlyEnabled, Separator: c.Separator}
	if c.AbbrevThreshold > 0 {
		opts.LabelFormatter = tree.AbbrevFormatter(c.AbbrevThreshold)
	}
	if req.ExcludeID > 0 {
		opts.ExcludeIDs = []string{strconv.FormatInt(req.ExcludeID, 10)}
	}

	nodes, report := tree.Build(model.DeptEntities(depts), opts)
	if report.Warnings() {
		logger.Warn("部门数据存在完整性问题",
			zap.Int("skipped", report.Skipped),
			zap.Strings("cycles", report.Cycles),
		)
	}

	resp := &TreeResponse{List: tree.Filter(nodes, req.Keyword)}
	resp.Total = tree.CountNodes(resp.List)
	if strings.TrimSpace(req.Keyword) != "" {
		resp.ExpandedKeys = tree.AllKeys(resp.List)
	}
	return resp, nil
}

// List 部门列表（扁平）
func (c *Controller) List(ctx *fiber.Ctx) error {
	var req ListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	conditions := make(map[string]interface{})
	if req.Status != nil {
		conditions["status"] = *req.Status
	}

	depts, err := c.Repo.FindAll(ctx.UserContext(), conditions)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	if req.Name != "" {
		depts = filterByName(depts, req.Name)
	}

	return response.Success(ctx, depts)
}

func filterByName(depts []model.Dept, name string) []model.Dept {
	keyword := strings.ToLower(name)
	return utils.Filter(depts, func(d model.Dept) bool {
		return strings.Contains(strings.ToLower(d.Name), keyword)
	})
}

// Get 获取部门详情
func (c *Controller) Get(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的部门ID")
	}

	dept, err := c.Repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}
	if dept == nil {
		return response.NotFound(ctx, "部门不存在")
	}

	return response.Success(ctx, dept)
}

// Create 创建部门
func (c *Controller) Create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	dept, err := c.create(ctx.UserContext(), &req)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	_ = c.Invalidate(ctx.UserContext(), lifecycle.ModuleDept, "")
	return response.Success(ctx, dept)
}

func (c *Controller) create(ctx context.Context, req *CreateRequest) (*model.Dept, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.BadRequest("部门名称不能为空")
	}

	if req.ParentID > 0 {
		parent, err := c.Repo.FindByID(ctx, req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, errors.BadRequest("父部门不存在")
		}
	}

	dept := &model.Dept{
		ParentID: req.ParentID,
		Name:     req.Name,
		Code:     req.Code,
		Sort:     req.Sort,
		Leader:   req.Leader,
		Phone:    req.Phone,
		Email:    req.Email,
		Status:   1,
	}
	if req.Status != nil {
		dept.Status = *req.Status
	}

	if err := c.Repo.Create(ctx, dept); err != nil {
		return nil, err
	}

	return dept, nil
}

// Update 更新部门
func (c *Controller) Update(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的部门ID")
	}

	var req UpdateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	dept, err := c.update(ctx.UserContext(), id, &req)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	_ = c.Invalidate(ctx.UserContext(), lifecycle.ModuleDept, "")
	return response.Success(ctx, dept)
}

func (c *Controller) update(ctx context.Context, id int64, req *UpdateRequest) (*model.Dept, error) {
	dept, err := c.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dept == nil {
		return nil, errors.NotFound("部门")
	}

	if req.ParentID != nil && *req.ParentID != dept.ParentID {
		if err := c.checkParent(ctx, id, *req.ParentID); err != nil {
			return nil, err
		}
		dept.ParentID = *req.ParentID
	}
	if req.Name != "" {
		dept.Name = req.Name
	}
	if req.Code != "" {
		dept.Code = req.Code
	}
	if req.Sort != nil {
		dept.Sort = *req.Sort
	}
	if req.Leader != "" {
		dept.Leader = req.Leader
	}
	if req.Phone != "" {
		dept.Phone = req.Phone
	}
	if req.Email != "" {
		dept.Email = req.Email
	}
	if req.Status != nil {
		dept.Status = *req.Status
	}

	if err := c.Repo.Update(ctx, dept); err != nil {
		return nil, err
	}

	return dept, nil
}

// checkParent 校验父部门调整不会形成环
// 新父节点不能是自身，也不能是自身的后代。
func (c *Controller) checkParent(ctx context.Context, id, parentID int64) error {
	if parentID == 0 {
		return nil
	}
	if parentID == id {
		return errors.BadRequest("父部门不能是自身")
	}

	parent, err := c.Repo.FindByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return errors.BadRequest("父部门不存在")
	}

	depts, err := c.Repo.FindAllOrdered(ctx)
	if err != nil {
		return err
	}
	parents := make(map[int64]int64, len(depts))
	for _, d := range depts {
		parents[d.ID] = d.ParentID
	}

	// 从新父节点沿父链向上，遇到自身说明成环
	seen := make(map[int64]struct{})
	for cur := parentID; cur != 0; cur = parents[cur] {
		if _, ok := seen[cur]; ok {
			break // 存量数据本身有环，不再继续
		}
		seen[cur] = struct{}{}
		if parents[cur] == id {
			return errors.BadRequest("父部门不能是自身的下级")
		}
	}
	return nil
}

// Delete 删除部门
// 存在子部门或部门下仍有用户时拒绝删除。
func (c *Controller) Delete(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(ctx, "无效的部门ID")
	}

	if err := c.delete(ctx.UserContext(), id); err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	_ = c.Invalidate(ctx.UserContext(), lifecycle.ModuleDept, "")
	return response.Success(ctx, nil)
}

func (c *Controller) delete(ctx context.Context, id int64) error {
	dept, err := c.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if dept == nil {
		return errors.NotFound("部门")
	}

	children, err := c.Repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return errors.BadRequest("存在子部门，无法删除")
	}

	users, err := c.Repo.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if users > 0 {
		return errors.BadRequest("部门下存在用户，无法删除")
	}

	return c.Repo.Delete(ctx, id)
}
