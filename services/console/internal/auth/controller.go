package auth

import (
	"strings"

	pkgAuth "github.com/goadmin/pkg/auth"
	"github.com/goadmin/pkg/logger"
	"github.com/goadmin/pkg/middleware"
	"github.com/goadmin/pkg/response"
	"github.com/goadmin/pkg/router"
	"github.com/goadmin/services/console/internal/rbac"
	"github.com/goadmin/services/console/internal/user"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token    *pkgAuth.TokenInfo `json:"token"`
	UserInfo *UserInfo          `json:"userInfo"`
}

// UserInfo 用户信息
type UserInfo struct {
	ID         int64    `json:"id"`
	Username   string   `json:"username"`
	Nickname   string   `json:"nickname"`
	Email      string   `json:"email"`
	Avatar     string   `json:"avatar"`
	SuperAdmin bool     `json:"superAdmin"`
	PermCodes  []string `json:"permCodes"`
}

// Controller 认证控制器
type Controller struct {
	router.BaseController
	Users      user.Repository
	JWTManager *pkgAuth.JWTManager
	Perm       *rbac.PermissionService
}

// Prefix 路由前缀
func (c *Controller) Prefix() string {
	return "/auth"
}

// Routes 路由配置
// 登录与刷新不要求认证，挂限流防止暴力尝试。
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	jwt := middlewares["jwt"]
	perms := middlewares["perms"]
	limit := middleware.NewRateLimiter(5, 10).Middleware()
	return []router.Route{
		{Method: "POST", Path: "/login", Handler: c.Login, Middlewares: &[]fiber.Handler{limit}},
		{Method: "POST", Path: "/refresh", Handler: c.Refresh, Middlewares: &[]fiber.Handler{limit}},
		{Method: "POST", Path: "/logout", Handler: c.Logout, Middlewares: &[]fiber.Handler{jwt}},
		{Method: "GET", Path: "/profile", Handler: c.Profile, Middlewares: &[]fiber.Handler{jwt, perms}},
	}
}

// Login 登录
// 密码校验通过后签发令牌，并随响应下发权限码供前端控制按钮可见性。
func (c *Controller) Login(ctx *fiber.Ctx) error {
	var req LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.ValidateError(ctx, err.Error())
	}

	u, err := c.Users.FindByUsername(ctx.UserContext(), req.Username)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}
	if u == nil || !pkgAuth.CheckPassword(req.Password, u.Password) {
		return response.Unauthorized(ctx, "用户名或密码错误")
	}
	if u.Status != 1 {
		return response.Forbidden(ctx, "用户已被禁用")
	}

	token, err := c.JWTManager.CreateTokenInfo(u.ID, u.Username, u.IsSuperAdmin())
	if err != nil {
		return response.ServerError(ctx, "生成令牌失败")
	}

	set, err := c.Perm.Load(ctx.UserContext(), u.ID, u.IsSuperAdmin())
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}

	logger.Info("用户登录", zap.String("username", u.Username), zap.Int64("userId", u.ID))

	return response.Success(ctx, &LoginResponse{
		Token: token,
		UserInfo: &UserInfo{
			ID:         u.ID,
			Username:   u.Username,
			Nickname:   u.Nickname,
			Email:      u.Email,
			Avatar:     u.Avatar,
			SuperAdmin: set.SuperAdmin(),
			PermCodes:  set.Codes(),
		},
	})
}

// Refresh 刷新令牌
func (c *Controller) Refresh(ctx *fiber.Ctx) error {
	token := strings.TrimPrefix(ctx.Get("Authorization"), "Bearer ")
	if token == "" {
		return response.Unauthorized(ctx, "未提供认证令牌")
	}

	newToken, err := c.JWTManager.RefreshToken(token)
	if err != nil {
		return response.Unauthorized(ctx, err.Error())
	}

	return response.Success(ctx, &pkgAuth.TokenInfo{
		AccessToken: newToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(c.JWTManager.GetExpireIn().Seconds()),
	})
}

// Logout 登出，清理该用户的权限缓存
func (c *Controller) Logout(ctx *fiber.Ctx) error {
	userID := middleware.GetUserID(ctx)
	if userID > 0 {
		_ = c.Perm.InvalidateUser(ctx.UserContext(), userID)
	}
	return response.Success(ctx, nil)
}

// Profile 当前用户信息与权限码
func (c *Controller) Profile(ctx *fiber.Ctx) error {
	userID := middleware.GetUserID(ctx)

	u, err := c.Users.FindByID(ctx.UserContext(), userID)
	if err != nil {
		return response.ErrorFromErr(ctx, err)
	}
	if u == nil {
		return response.NotFound(ctx, "用户不存在")
	}

	set := middleware.GetPermSet(ctx)
	info := &UserInfo{
		ID:         u.ID,
		Username:   u.Username,
		Nickname:   u.Nickname,
		Email:      u.Email,
		Avatar:     u.Avatar,
		SuperAdmin: u.IsSuperAdmin(),
	}
	if set != nil {
		info.PermCodes = set.Codes()
		info.SuperAdmin = set.SuperAdmin()
	}

	return response.Success(ctx, info)
}
