package middleware

import (
	"strings"
	"time"

	"github.com/goadmin/pkg/auth"
	"github.com/goadmin/pkg/errors"
	"github.com/goadmin/pkg/logger"
	"github.com/goadmin/pkg/perm"
	"github.com/goadmin/pkg/response"
	"github.com/goadmin/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// JWTAuth JWT认证中间件
func JWTAuth(jwtManager *auth.JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 从Header获取token
		token := c.Get("Authorization")
		if token == "" {
			// 尝试从query参数获取
			token = c.Query("token")
		}

		if token == "" {
			return response.Error(c, 401, "未提供认证令牌")
		}

		// 去除Bearer前缀
		token = strings.TrimPrefix(token, "Bearer ")

		// 验证token
		claims, err := jwtManager.ParseToken(token)
		if err != nil {
			return response.Error(c, 401, "无效的认证令牌")
		}

		// 将用户信息存入上下文
		c.Locals("userId", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("superAdmin", claims.SuperAdmin)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// PermissionLoader 装配当前用户的权限集合
// 由业务层实现（查缓存或数据库），中间件只负责判定。
type PermissionLoader func(c *fiber.Ctx, userID int64, superAdmin bool) (*perm.Set, error)

// LoadPermissions 权限装配中间件
// 在 JWTAuth 之后使用，将权限集合存入上下文供 Permission 判定。
func LoadPermissions(loader PermissionLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == 0 {
			return response.Error(c, 401, "未获取到用户信息")
		}

		set, err := loader(c, userID, GetSuperAdmin(c))
		if err != nil {
			logger.Error("装配用户权限失败", zap.Error(err), zap.Int64("userId", userID))
			return response.Error(c, 500, "权限信息加载失败")
		}

		c.Locals("permSet", set)
		return c.Next()
	}
}

// Permission 权限校验中间件
// 对请求判定给定的权限要求，未满足返回403。
func Permission(req perm.Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set := GetPermSet(c)
		if !perm.Resolve(set, req) {
			return response.Error(c, 403, "没有访问权限")
		}
		return c.Next()
	}
}

// Recovery 恢复中间件
func Recovery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
				)
				_ = response.Error(c, 500, "服务器内部错误")
			}
		}()
		return c.Next()
	}
}

// Cors 跨域中间件
func Cors() fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := c.Method()
		origin := c.Get("Origin")

		if origin != "" {
			c.Set("Access-Control-Allow-Origin", origin)
			c.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			c.Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
			c.Set("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Content-Type")
			c.Set("Access-Control-Allow-Credentials", "true")
		}

		if method == "OPTIONS" {
			return c.SendStatus(204)
		}

		return c.Next()
	}
}

// RateLimiter 令牌桶限流器
type RateLimiter struct {
	rate     int           // 每秒补充的令牌数
	burst    int           // 突发容量
	tokens   chan struct{} // 令牌桶
	interval time.Duration
	stop     chan struct{}
}

// NewRateLimiter 创建限流器
func NewRateLimiter(rate, burst int) *RateLimiter {
	rl := &RateLimiter{
		rate:     rate,
		burst:    burst,
		tokens:   make(chan struct{}, burst),
		interval: time.Second / time.Duration(rate),
		stop:     make(chan struct{}),
	}

	// 初始化令牌桶
	for i := 0; i < burst; i++ {
		rl.tokens <- struct{}{}
	}

	go rl.refillTokens()

	return rl
}

func (rl *RateLimiter) refillTokens() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			select {
			case rl.tokens <- struct{}{}:
			default:
			}
		}
	}
}

// Stop 停止令牌补充
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

// Middleware 限流中间件
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		select {
		case <-rl.tokens:
			return c.Next()
		default:
			return response.Error(c, 429, "请求过于频繁，请稍后重试")
		}
	}
}

// RequestID 请求ID中间件
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = utils.UUID()
		}
		c.Locals("requestId", requestID)
		c.Set("X-Request-ID", requestID)
		return c.Next()
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *fiber.Ctx) int64 {
	userID := c.Locals("userId")
	if userID == nil {
		return 0
	}
	return userID.(int64)
}

// GetUsername 从上下文获取用户名
func GetUsername(c *fiber.Ctx) string {
	username := c.Locals("username")
	if username == nil {
		return ""
	}
	return username.(string)
}

// GetSuperAdmin 从上下文获取超级管理员标记
func GetSuperAdmin(c *fiber.Ctx) bool {
	superAdmin := c.Locals("superAdmin")
	if superAdmin == nil {
		return false
	}
	return superAdmin.(bool)
}

// GetPermSet 从上下文获取权限集合
// 未装配时返回nil，判定结果恒为拒绝。
func GetPermSet(c *fiber.Ctx) *perm.Set {
	set := c.Locals("permSet")
	if set == nil {
		return nil
	}
	return set.(*perm.Set)
}

// ErrorHandler 统一错误处理中间件
func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			// 根据错误类型返回不同的响应
			switch e := err.(type) {
			case *errors.AppError:
				_ = response.Error(c, e.Code, e.Message)
			default:
				_ = response.Error(c, 500, "服务器内部错误")
			}
			return nil
		}
		return nil
	}
}
