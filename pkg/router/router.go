package router

import (
	"github.com/gofiber/fiber/v2"
)

// Route 路由配置
type Route struct {
	Method      string           // HTTP方法
	Path        string           // 路径，默认相对于控制器前缀
	Absolute    bool             // 为true时忽略前缀，直接注册到应用
	Handler     fiber.Handler    // 处理函数
	Middlewares *[]fiber.Handler // 路由级中间件
}

// Registrar 路由注册器接口
type Registrar interface {
	// Prefix 返回路由前缀
	Prefix() string
	// Routes 返回路由配置列表，接收中间件作为参数
	Routes(middlewares map[string]fiber.Handler) []Route
}

// Register 自动注册路由
func Register(app fiber.Router, middlewares map[string]fiber.Handler, controllers ...Registrar) {
	for _, ctrl := range controllers {
		g := app.Group(ctrl.Prefix())

		for _, route := range ctrl.Routes(middlewares) {
			handlers := buildHandlers(route)
			if route.Absolute {
				app.Add(route.Method, route.Path, handlers...)
			} else {
				g.Add(route.Method, route.Path, handlers...)
			}
		}
	}
}

// buildHandlers 构建处理器链(中间件 + 处理函数)
func buildHandlers(route Route) []fiber.Handler {
	if route.Middlewares == nil || len(*route.Middlewares) == 0 {
		return []fiber.Handler{route.Handler}
	}
	handlers := make([]fiber.Handler, 0, len(*route.Middlewares)+1)
	handlers = append(handlers, *route.Middlewares...)
	handlers = append(handlers, route.Handler)
	return handlers
}
