package router

import (
	"context"

	"github.com/goadmin/pkg/lifecycle"
)

// BaseController 控制器基类
// 控制器嵌入此基类以获得生命周期与缓存失效广播能力
type BaseController struct {
	svc *lifecycle.ServiceContext
}

// NewBaseController 创建基础控制器
func NewBaseController(svc *lifecycle.ServiceContext) BaseController {
	return BaseController{svc: svc}
}

// ServiceContext 获取服务上下文
func (c *BaseController) ServiceContext() *lifecycle.ServiceContext {
	return c.svc
}

// Invalidate 广播缓存失效
func (c *BaseController) Invalidate(ctx context.Context, module, key string) error {
	if c.svc == nil || c.svc.Invalidator() == nil {
		return nil
	}
	return c.svc.Invalidator().Publish(ctx, module, key)
}
