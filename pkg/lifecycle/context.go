package lifecycle

// ServiceContext 服务上下文 - 用于在服务内部共享生命周期组件
// 通过构造函数创建，显式传入，不使用全局单例
type ServiceContext struct {
	service *Service
}

func newServiceContext(svc *Service) *ServiceContext {
	return &ServiceContext{service: svc}
}

// GetService 获取服务实例
func (sc *ServiceContext) GetService() *Service {
	return sc.service
}

// Lifecycle 获取生命周期管理器
func (sc *ServiceContext) Lifecycle() *Manager {
	if sc.service == nil {
		return nil
	}
	return sc.service.Lifecycle()
}

// Invalidator 获取缓存失效广播器
func (sc *ServiceContext) Invalidator() *Invalidator {
	if sc.service == nil {
		return nil
	}
	return sc.service.Invalidator()
}

// EmitEvent 发送生命周期事件
func (sc *ServiceContext) EmitEvent(event Event, metadata any) error {
	lc := sc.Lifecycle()
	if lc == nil {
		return nil
	}
	return lc.Emit(event, metadata)
}
