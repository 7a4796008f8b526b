// Package lifecycle 提供服务生命周期管理：
//
//   - Service: HTTP服务包装器，统一启动流程、钩子和优雅关闭
//   - Manager: 基于Redis PubSub的生命周期事件发布/订阅
//   - Invalidator: 基于Redis PubSub的跨节点缓存失效广播
//
// 典型用法:
//
//	svc := lifecycle.NewBuilder("console").
//		WithAddress(":8080").
//		WithApp(app).
//		OnStart(func(ctx *lifecycle.ServiceContext) error {
//			return database.Init(cfg)
//		}).
//		Build()
//	svc.Run()
package lifecycle
