package lifecycle

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goadmin/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ServiceOptions 服务配置选项
type ServiceOptions struct {
	Name    string // 服务名称
	NodeID  string // 节点ID
	Address string // 监听地址
}

// Hook 生命周期钩子函数
type Hook func(*ServiceContext) error

// Service HTTP服务包装器
type Service struct {
	opts        *ServiceOptions
	app         *fiber.App
	lifecycle   *Manager
	invalidator *Invalidator
	ctx         *ServiceContext

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewService 创建服务
func NewService(opts *ServiceOptions) *Service {
	s := &Service{
		opts:        opts,
		lifecycle:   NewManager(opts.Name, opts.NodeID),
		invalidator: NewInvalidator(opts.NodeID),
		onStart:     make([]Hook, 0),
		onReady:     make([]Hook, 0),
		onStop:      make([]Hook, 0),
	}
	s.ctx = newServiceContext(s)
	return s
}

// SetApp 设置Fiber应用
func (s *Service) SetApp(app *fiber.App) {
	s.app = app
}

// Lifecycle 获取生命周期管理器
func (s *Service) Lifecycle() *Manager {
	return s.lifecycle
}

// Invalidator 获取缓存失效广播器
func (s *Service) Invalidator() *Invalidator {
	return s.invalidator
}

// Context 获取服务上下文
func (s *Service) Context() *ServiceContext {
	return s.ctx
}

// OnStart 注册启动钩子
func (s *Service) OnStart(fn Hook) {
	s.onStart = append(s.onStart, fn)
}

// OnReady 注册就绪钩子
func (s *Service) OnReady(fn Hook) {
	s.onReady = append(s.onReady, fn)
}

// OnStop 注册停止钩子
func (s *Service) OnStop(fn Hook) {
	s.onStop = append(s.onStop, fn)
}

// Run 运行服务，阻塞直到收到退出信号
func (s *Service) Run() error {
	if err := s.lifecycle.Start(); err != nil {
		return fmt.Errorf("start lifecycle manager: %w", err)
	}

	if err := s.invalidator.Start(); err != nil {
		return fmt.Errorf("start cache invalidator: %w", err)
	}

	s.lifecycle.Emit(EventStarting, nil)

	for _, fn := range s.onStart {
		if err := fn(s.ctx); err != nil {
			return fmt.Errorf("start hook: %w", err)
		}
	}

	s.lifecycle.Emit(EventStarted, nil)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("服务启动",
			zap.String("service", s.opts.Name),
			zap.String("address", s.opts.Address),
		)
		if err := s.app.Listen(s.opts.Address); err != nil {
			errCh <- err
		}
	}()

	// 等待服务启动
	time.Sleep(100 * time.Millisecond)

	for _, fn := range s.onReady {
		if err := fn(s.ctx); err != nil {
			return fmt.Errorf("ready hook: %w", err)
		}
	}

	s.lifecycle.Emit(EventReady, nil)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("收到退出信号，正在关闭服务...")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	return s.Shutdown()
}

// Shutdown 优雅关闭服务
func (s *Service) Shutdown() error {
	s.lifecycle.Emit(EventStopping, nil)

	for _, fn := range s.onStop {
		if err := fn(s.ctx); err != nil {
			logger.Error("停止钩子执行失败", zap.Error(err))
		}
	}

	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			logger.Error("关闭HTTP服务失败", zap.Error(err))
		}
	}

	if err := s.invalidator.Stop(); err != nil {
		logger.Error("停止缓存失效广播失败", zap.Error(err))
	}

	s.lifecycle.Emit(EventStopped, nil)

	if err := s.lifecycle.Stop(); err != nil {
		logger.Error("停止生命周期监听失败", zap.Error(err))
	}

	logger.Info("服务已关闭", zap.String("service", s.opts.Name))
	return nil
}
