package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/goadmin/pkg/database"
	"github.com/goadmin/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 缓存失效广播的模块标识
const (
	ModuleRBAC = "rbac"
	ModuleMenu = "menu"
	ModuleDept = "dept"
	ModuleUser = "user"
)

const invalidateChannel = "console:cache:invalidate"

// InvalidateMessage 缓存失效消息
// Key 为空表示整个模块的缓存都应失效。
type InvalidateMessage struct {
	Module string `json:"module"`
	Key    string `json:"key"`
	NodeID string `json:"node_id"`
}

// InvalidateHandler 缓存失效处理器
type InvalidateHandler func(msg *InvalidateMessage)

// Invalidator 跨节点缓存失效广播器
// 写端在数据变更后调用Publish，各节点订阅后清理自己的本地缓存。
type Invalidator struct {
	nodeID   string
	redis    *redis.Client
	handlers map[string][]InvalidateHandler // module -> handlers
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	pubsub   *redis.PubSub
}

// NewInvalidator 创建缓存失效广播器
func NewInvalidator(nodeID string) *Invalidator {
	return NewInvalidatorWithClient(nodeID, database.GetRedis())
}

// NewInvalidatorWithClient 使用指定Redis客户端创建缓存失效广播器
func NewInvalidatorWithClient(nodeID string, client *redis.Client) *Invalidator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Invalidator{
		nodeID:   nodeID,
		redis:    client,
		handlers: make(map[string][]InvalidateHandler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnInvalidate 注册模块的失效处理器
func (iv *Invalidator) OnInvalidate(module string, handler InvalidateHandler) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.handlers[module] = append(iv.handlers[module], handler)
}

// Publish 广播缓存失效
func (iv *Invalidator) Publish(ctx context.Context, module, key string) error {
	msg := &InvalidateMessage{
		Module: module,
		Key:    key,
		NodeID: iv.nodeID,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal invalidate message: %w", err)
	}

	return iv.redis.Publish(ctx, invalidateChannel, data).Err()
}

// Start 启动失效消息监听
func (iv *Invalidator) Start() error {
	iv.pubsub = iv.redis.Subscribe(iv.ctx, invalidateChannel)

	if _, err := iv.pubsub.Receive(iv.ctx); err != nil {
		return fmt.Errorf("subscribe invalidate channel: %w", err)
	}

	go iv.listen()
	return nil
}

func (iv *Invalidator) listen() {
	ch := iv.pubsub.Channel()

	for {
		select {
		case <-iv.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			iv.handleMessage(msg.Payload)
		}
	}
}

func (iv *Invalidator) handleMessage(payload string) {
	var msg InvalidateMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		logger.Error("解析缓存失效消息失败", zap.Error(err))
		return
	}

	// 写端在发布前已清理本地，自己的广播不再处理
	if msg.NodeID == iv.nodeID {
		return
	}

	iv.mu.RLock()
	handlers := iv.handlers[msg.Module]
	iv.mu.RUnlock()

	for _, handler := range handlers {
		handler(&msg)
	}
}

// Stop 停止失效消息监听
func (iv *Invalidator) Stop() error {
	iv.cancel()
	if iv.pubsub != nil {
		return iv.pubsub.Close()
	}
	return nil
}
