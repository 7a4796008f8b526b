package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/goadmin/pkg/database"
	"github.com/goadmin/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event 生命周期事件类型
type Event string

const (
	EventStarting Event = "starting" // 服务启动中
	EventStarted  Event = "started"  // 服务已启动
	EventReady    Event = "ready"    // 服务就绪（可接收请求）
	EventStopping Event = "stopping" // 服务停止中
	EventStopped  Event = "stopped"  // 服务已停止
)

// Message 生命周期消息
type Message struct {
	Service   string    `json:"service"`
	NodeID    string    `json:"node_id"`
	Event     Event     `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  any       `json:"metadata"`
}

// Handler 生命周期事件处理器
type Handler func(msg *Message)

// Manager 生命周期管理器
type Manager struct {
	service     string
	nodeID      string
	redis       *redis.Client
	handlers    map[Event][]Handler
	allHandlers []Handler
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	pubsub      *redis.PubSub
}

const lifecycleChannel = "console:lifecycle"

// NewManager 创建生命周期管理器
func NewManager(service, nodeID string) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		service:     service,
		nodeID:      nodeID,
		redis:       database.GetRedis(),
		handlers:    make(map[Event][]Handler),
		allHandlers: make([]Handler, 0),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// OnEvent 监听特定生命周期事件
func (m *Manager) OnEvent(event Event, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], handler)
}

// OnAnyEvent 监听所有生命周期事件
func (m *Manager) OnAnyEvent(handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allHandlers = append(m.allHandlers, handler)
}

// Emit 发布生命周期事件
func (m *Manager) Emit(event Event, metadata any) error {
	msg := &Message{
		Service:   m.service,
		NodeID:    m.nodeID,
		Event:     event,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal lifecycle message: %w", err)
	}

	return m.redis.Publish(m.ctx, lifecycleChannel, data).Err()
}

// Start 启动生命周期监听
func (m *Manager) Start() error {
	m.pubsub = m.redis.Subscribe(m.ctx, lifecycleChannel)

	// 等待订阅确认
	if _, err := m.pubsub.Receive(m.ctx); err != nil {
		return fmt.Errorf("subscribe lifecycle channel: %w", err)
	}

	go m.listen()

	logger.Info("生命周期管理器已启动",
		zap.String("service", m.service),
		zap.String("node_id", m.nodeID),
	)

	return nil
}

func (m *Manager) listen() {
	ch := m.pubsub.Channel()

	for {
		select {
		case <-m.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			m.handleMessage(msg.Payload)
		}
	}
}

func (m *Manager) handleMessage(payload string) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		logger.Error("解析生命周期消息失败", zap.Error(err))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if handlers, ok := m.handlers[msg.Event]; ok {
		for _, handler := range handlers {
			go handler(&msg)
		}
	}

	for _, handler := range m.allHandlers {
		go handler(&msg)
	}
}

// Stop 停止生命周期监听
func (m *Manager) Stop() error {
	m.cancel()
	if m.pubsub != nil {
		return m.pubsub.Close()
	}
	return nil
}
