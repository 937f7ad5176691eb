package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"

	"resume-triage/internal/constants"
)

// ErrSessionNotFound 会话不存在或已结束
var ErrSessionNotFound = errors.New("会话不存在")

// TeardownFunc 会话结束时调用，用于清理会话下的文件
type TeardownFunc func(ctx context.Context, sessionID string) error

// Manager 维护所有活跃会话
type Manager struct {
	mu       sync.RWMutex
	stores   map[string]*Store
	idleTTL  time.Duration
	teardown TeardownFunc
	logger   zerolog.Logger
	now      func() time.Time
}

// ManagerOption Manager 的配置选项
type ManagerOption func(*Manager)

// WithIdleTTL 设置会话空闲回收时间
func WithIdleTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.idleTTL = ttl
		}
	}
}

// WithTeardown 设置会话结束时的清理函数
func WithTeardown(fn TeardownFunc) ManagerOption {
	return func(m *Manager) {
		m.teardown = fn
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager 创建会话管理器
func NewManager(options ...ManagerOption) *Manager {
	m := &Manager{
		stores:  make(map[string]*Store),
		idleTTL: constants.DefaultSessionIdleTTL,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Create 开始一个新会话
func (m *Manager) Create() (*Store, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成会话ID失败: %w", err)
	}
	store := NewStore(id.String())

	m.mu.Lock()
	m.stores[store.ID()] = store
	m.mu.Unlock()

	m.logger.Info().Str("session_id", store.ID()).Msg("会话已创建")
	return store, nil
}

// Get 获取会话记录集合
func (m *Manager) Get(id string) (*Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	store, ok := m.stores[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	// 持有读锁时刷新，回收判断在写锁下进行，两者不会交错
	store.Touch()
	return store, nil
}

// End 结束会话，记录集合被丢弃，会话文件交给清理函数
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	store, ok := m.stores[id]
	delete(m.stores, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return m.finish(ctx, store)
}

func (m *Manager) finish(ctx context.Context, store *Store) error {
	m.logger.Info().Str("session_id", store.ID()).Int("records", store.Len()).Msg("会话已结束")
	if m.teardown != nil {
		if err := m.teardown(ctx, store.ID()); err != nil {
			return fmt.Errorf("清理会话 %s 失败: %w", store.ID(), err)
		}
	}
	return nil
}

// takeIdle 在写锁下再次确认会话仍然空闲，确认后才移除
func (m *Manager) takeIdle(id string, cutoff time.Time) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.stores[id]
	if !ok || !store.LastAccess().Before(cutoff) {
		return nil, false
	}
	delete(m.stores, id)
	return store, true
}

// Len 活跃会话数
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stores)
}

// Sweep 结束所有空闲超过 idleTTL 的会话，返回结束的数量
func (m *Manager) Sweep(ctx context.Context) int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.RLock()
	var expired []string
	for id, store := range m.stores {
		if store.LastAccess().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	ended := 0
	for _, id := range expired {
		store, ok := m.takeIdle(id, cutoff)
		if !ok {
			continue
		}
		if err := m.finish(ctx, store); err != nil {
			m.logger.Warn().Err(err).Str("session_id", id).Msg("回收空闲会话失败")
			continue
		}
		ended++
	}
	return ended
}

// RunJanitor 周期性回收空闲会话，直到 ctx 结束
// interval 不大于0时使用默认间隔
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = constants.DefaultSessionSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(ctx); n > 0 {
				m.logger.Info().Int("count", n).Msg("已回收空闲会话")
			}
		}
	}
}
