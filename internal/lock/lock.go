// Package lock 提供按资源键互斥的短期命名锁。
// 拿不到锁说明有同一资源的活动正在处理，调用方直接放弃整条活动，
// 联邦投递本来就是至少一次，丢掉重复/竞态的一条是安全的。
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrLockBusy = errors.New("resource lock busy")

// Manager 拿锁成功返回释放函数，调用方必须 defer 调用；
// 拿不到返回 ErrLockBusy。
type Manager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// LikeKey 收藏/表情回应共用一把锁：两种活动都可能抢同一条状态
func LikeKey(objectURI string) string {
	return "like:" + objectURI
}

// MemoryManager 进程内实现，给单测和单机部署用
type MemoryManager struct {
	mu   sync.Mutex
	gen  uint64
	held map[string]memoryHold
}

type memoryHold struct {
	gen    uint64
	expiry time.Time
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{held: map[string]memoryHold{}}
}

func (m *MemoryManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hold, ok := m.held[key]; ok && time.Now().Before(hold.expiry) {
		return nil, ErrLockBusy
	}

	m.gen++
	gen := m.gen
	m.held[key] = memoryHold{gen: gen, expiry: time.Now().Add(ttl)}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// 跟 redis 实现同样的纪律：只释放自己那一次持有。
		// TTL 过期后锁可能已经被别人抢走，迟到的释放不能碰它
		if hold, ok := m.held[key]; ok && hold.gen == gen {
			delete(m.held, key)
		}
	}, nil
}
