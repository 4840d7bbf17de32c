package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 只有持有者本人能释放：token 对得上才 DEL
const releaseScript = `
    if redis.call("GET", KEYS[1]) == ARGV[1] then
        return redis.call("DEL", KEYS[1])
    end
    return 0
`

// RedisManager 用 SET NX PX 实现的分布式命名锁，整个集群范围内互斥
type RedisManager struct {
	client *redis.Client
}

func NewRedisManager(client *redis.Client) *RedisManager {
	return &RedisManager{client: client}
}

func (m *RedisManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := newToken()

	ok, err := m.client.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockBusy
	}

	return func() {
		// 释放用独立的 ctx，调用方的 ctx 可能已经取消了
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.client.Eval(ctx, releaseScript, []string{"lock:" + key}, token).Err(); err != nil {
			zap.L().Warn("lock release failed, will expire by TTL", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func newToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return time.Now().String()
	}
	return hex.EncodeToString(buf)
}
