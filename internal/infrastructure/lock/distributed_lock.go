package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis 分布式锁：SET key value NX EX 加锁，Lua 脚本校验持有者后删除。
// 核心交易路径不依赖它（余额写入走乐观锁），只用来挡开户这类
// "同一用户重复提交"的并发入口。

var ErrLockFailed = errors.New("获取分布式锁失败")

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string        // 锁持有者标识，释放时验证，防止误删别人的锁
	expiration time.Duration // 过期时间，持有者崩溃时自动释放
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）。SetNX 保证同一时刻只有一个持有者。
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试）。
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁。Lua 脚本保证"校验持有者 + 删除"原子执行，
// 锁过期后被他人持有时不会误删。
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// NewAccountOpenLock 开户锁（按用户维度）。
// 不同用户可并发开户；同一用户的重复提交串行化。
func NewAccountOpenLock(client *redis.Client, userID int64, holder string) *DistributedLock {
	key := fmt.Sprintf("account:open:lock:user:%d", userID)
	return NewDistributedLock(client, key, holder, 30*time.Second)
}
