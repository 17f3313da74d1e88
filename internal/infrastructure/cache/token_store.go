package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// TokenStore 登录态存储：token -> 用户 ID。
// 这是交易核心消费的"身份解析"协作方，口令校验与用户发放
// 由认证子系统负责，这里只维护 token 状态。
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

var ErrTokenInvalid = errors.New("令牌无效或已过期")

func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

func tokenKey(token string) string {
	return fmt.Sprintf("auth:token:%s", token)
}

// Issue 为用户签发一个不透明令牌。
func (s *TokenStore) Issue(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	err := s.client.Set(ctx, tokenKey(token), strconv.FormatInt(userID, 10), s.ttl).Err()
	if err != nil {
		return "", err
	}
	return token, nil
}

// Resolve 把令牌解析为用户 ID，同时滑动续期。
func (s *TokenStore) Resolve(ctx context.Context, token string) (int64, error) {
	val, err := s.client.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrTokenInvalid
		}
		return 0, err
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}

	// 续期失败不影响本次解析
	_ = s.client.Expire(ctx, tokenKey(token), s.ttl).Err()
	return userID, nil
}

// Revoke 吊销令牌（登出）。
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKey(token)).Err()
}
