// Package session tracks revoked session tokens so a logged-out cookie cannot be replayed
// before it expires.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:%s"

// Revoker records and looks up revoked token ids (the jti claim).
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevoker keeps one key per revoked token that expires with the token itself.
type RedisRevoker struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedisRevoker(client redis.UniversalClient) *RedisRevoker {
	return &RedisRevoker{client: client, now: time.Now}
}

// Revoke is a no-op for tokens that have already expired.
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 || tokenID == "" {
		return nil
	}
	if err := r.client.Set(ctx, fmt.Sprintf(revokedKeyPrefix, tokenID), until.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, fmt.Sprintf(revokedKeyPrefix, tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// Ping reports whether the revocation store is reachable.
func (r *RedisRevoker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NoopRevoker is used when Redis is disabled: logout only clears the cookie.
type NoopRevoker struct{}

func (NoopRevoker) Revoke(context.Context, string, time.Time) error { return nil }
func (NoopRevoker) IsRevoked(context.Context, string) (bool, error)  { return false, nil }

// Connect opens a Redis client and verifies it answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

var (
	_ Revoker = (*RedisRevoker)(nil)
	_ Revoker = NoopRevoker{}
)
