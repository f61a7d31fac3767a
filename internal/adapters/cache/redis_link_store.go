package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shambasecure/auth-service/internal/domain"
	"github.com/shambasecure/auth-service/internal/ports"
)

const (
	linkKeyPrefix  = "auth:link:"
	linkUsedPrefix = "auth:link:used:"

	// usedMarkerTTL bounds how long a replayed token is reported as
	// consumed rather than unknown. After it lapses both look the same.
	usedMarkerTTL = 24 * time.Hour
)

// RedisSignInLinkStore holds single-use sign-in tokens keyed by token hash.
// GETDEL makes consumption atomic: concurrent verifications of the same
// token resolve to exactly one winner.
type RedisSignInLinkStore struct {
	client *redis.Client
}

func NewRedisSignInLinkStore(client *redis.Client) *RedisSignInLinkStore {
	return &RedisSignInLinkStore{client: client}
}

func (s *RedisSignInLinkStore) Put(ctx context.Context, tokenHash string, link ports.SignInLink, ttl time.Duration) error {
	payload, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("marshal sign-in link: %w", err)
	}
	return s.client.Set(ctx, linkKeyPrefix+tokenHash, payload, ttl).Err()
}

func (s *RedisSignInLinkStore) Consume(ctx context.Context, tokenHash string) (*ports.SignInLink, error) {
	raw, err := s.client.GetDel(ctx, linkKeyPrefix+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		used, usedErr := s.client.Exists(ctx, linkUsedPrefix+tokenHash).Result()
		if usedErr != nil {
			return nil, usedErr
		}
		if used > 0 {
			return nil, domain.ErrTokenConsumed
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.client.Set(ctx, linkUsedPrefix+tokenHash, "1", usedMarkerTTL).Err(); err != nil {
		return nil, err
	}

	var link ports.SignInLink
	if err := json.Unmarshal([]byte(raw), &link); err != nil {
		return nil, fmt.Errorf("unmarshal sign-in link: %w", err)
	}
	return &link, nil
}
