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
	deviceVerifyPrefix     = "auth:device-verify:"
	deviceVerifyUsedPrefix = "auth:device-verify:used:"
)

// RedisDeviceVerificationStore persists device-confirmation tokens with the
// same single-use consume semantics as the sign-in link store.
type RedisDeviceVerificationStore struct {
	client *redis.Client
}

func NewRedisDeviceVerificationStore(client *redis.Client) *RedisDeviceVerificationStore {
	return &RedisDeviceVerificationStore{client: client}
}

func (s *RedisDeviceVerificationStore) Put(ctx context.Context, tokenHash string, value ports.DeviceVerification, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal device verification: %w", err)
	}
	return s.client.Set(ctx, deviceVerifyPrefix+tokenHash, payload, ttl).Err()
}

func (s *RedisDeviceVerificationStore) Consume(ctx context.Context, tokenHash string) (*ports.DeviceVerification, error) {
	raw, err := s.client.GetDel(ctx, deviceVerifyPrefix+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		used, usedErr := s.client.Exists(ctx, deviceVerifyUsedPrefix+tokenHash).Result()
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

	if err := s.client.Set(ctx, deviceVerifyUsedPrefix+tokenHash, "1", usedMarkerTTL).Err(); err != nil {
		return nil, err
	}

	var value ports.DeviceVerification
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("unmarshal device verification: %w", err)
	}
	return &value, nil
}
