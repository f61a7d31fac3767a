package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shambasecure/auth-service/internal/domain"
)

// UserDirectory stores one profile document per user, keyed by the provider
// uid. Email lookups go through the identity provider, which owns the
// email->uid mapping, so no secondary index is required here.
type UserDirectory interface {
	Put(ctx context.Context, record domain.DirectoryRecord) error
	Get(ctx context.Context, uid uuid.UUID) (domain.DirectoryRecord, error)
	Exists(ctx context.Context, uid uuid.UUID) (bool, error)
	TouchLastLogin(ctx context.Context, uid uuid.UUID, at time.Time) error
}

// TrustedDeviceStore manages the per-user confirmed-device list. IsTrusted
// refreshes the device's last-used timestamp on a hit so the cap eviction
// stays LRU-ordered.
type TrustedDeviceStore interface {
	List(ctx context.Context, uid uuid.UUID) ([]domain.TrustedDevice, error)
	IsTrusted(ctx context.Context, uid uuid.UUID, fingerprint string) (bool, error)
	Add(ctx context.Context, uid uuid.UUID, device domain.TrustedDevice, limit int) error
	Remove(ctx context.Context, uid uuid.UUID, fingerprint string) (bool, error)
}

// LoginActivityStore keeps the capped login history behind the
// login-history endpoint. Record trims entries beyond keep, oldest first.
type LoginActivityStore interface {
	Record(ctx context.Context, activity domain.LoginActivity, keep int) error
	ListByUser(ctx context.Context, uid uuid.UUID, limit int) ([]domain.LoginActivity, error)
}
