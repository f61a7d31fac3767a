package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shambasecure/auth-service/internal/domain"
)

// SignInLink is the server-side state of a minted magic-link token. The raw
// token never reaches this store; keys are token hashes.
type SignInLink struct {
	UID         uuid.UUID `json:"uid"`
	Email       string    `json:"email"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SignInLinkStore holds single-use sign-in tokens with a fixed TTL.
// Consume is the one allowed transition into the verified state: it returns
// the link exactly once, domain.ErrTokenConsumed on reuse, and (nil, nil)
// when the key is unknown (expired or never minted; indistinguishable once
// the TTL lapses).
type SignInLinkStore interface {
	Put(ctx context.Context, tokenHash string, link SignInLink, ttl time.Duration) error
	Consume(ctx context.Context, tokenHash string) (*SignInLink, error)
}

// DeviceVerification is the short-lived state between "new device detected"
// and the user confirming it from their inbox.
type DeviceVerification struct {
	UID       uuid.UUID            `json:"uid"`
	Email     string               `json:"email"`
	Device    domain.TrustedDevice `json:"device"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// DeviceVerificationStore persists device-confirmation tokens, single-use
// with the same Consume semantics as SignInLinkStore.
type DeviceVerificationStore interface {
	Put(ctx context.Context, tokenHash string, value DeviceVerification, ttl time.Duration) error
	Consume(ctx context.Context, tokenHash string) (*DeviceVerification, error)
}
