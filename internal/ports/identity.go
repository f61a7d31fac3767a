package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shambasecure/auth-service/internal/domain"
)

// SignInBinding captures the device context present when a link is requested.
// Verification compares against it to raise the device-mismatch soft signal.
type SignInBinding struct {
	Fingerprint string
	IPAddress   string
	UserAgent   string
}

// Credential is the verified-identity envelope returned after a successful
// sign-in token verification. The session token is the bearer credential for
// guarded routes; nothing here is persisted by the controller.
type Credential struct {
	UID              uuid.UUID
	Email            string
	EmailVerified    bool
	SessionToken     string
	SessionExpiresAt time.Time
	Fingerprint      string
	CreatedAt        time.Time
	LastSignInAt     *time.Time
}

// SessionClaims is the decoded state of a bearer session credential.
type SessionClaims struct {
	UID           uuid.UUID
	Email         string
	EmailVerified bool
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// IdentityProvider is the capability boundary for account existence,
// credential issuance and credential verification. The application layer
// never implements token cryptography itself; it only calls through this
// interface.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, displayName string) (domain.Account, error)
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	GetAccount(ctx context.Context, uid uuid.UUID) (domain.Account, error)
	MintSignInLink(ctx context.Context, email, redirectURL string, binding SignInBinding) (string, error)
	VerifySignInToken(ctx context.Context, token string) (Credential, error)
	VerifySession(ctx context.Context, bearer string) (SessionClaims, error)
}

// CreateAccountParams captures account-creation inputs for the store behind
// the local provider.
type CreateAccountParams struct {
	Email         string
	DisplayName   string
	EmailVerified bool
	CreatedAtUTC  time.Time
}

// AccountStore is the persistence contract behind the local identity
// provider. Create must return domain.ErrConflict on a duplicate email; the
// unique index is the authoritative uniqueness tie-break under concurrent
// registration.
type AccountStore interface {
	Create(ctx context.Context, params CreateAccountParams) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	GetByID(ctx context.Context, uid uuid.UUID) (domain.Account, error)
	MarkSignedIn(ctx context.Context, uid uuid.UUID, at time.Time) error
}

// CredentialSigner signs and validates session credentials. Kept separate
// from the provider so the crypto library stays at the adapter edge.
type CredentialSigner interface {
	Sign(claims SessionClaims) (string, error)
	ParseAndValidate(token string) (SessionClaims, error)
}
