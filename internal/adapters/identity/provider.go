// Package identity implements the identity-provider port locally: accounts
// in the relational store, single-use sign-in tokens in the link store, and
// session credentials from the signer.
package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shambasecure/auth-service/internal/domain"
	"github.com/shambasecure/auth-service/internal/ports"
)

type Provider struct {
	accounts   ports.AccountStore
	links      ports.SignInLinkStore
	signer     ports.CredentialSigner
	linkTTL    time.Duration
	sessionTTL time.Duration
	nowFn      func() time.Time
}

type ProviderConfig struct {
	LinkTTL    time.Duration
	SessionTTL time.Duration
}

func NewProvider(accounts ports.AccountStore, links ports.SignInLinkStore, signer ports.CredentialSigner, cfg ProviderConfig) *Provider {
	return &Provider{
		accounts:   accounts,
		links:      links,
		signer:     signer,
		linkTTL:    cfg.LinkTTL,
		sessionTTL: cfg.SessionTTL,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *Provider) CreateAccount(ctx context.Context, email, displayName string) (domain.Account, error) {
	return p.accounts.Create(ctx, ports.CreateAccountParams{
		Email:       email,
		DisplayName: displayName,
		// Ownership of the address is proven the first time a link from it
		// is verified, not at creation.
		EmailVerified: false,
		CreatedAtUTC:  p.nowFn(),
	})
}

func (p *Provider) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return p.accounts.GetByEmail(ctx, email)
}

func (p *Provider) GetAccount(ctx context.Context, uid uuid.UUID) (domain.Account, error) {
	return p.accounts.GetByID(ctx, uid)
}

// MintSignInLink issues a fresh single-use token bound to the requesting
// account and device, stores it keyed by hash, and returns the full
// clickable link. Minting again before the previous token expires simply
// adds another live token; the TTL bounds the exposure.
func (p *Provider) MintSignInLink(ctx context.Context, email, redirectURL string, binding ports.SignInBinding) (string, error) {
	account, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("generate sign-in token: %w", err)
	}

	now := p.nowFn()
	link := ports.SignInLink{
		UID:         account.UID,
		Email:       account.Email,
		Fingerprint: binding.Fingerprint,
		IssuedAt:    now,
		ExpiresAt:   now.Add(p.linkTTL),
	}
	if err := p.links.Put(ctx, hashToken(token), link, p.linkTTL); err != nil {
		return "", fmt.Errorf("store sign-in token: %w", err)
	}

	return redirectURL + "?token=" + url.QueryEscape(token), nil
}

// VerifySignInToken consumes the token and exchanges it for a session
// credential. The link store enforces single use; this layer enforces the
// expiry window and promotes the account to email-verified on first success.
func (p *Provider) VerifySignInToken(ctx context.Context, token string) (ports.Credential, error) {
	link, err := p.links.Consume(ctx, hashToken(token))
	if err != nil {
		return ports.Credential{}, err
	}
	if link == nil {
		return ports.Credential{}, domain.ErrTokenExpired
	}

	now := p.nowFn()
	if now.After(link.ExpiresAt) {
		return ports.Credential{}, domain.ErrTokenExpired
	}

	account, err := p.accounts.GetByID(ctx, link.UID)
	if err != nil {
		return ports.Credential{}, err
	}

	if err := p.accounts.MarkSignedIn(ctx, account.UID, now); err != nil {
		return ports.Credential{}, fmt.Errorf("mark signed in: %w", err)
	}

	expiresAt := now.Add(p.sessionTTL)
	sessionToken, err := p.signer.Sign(ports.SessionClaims{
		UID:           account.UID,
		Email:         account.Email,
		EmailVerified: true,
		IssuedAt:      now,
		ExpiresAt:     expiresAt,
	})
	if err != nil {
		return ports.Credential{}, fmt.Errorf("sign session credential: %w", err)
	}

	return ports.Credential{
		UID:              account.UID,
		Email:            account.Email,
		EmailVerified:    true,
		SessionToken:     sessionToken,
		SessionExpiresAt: expiresAt,
		Fingerprint:      link.Fingerprint,
		CreatedAt:        account.CreatedAt,
		LastSignInAt:     account.LastSignInAt,
	}, nil
}

func (p *Provider) VerifySession(ctx context.Context, bearer string) (ports.SessionClaims, error) {
	return p.signer.ParseAndValidate(bearer)
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
