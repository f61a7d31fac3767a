package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shambasecure/auth-service/internal/domain"
	"github.com/shambasecure/auth-service/internal/ports"
)

// AuthService implements the passwordless login protocol as a sequence of
// guarded steps. It owns no persistent state: every request is handled
// independently against the injected collaborators.
type AuthService struct {
	cfg                 Config
	identity            ports.IdentityProvider
	directory           ports.UserDirectory
	notifier            ports.NotificationDispatcher
	trustedDevices      ports.TrustedDeviceStore
	deviceVerifications ports.DeviceVerificationStore
	loginActivity       ports.LoginActivityStore
	nowFn               func() time.Time
}

type Dependencies struct {
	Config              Config
	Identity            ports.IdentityProvider
	Directory           ports.UserDirectory
	Notifier            ports.NotificationDispatcher
	TrustedDevices      ports.TrustedDeviceStore
	DeviceVerifications ports.DeviceVerificationStore
	LoginActivity       ports.LoginActivityStore
}

func NewAuthService(deps Dependencies) *AuthService {
	return &AuthService{
		cfg:                 deps.Config,
		identity:            deps.Identity,
		directory:           deps.Directory,
		notifier:            deps.Notifier,
		trustedDevices:      deps.TrustedDevices,
		deviceVerifications: deps.DeviceVerifications,
		loginActivity:       deps.LoginActivity,
		nowFn:               func() time.Time { return time.Now().UTC() },
	}
}

// Register creates the identity-provider account and the directory record
// for a new farmer. The provider's unique-email constraint is the
// authoritative duplicate tie-break: a late conflict from account creation
// still surfaces as domain.ErrConflict.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	fullName := strings.TrimSpace(req.FullName)
	phone := strings.TrimSpace(req.Phone)
	if fullName == "" || strings.TrimSpace(req.Email) == "" || phone == "" {
		return RegisterResponse{}, fmt.Errorf("%w: full name, email, and phone are required", domain.ErrValidation)
	}
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		return RegisterResponse{}, err
	}

	if _, err := s.identity.FindByEmail(ctx, email); err == nil {
		return RegisterResponse{}, fmt.Errorf("%w: this email is already registered, please login instead", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return RegisterResponse{}, fmt.Errorf("%w: account lookup: %v", domain.ErrUpstream, err)
	}

	account, err := s.identity.CreateAccount(ctx, email, fullName)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return RegisterResponse{}, fmt.Errorf("%w: this email is already registered, please login instead", domain.ErrConflict)
		}
		return RegisterResponse{}, fmt.Errorf("%w: create account: %v", domain.ErrUpstream, err)
	}

	now := s.nowFn()
	record := domain.DirectoryRecord{
		UID:          account.UID,
		FullName:     fullName,
		Email:        email,
		Phone:        phone,
		FarmName:     strings.TrimSpace(req.FarmName),
		FarmLocation: strings.TrimSpace(req.FarmLocation),
		FarmSize:     strings.TrimSpace(req.FarmSize),
		Role:         s.cfg.DefaultRole,
		IsRegistered: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.directory.Put(ctx, record); err != nil {
		appLogger().ErrorContext(ctx, "directory write failed after account creation",
			"operation", "register",
			"outcome", "partial_failure",
			"uid", account.UID.String(),
			"error", err.Error(),
		)
		return RegisterResponse{}, fmt.Errorf("%w: uid=%s", domain.ErrPartialFailure, account.UID)
	}

	if err := s.notifier.SendWelcome(ctx, email, fullName); err != nil {
		appLogger().WarnContext(ctx, "welcome email failed",
			"operation", "register",
			"outcome", "degraded",
			"uid", account.UID.String(),
			"error", err.Error(),
		)
	}

	return RegisterResponse{
		UID:      account.UID,
		Email:    email,
		FullName: fullName,
	}, nil
}

// CheckEmail reports whether an address belongs to a completed registration.
// "Not registered" is an expected outcome and is surfaced as
// domain.ErrNotFound rather than a hard failure.
func (s *AuthService) CheckEmail(ctx context.Context, email string) (CheckEmailResponse, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return CheckEmailResponse{}, err
	}

	account, err := s.identity.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return CheckEmailResponse{}, fmt.Errorf("%w: email not registered, please register first", domain.ErrNotFound)
		}
		return CheckEmailResponse{}, fmt.Errorf("%w: account lookup: %v", domain.ErrUpstream, err)
	}

	record, err := s.directory.Get(ctx, account.UID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return CheckEmailResponse{}, fmt.Errorf("%w: email not registered, please register first", domain.ErrNotFound)
		}
		return CheckEmailResponse{}, fmt.Errorf("%w: directory lookup: %v", domain.ErrUpstream, err)
	}
	if !record.IsRegistered {
		return CheckEmailResponse{}, fmt.Errorf("%w: registration incomplete", domain.ErrNotFound)
	}

	return CheckEmailResponse{
		Registered: true,
		FullName:   record.FullName,
	}, nil
}

// SendMagicLink gates issuance on a completed registration, then either
// mints a sign-in link for a known device or starts device verification for
// an unknown one. A mail-relay failure degrades delivery but never fails the
// request: the link was generated.
func (s *AuthService) SendMagicLink(ctx context.Context, email string, device DeviceContext) (MagicLinkResponse, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return MagicLinkResponse{}, err
	}

	check, err := s.CheckEmail(ctx, normalized)
	if err != nil {
		return MagicLinkResponse{}, err
	}

	account, err := s.identity.FindByEmail(ctx, normalized)
	if err != nil {
		return MagicLinkResponse{}, fmt.Errorf("%w: account lookup: %v", domain.ErrUpstream, err)
	}

	if device.Fingerprint != "" {
		trusted, trustErr := s.trustedDevices.IsTrusted(ctx, account.UID, device.Fingerprint)
		if trustErr != nil {
			appLogger().WarnContext(ctx, "trusted device lookup failed, treating device as new",
				"operation", "send_magic_link",
				"outcome", "degraded",
				"uid", account.UID.String(),
				"error", trustErr.Error(),
			)
		}
		if !trusted {
			return s.startDeviceVerification(ctx, account, check.FullName, device)
		}
	}

	link, err := s.identity.MintSignInLink(ctx, normalized, s.magicLinkRedirectURL(), ports.SignInBinding{
		Fingerprint: device.Fingerprint,
		IPAddress:   device.IPAddress,
		UserAgent:   device.UserAgent,
	})
	if err != nil {
		return MagicLinkResponse{}, fmt.Errorf("%w: mint sign-in link: %v", domain.ErrUpstream, err)
	}

	resp := MagicLinkResponse{Delivered: true, Message: "Magic link sent! Please check your email inbox."}
	if err := s.notifier.SendMagicLink(ctx, normalized, check.FullName, link); err != nil {
		appLogger().WarnContext(ctx, "magic link email failed",
			"operation", "send_magic_link",
			"outcome", "degraded",
			"uid", account.UID.String(),
			"error", err.Error(),
		)
		resp.Delivered = false
		resp.Message = "Magic link generated (email delivery unavailable)"
	}
	if s.cfg.DevMode {
		resp.Link = link
	}
	return resp, nil
}

func (s *AuthService) startDeviceVerification(ctx context.Context, account domain.Account, fullName string, device DeviceContext) (MagicLinkResponse, error) {
	now := s.nowFn()
	token := newToken()
	verification := ports.DeviceVerification{
		UID:   account.UID,
		Email: account.Email,
		Device: domain.TrustedDevice{
			Fingerprint: device.Fingerprint,
			DeviceType:  device.DeviceType,
			OS:          device.OS,
			Browser:     device.Browser,
			IPAddress:   device.IPAddress,
			AddedAt:     now,
			LastUsedAt:  now,
		},
		ExpiresAt: now.Add(s.cfg.DeviceVerificationTTL),
	}
	if err := s.deviceVerifications.Put(ctx, hashToken(token), verification, s.cfg.DeviceVerificationTTL); err != nil {
		return MagicLinkResponse{}, fmt.Errorf("%w: store device verification: %v", domain.ErrUpstream, err)
	}

	link := s.cfg.FrontendBaseURL + s.cfg.DeviceVerifyPath + "?token=" + url.QueryEscape(token)
	resp := MagicLinkResponse{
		Delivered:                  true,
		RequiresDeviceVerification: true,
		Message:                    "New device detected! Please check your email to verify this device before logging in.",
	}
	if err := s.notifier.SendDeviceVerification(ctx, account.Email, fullName, verification.Device, link); err != nil {
		appLogger().WarnContext(ctx, "device verification email failed",
			"operation", "send_magic_link",
			"outcome", "degraded",
			"uid", account.UID.String(),
			"error", err.Error(),
		)
		resp.Delivered = false
		resp.Message = "Device verification required (email delivery unavailable)"
	}
	if s.cfg.DevMode {
		resp.Link = link
	}
	return resp, nil
}

// VerifyToken consumes a single-use sign-in token. Expired, consumed,
// malformed and foreign tokens all collapse to domain.ErrAuthentication for
// the caller; the precise terminal state is logged server-side only. A
// device mismatch does not block the login, it is returned as a warning.
func (s *AuthService) VerifyToken(ctx context.Context, token string, device DeviceContext) (VerifyTokenResponse, error) {
	if strings.TrimSpace(token) == "" {
		return VerifyTokenResponse{}, fmt.Errorf("%w: token is required", domain.ErrValidation)
	}

	cred, err := s.identity.VerifySignInToken(ctx, strings.TrimSpace(token))
	if err != nil {
		state := domain.LinkStateInvalid
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			state = domain.LinkStateExpired
		case errors.Is(err, domain.ErrTokenConsumed):
			state = domain.LinkStateConsumed
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAuthentication):
		default:
			// Provider unavailability is not a token problem.
			return VerifyTokenResponse{}, fmt.Errorf("%w: verify sign-in token: %v", domain.ErrUpstream, err)
		}
		appLogger().WarnContext(ctx, "sign-in token rejected",
			"operation", "verify_token",
			"outcome", "failure",
			"link_state", string(state),
		)
		return VerifyTokenResponse{}, domain.ErrAuthentication
	}

	resp := VerifyTokenResponse{
		UID:           cred.UID,
		Email:         cred.Email,
		EmailVerified: cred.EmailVerified,
		SessionToken:  cred.SessionToken,
		ExpiresIn:     int64(time.Until(cred.SessionExpiresAt).Seconds()),
		Metadata: AccountMetadata{
			CreationTime:   cred.CreatedAt,
			LastSignInTime: cred.LastSignInAt,
		},
	}

	if cred.Fingerprint != "" && device.Fingerprint != "" && cred.Fingerprint != device.Fingerprint {
		resp.Warning = WarningDeviceMismatch
		appLogger().WarnContext(ctx, "link verified from a different device",
			"operation", "verify_token",
			"outcome", "success",
			"warning", WarningDeviceMismatch,
			"uid", cred.UID.String(),
		)
	}

	record, err := s.directory.Get(ctx, cred.UID)
	if err == nil {
		resp.FullName = record.FullName
		resp.Role = record.Role
	} else if !errors.Is(err, domain.ErrNotFound) {
		appLogger().WarnContext(ctx, "directory lookup failed during verification",
			"operation", "verify_token",
			"outcome", "degraded",
			"uid", cred.UID.String(),
			"error", err.Error(),
		)
	}

	now := s.nowFn()
	if err := s.loginActivity.Record(ctx, domain.LoginActivity{
		UID:         cred.UID,
		At:          now,
		Fingerprint: device.Fingerprint,
		IPAddress:   device.IPAddress,
		UserAgent:   device.UserAgent,
		Status:      "success",
	}, s.cfg.LoginHistoryKeep); err != nil {
		appLogger().WarnContext(ctx, "login activity write failed",
			"operation", "verify_token",
			"outcome", "degraded",
			"uid", cred.UID.String(),
			"error", err.Error(),
		)
	}
	if err := s.directory.TouchLastLogin(ctx, cred.UID, now); err != nil && !errors.Is(err, domain.ErrNotFound) {
		appLogger().WarnContext(ctx, "last-login update failed",
			"operation", "verify_token",
			"outcome", "degraded",
			"uid", cred.UID.String(),
			"error", err.Error(),
		)
	}

	return resp, nil
}

// ValidateSession checks a bearer credential for the auth guard. Any parse
// or expiry failure maps to domain.ErrAuthentication.
func (s *AuthService) ValidateSession(ctx context.Context, bearer string) (ports.SessionClaims, error) {
	claims, err := s.identity.VerifySession(ctx, bearer)
	if err != nil {
		return ports.SessionClaims{}, domain.ErrAuthentication
	}
	return claims, nil
}

// Profile merges the caller's directory record with identity-provider
// account metadata.
func (s *AuthService) Profile(ctx context.Context, claims ports.SessionClaims) (ProfileResponse, error) {
	account, err := s.identity.GetAccount(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ProfileResponse{}, fmt.Errorf("%w: account not found", domain.ErrNotFound)
		}
		return ProfileResponse{}, fmt.Errorf("%w: account lookup: %v", domain.ErrUpstream, err)
	}
	record, err := s.directory.Get(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ProfileResponse{}, fmt.Errorf("%w: user profile not found", domain.ErrNotFound)
		}
		return ProfileResponse{}, fmt.Errorf("%w: directory lookup: %v", domain.ErrUpstream, err)
	}

	return ProfileResponse{
		UID:           account.UID,
		FullName:      record.FullName,
		Email:         record.Email,
		Phone:         record.Phone,
		FarmName:      record.FarmName,
		FarmLocation:  record.FarmLocation,
		FarmSize:      record.FarmSize,
		Role:          record.Role,
		EmailVerified: account.EmailVerified,
		CreatedAt:     record.CreatedAt,
		LastLoginAt:   record.LastLoginAt,
	}, nil
}

// LoginHistory returns the caller's capped login activity, newest first.
func (s *AuthService) LoginHistory(ctx context.Context, claims ports.SessionClaims, limit int) ([]LoginHistoryItem, error) {
	if limit <= 0 || limit > s.cfg.LoginHistoryKeep {
		limit = s.cfg.LoginHistoryKeep
	}
	activities, err := s.loginActivity.ListByUser(ctx, claims.UID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: login history: %v", domain.ErrUpstream, err)
	}
	items := make([]LoginHistoryItem, 0, len(activities))
	for _, a := range activities {
		items = append(items, LoginHistoryItem{
			Timestamp:   a.At,
			Status:      a.Status,
			IPAddress:   a.IPAddress,
			Fingerprint: a.Fingerprint,
			UserAgent:   a.UserAgent,
		})
	}
	return items, nil
}

func (s *AuthService) magicLinkRedirectURL() string {
	return s.cfg.FrontendBaseURL + s.cfg.MagicLinkPath
}
