package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shambasecure/auth-service/internal/domain"
	"github.com/shambasecure/auth-service/internal/ports"
)

// VerifyDevice consumes a device-verification token, trusts the device and
// immediately mints a magic link for it so the user does not have to restart
// the login flow.
func (s *AuthService) VerifyDevice(ctx context.Context, token string) (VerifyDeviceResponse, error) {
	if strings.TrimSpace(token) == "" {
		return VerifyDeviceResponse{}, fmt.Errorf("%w: verification token is required", domain.ErrValidation)
	}

	verification, err := s.deviceVerifications.Consume(ctx, hashToken(strings.TrimSpace(token)))
	if err != nil {
		if errors.Is(err, domain.ErrTokenConsumed) {
			return VerifyDeviceResponse{}, domain.ErrAuthentication
		}
		return VerifyDeviceResponse{}, fmt.Errorf("%w: consume device verification: %v", domain.ErrUpstream, err)
	}
	if verification == nil || verification.ExpiresAt.Before(s.nowFn()) {
		return VerifyDeviceResponse{}, domain.ErrAuthentication
	}

	if err := s.trustedDevices.Add(ctx, verification.UID, verification.Device, s.cfg.TrustedDeviceLimit); err != nil {
		return VerifyDeviceResponse{}, fmt.Errorf("%w: trust device: %v", domain.ErrUpstream, err)
	}

	if err := s.notifier.SendNewDeviceAlert(ctx, verification.Email, verification.Device); err != nil {
		appLogger().WarnContext(ctx, "new device alert failed",
			"operation", "verify_device",
			"outcome", "degraded",
			"uid", verification.UID.String(),
			"error", err.Error(),
		)
	}

	link, err := s.identity.MintSignInLink(ctx, verification.Email, s.magicLinkRedirectURL(), ports.SignInBinding{
		Fingerprint: verification.Device.Fingerprint,
		IPAddress:   verification.Device.IPAddress,
	})
	if err != nil {
		return VerifyDeviceResponse{}, fmt.Errorf("%w: mint sign-in link: %v", domain.ErrUpstream, err)
	}

	fullName := ""
	if record, recErr := s.directory.Get(ctx, verification.UID); recErr == nil {
		fullName = record.FullName
	}

	resp := VerifyDeviceResponse{Delivered: true, Message: "Device verified! Magic link sent to your email."}
	if err := s.notifier.SendMagicLink(ctx, verification.Email, fullName, link); err != nil {
		appLogger().WarnContext(ctx, "magic link email failed after device verification",
			"operation", "verify_device",
			"outcome", "degraded",
			"uid", verification.UID.String(),
			"error", err.Error(),
		)
		resp.Delivered = false
		resp.Message = "Device verified (email delivery unavailable)"
	}
	if s.cfg.DevMode {
		resp.Link = link
	}
	return resp, nil
}

// ListTrustedDevices returns the caller's confirmed devices, most recently
// used first.
func (s *AuthService) ListTrustedDevices(ctx context.Context, claims ports.SessionClaims) ([]TrustedDeviceItem, error) {
	devices, err := s.trustedDevices.List(ctx, claims.UID)
	if err != nil {
		return nil, fmt.Errorf("%w: list trusted devices: %v", domain.ErrUpstream, err)
	}
	items := make([]TrustedDeviceItem, 0, len(devices))
	for _, d := range devices {
		items = append(items, TrustedDeviceItem{
			Fingerprint: d.Fingerprint,
			DeviceType:  d.DeviceType,
			OS:          d.OS,
			Browser:     d.Browser,
			IPAddress:   d.IPAddress,
			AddedAt:     d.AddedAt,
			LastUsedAt:  d.LastUsedAt,
		})
	}
	return items, nil
}

// RemoveTrustedDevice drops a fingerprint from the caller's trusted list.
func (s *AuthService) RemoveTrustedDevice(ctx context.Context, claims ports.SessionClaims, fingerprint string) error {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return fmt.Errorf("%w: device fingerprint is required", domain.ErrValidation)
	}
	ok, err := s.trustedDevices.Remove(ctx, claims.UID, fingerprint)
	if err != nil {
		return fmt.Errorf("%w: remove trusted device: %v", domain.ErrUpstream, err)
	}
	if !ok {
		return fmt.Errorf("%w: device not found", domain.ErrNotFound)
	}
	return nil
}
