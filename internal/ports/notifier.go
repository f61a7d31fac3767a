package ports

import (
	"context"

	"github.com/shambasecure/auth-service/internal/domain"
)

// NotificationDispatcher sends transactional mail through the external
// relay. Every method may fail with domain.ErrDelivery and every call site
// treats that as non-fatal: a mail-relay outage is never an authentication
// failure.
type NotificationDispatcher interface {
	SendMagicLink(ctx context.Context, email, fullName, link string) error
	SendWelcome(ctx context.Context, email, fullName string) error
	SendDeviceVerification(ctx context.Context, email, fullName string, device domain.TrustedDevice, link string) error
	SendNewDeviceAlert(ctx context.Context, email string, device domain.TrustedDevice) error
}
