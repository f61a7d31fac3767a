package email

import (
	"context"
	"log/slog"

	"github.com/shambasecure/auth-service/internal/domain"
)

// LogDispatcher writes notifications to the log instead of a mail relay.
// Used in development when SMTP credentials are absent.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher { return &LogDispatcher{} }

func (d *LogDispatcher) SendMagicLink(ctx context.Context, email, fullName, link string) error {
	d.log(ctx, "magic_link", email, "link", link)
	return nil
}

func (d *LogDispatcher) SendWelcome(ctx context.Context, email, fullName string) error {
	d.log(ctx, "welcome", email)
	return nil
}

func (d *LogDispatcher) SendDeviceVerification(ctx context.Context, email, fullName string, device domain.TrustedDevice, link string) error {
	d.log(ctx, "device_verification", email, "link", link, "fingerprint", device.Fingerprint)
	return nil
}

func (d *LogDispatcher) SendNewDeviceAlert(ctx context.Context, email string, device domain.TrustedDevice) error {
	d.log(ctx, "new_device_alert", email, "fingerprint", device.Fingerprint)
	return nil
}

func (d *LogDispatcher) log(ctx context.Context, kind, email string, extra ...any) {
	fields := append([]any{
		"module", "email",
		"layer", "adapter",
		"operation", "send",
		"outcome", "logged",
		"kind", kind,
		"to", email,
	}, extra...)
	slog.Default().InfoContext(ctx, "notification logged instead of sent", fields...)
}
