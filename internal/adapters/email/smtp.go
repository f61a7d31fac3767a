// Package email sends transactional mail over SMTP. Every failure is
// wrapped in domain.ErrDelivery so callers can treat it as non-fatal.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shambasecure/auth-service/internal/domain"
	mail "github.com/wneessen/go-mail"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPDispatcher implements the notification-dispatcher port against a
// plain SMTP relay (Gmail app passwords in the hosted setup).
type SMTPDispatcher struct {
	client *mail.Client
	from   string
	nowFn  func() time.Time
}

func NewSMTPDispatcher(cfg Config) (*SMTPDispatcher, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPDispatcher{
		client: client,
		from:   cfg.From,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (d *SMTPDispatcher) SendMagicLink(ctx context.Context, email, fullName, link string) error {
	body, err := renderTemplate(magicLinkTmpl, map[string]string{
		"FullName": orUnknown(fullName),
		"Link":     link,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return d.send(ctx, email, "Your ShambaSecure Magic Login Link", body)
}

func (d *SMTPDispatcher) SendWelcome(ctx context.Context, email, fullName string) error {
	body, err := renderTemplate(welcomeTmpl, map[string]string{
		"FullName": orUnknown(fullName),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return d.send(ctx, email, "Welcome to ShambaSecure", body)
}

func (d *SMTPDispatcher) SendDeviceVerification(ctx context.Context, email, fullName string, device domain.TrustedDevice, link string) error {
	body, err := renderTemplate(deviceVerificationTmpl, deviceData(orUnknown(fullName), link, device, d.nowFn()))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return d.send(ctx, email, "Verify New Device Access - ShambaSecure", body)
}

func (d *SMTPDispatcher) SendNewDeviceAlert(ctx context.Context, email string, device domain.TrustedDevice) error {
	body, err := renderTemplate(newDeviceAlertTmpl, deviceData("", "", device, d.nowFn()))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return d.send(ctx, email, "New Device Login Detected - ShambaSecure", body)
}

func (d *SMTPDispatcher) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(d.from); err != nil {
		return fmt.Errorf("%w: from address: %v", domain.ErrDelivery, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("%w: to address: %v", domain.ErrDelivery, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := d.client.DialAndSendWithContext(ctx, msg); err != nil {
		slog.Default().WarnContext(ctx, "smtp send failed",
			"module", "email",
			"layer", "adapter",
			"operation", "send",
			"outcome", "failure",
			"subject", subject,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return nil
}
