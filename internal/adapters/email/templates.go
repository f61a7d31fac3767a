package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shambasecure/auth-service/internal/domain"
)

var (
	magicLinkTmpl = template.Must(template.New("magic_link").Parse(`<html>
  <body style="font-family: Arial, sans-serif;">
    <h2>Welcome back, {{.FullName}}</h2>
    <p>Click the secure link below to log in to your ShambaSecure account:</p>
    <a href="{{.Link}}"
       style="display:inline-block;background-color:#28a745;color:white;padding:10px 20px;text-decoration:none;border-radius:5px;">
       Login Now
    </a>
    <p>This link will expire shortly for your security.</p>
    <p>Best regards,<br><b>ShambaSecure Security Team</b></p>
  </body>
</html>`))

	welcomeTmpl = template.Must(template.New("welcome").Parse(`<html>
  <body style="font-family: Arial, sans-serif;">
    <h2>Welcome to ShambaSecure, {{.FullName}}!</h2>
    <p>Your account is ready. Log in any time with a magic link sent to this address; no password needed.</p>
    <p>Best,<br><b>ShambaSecure Team</b></p>
  </body>
</html>`))

	deviceVerificationTmpl = template.Must(template.New("device_verification").Parse(`<html>
  <body style="font-family: Arial, sans-serif;">
    <h2>Hello {{.FullName}},</h2>
    <p>We noticed a login attempt from a <b>new device</b> not previously associated with your account.</p>
    <table style="border-collapse: collapse; margin: 10px 0;">
      <tr><td><b>Device:</b></td><td>{{.DeviceType}}</td></tr>
      <tr><td><b>Operating System:</b></td><td>{{.OS}}</td></tr>
      <tr><td><b>Browser:</b></td><td>{{.Browser}}</td></tr>
      <tr><td><b>IP Address:</b></td><td>{{.IPAddress}}</td></tr>
      <tr><td><b>Attempt Time:</b></td><td>{{.At}}</td></tr>
    </table>
    <p>If this was you, please click below to verify this device:</p>
    <a href="{{.Link}}"
       style="display:inline-block;background-color:#17a2b8;color:white;padding:10px 20px;text-decoration:none;border-radius:5px;">
       Verify Device
    </a>
    <p>If this was not you, please secure your account immediately.</p>
    <p>Stay safe,<br><b>ShambaSecure Security Team</b></p>
  </body>
</html>`))

	newDeviceAlertTmpl = template.Must(template.New("new_device_alert").Parse(`<html>
  <body style="font-family: Arial, sans-serif;">
    <h2>New Device Login Alert</h2>
    <p>Hello,</p>
    <p>A new device has just been verified on your ShambaSecure account.</p>
    <table style="border-collapse: collapse; margin: 10px 0;">
      <tr><td><b>Device:</b></td><td>{{.DeviceType}}</td></tr>
      <tr><td><b>Operating System:</b></td><td>{{.OS}}</td></tr>
      <tr><td><b>Browser:</b></td><td>{{.Browser}}</td></tr>
      <tr><td><b>IP Address:</b></td><td>{{.IPAddress}}</td></tr>
      <tr><td><b>Login Time:</b></td><td>{{.At}}</td></tr>
    </table>
    <p>If this was not you, please contact support immediately.</p>
    <p>Stay secure,<br><b>ShambaSecure Security Team</b></p>
  </body>
</html>`))
)

type deviceTemplateData struct {
	FullName   string
	Link       string
	DeviceType string
	OS         string
	Browser    string
	IPAddress  string
	At         string
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func deviceData(fullName, link string, device domain.TrustedDevice, at time.Time) deviceTemplateData {
	return deviceTemplateData{
		FullName:   fullName,
		Link:       link,
		DeviceType: orUnknown(device.DeviceType),
		OS:         orUnknown(device.OS),
		Browser:    orUnknown(device.Browser),
		IPAddress:  orUnknown(device.IPAddress),
		At:         at.UTC().Format("2006-01-02 15:04:05 UTC"),
	}
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}
