package application

import (
	"time"

	"github.com/google/uuid"
)

// Config carries the flow-level knobs; transport and storage settings stay in
// bootstrap.
type Config struct {
	FrontendBaseURL       string
	MagicLinkPath         string
	DeviceVerifyPath      string
	DevMode               bool
	LinkTTL               time.Duration
	DeviceVerificationTTL time.Duration
	SessionTTL            time.Duration
	TrustedDeviceLimit    int
	LoginHistoryKeep      int
	DefaultRole           string
}

type RegisterRequest struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	FarmName     string `json:"farmName,omitempty"`
	FarmLocation string `json:"farmLocation,omitempty"`
	FarmSize     string `json:"farmSize,omitempty"`
}

type RegisterResponse struct {
	UID      uuid.UUID `json:"uid"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
}

type CheckEmailResponse struct {
	Registered bool   `json:"registered"`
	FullName   string `json:"fullName,omitempty"`
}

// DeviceContext is the request-side device information computed by the HTTP
// boundary. An empty fingerprint means the caller provided no device signal
// and the trust checks are skipped.
type DeviceContext struct {
	Fingerprint string
	DeviceType  string
	OS          string
	Browser     string
	IPAddress   string
	UserAgent   string
}

type MagicLinkResponse struct {
	Message                    string `json:"message"`
	Delivered                  bool   `json:"delivered"`
	RequiresDeviceVerification bool   `json:"requiresDeviceVerification,omitempty"`

	// Link is only populated in development mode.
	Link string `json:"link,omitempty"`
}

type VerifyTokenResponse struct {
	UID           uuid.UUID       `json:"uid"`
	Email         string          `json:"email"`
	EmailVerified bool            `json:"emailVerified"`
	FullName      string          `json:"fullName,omitempty"`
	Role          string          `json:"role,omitempty"`
	SessionToken  string          `json:"sessionToken"`
	ExpiresIn     int64           `json:"expiresIn"`
	Metadata      AccountMetadata `json:"metadata"`
	// Warning carries the device-mismatch soft signal; policy is the
	// caller's to decide.
	Warning string `json:"warning,omitempty"`
}

type AccountMetadata struct {
	CreationTime   time.Time  `json:"creationTime"`
	LastSignInTime *time.Time `json:"lastSignInTime,omitempty"`
}

type ProfileResponse struct {
	UID           uuid.UUID  `json:"uid"`
	FullName      string     `json:"fullName"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	FarmName      string     `json:"farmName,omitempty"`
	FarmLocation  string     `json:"farmLocation,omitempty"`
	FarmSize      string     `json:"farmSize,omitempty"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

type VerifyDeviceResponse struct {
	Message   string `json:"message"`
	Delivered bool   `json:"delivered"`
	Link      string `json:"link,omitempty"`
}

type TrustedDeviceItem struct {
	Fingerprint string    `json:"fingerprint"`
	DeviceType  string    `json:"deviceType,omitempty"`
	OS          string    `json:"os,omitempty"`
	Browser     string    `json:"browser,omitempty"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	AddedAt     time.Time `json:"addedAt"`
	LastUsedAt  time.Time `json:"lastUsedAt"`
}

type LoginHistoryItem struct {
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
}

// WarningDeviceMismatch is returned when a link is verified on a device
// other than the one that requested it. Soft signal only.
const WarningDeviceMismatch = "device_mismatch"
