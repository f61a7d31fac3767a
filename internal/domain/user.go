package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoleFarmer is the only role this subsystem assigns at registration.
const RoleFarmer = "farmer"

// Account is the identity-provider view of a user: the provider owns the
// email->uid mapping, the email-verification flag and sign-in metadata.
type Account struct {
	UID           uuid.UUID
	Email         string
	DisplayName   string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastSignInAt  *time.Time
}

// DirectoryRecord is the application-owned profile document keyed by the
// provider uid. A record exists iff registration completed; anything else is
// treated as "not registered" for login purposes.
type DirectoryRecord struct {
	UID          uuid.UUID
	FullName     string
	Email        string
	Phone        string
	FarmName     string
	FarmLocation string
	FarmSize     string
	Role         string
	IsRegistered bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// TrustedDevice is a device fingerprint the user has confirmed via a
// verification link. Trust is a soft signal for link issuance, not a
// security boundary.
type TrustedDevice struct {
	Fingerprint string
	DeviceType  string
	OS          string
	Browser     string
	IPAddress   string
	AddedAt     time.Time
	LastUsedAt  time.Time
}

// LoginActivity records a successful magic-link verification for the
// login-history endpoint. History is capped per user.
type LoginActivity struct {
	ID          int64
	UID         uuid.UUID
	At          time.Time
	Fingerprint string
	IPAddress   string
	UserAgent   string
	Status      string
}
