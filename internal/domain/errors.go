package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for malformed or missing input before any
	// upstream call is made. Adapters map it to 400.
	ErrValidation = errors.New("validation failed")
	// ErrConflict signals a duplicate registration for an email that already
	// has an account. The account store unique constraint is the
	// authoritative tie-break, so a late unique violation still maps here.
	ErrConflict = errors.New("already registered")
	// ErrNotFound covers unregistered emails and missing directory records.
	// For check-email this is a legitimate outcome, not a hard failure.
	ErrNotFound = errors.New("not registered")
	// ErrAuthentication hides whether a credential was expired, consumed,
	// malformed or foreign. The finer sub-cause is logged server-side only.
	ErrAuthentication = errors.New("invalid or expired credential")
	// ErrUpstream is returned when the identity provider or the directory is
	// unavailable. Detail is suppressed outside development mode.
	ErrUpstream = errors.New("upstream unavailable")
	// ErrDelivery marks mail-relay failures. It is non-fatal at every call
	// site: registration and link issuance absorb it after logging.
	ErrDelivery = errors.New("delivery failed")
	// ErrPartialFailure means the provider account was created but the
	// directory write failed. It must surface distinctly so an operator can
	// reconcile the orphaned account.
	ErrPartialFailure = errors.New("account created but profile write failed")
)

// Token sub-causes wrap ErrAuthentication so adapter mapping stays uniform
// while server-side logs keep the precise terminal state.
var (
	ErrTokenExpired  = fmt.Errorf("%w: link expired", ErrAuthentication)
	ErrTokenConsumed = fmt.Errorf("%w: link already used", ErrAuthentication)
)
