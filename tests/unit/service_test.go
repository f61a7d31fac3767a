package unit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shambasecure/auth-service/internal/adapters/identity"
	"github.com/shambasecure/auth-service/internal/application"
	"github.com/shambasecure/auth-service/internal/domain"
	"github.com/shambasecure/auth-service/internal/ports"
)

var (
	deviceA = application.DeviceContext{
		Fingerprint: "fp-device-a",
		DeviceType:  "desktop",
		OS:          "Linux",
		Browser:     "Firefox",
		IPAddress:   "127.0.0.1",
		UserAgent:   "unit-test-a",
	}
	deviceB = application.DeviceContext{
		Fingerprint: "fp-device-b",
		DeviceType:  "mobile",
		OS:          "Android 14",
		Browser:     "Chrome",
		IPAddress:   "10.0.0.9",
		UserAgent:   "unit-test-b",
	}
)

func TestRegisterThenDuplicateConflicts(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	res, err := f.register(ctx, "Amina Wanjiru", "amina@example.com")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if res.UID == uuid.Nil {
		t.Fatalf("register returned empty uid")
	}
	if len(f.notifier.welcomes) != 1 {
		t.Fatalf("expected one welcome email, got %d", len(f.notifier.welcomes))
	}

	// Same address in different case must still conflict.
	if _, err := f.register(ctx, "Amina Wanjiru", "AMINA@Example.COM"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}
}

func TestRegisterValidationStopsBeforeUpstream(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	cases := []application.RegisterRequest{
		{FullName: "No Email", Phone: "+254700000001"},
		{FullName: "Bad Email", Email: "not-an-email", Phone: "+254700000001"},
		{Email: "missing@example.com", Phone: "+254700000001"},
		{FullName: "No Phone", Email: "nophone@example.com"},
	}
	for _, req := range cases {
		if _, err := f.service.Register(ctx, req); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
	if f.accounts.calls != 0 {
		t.Fatalf("expected no account store calls on validation failure, got %d", f.accounts.calls)
	}
}

func TestCheckEmailBeforeAndAfterRegistration(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	if _, err := f.service.CheckEmail(ctx, "ghost@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found before registration, got %v", err)
	}

	if _, err := f.register(ctx, "Juma Otieno", "juma@example.com"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := f.service.CheckEmail(ctx, "Juma@Example.com")
	if err != nil {
		t.Fatalf("check email failed: %v", err)
	}
	if !res.Registered || res.FullName != "Juma Otieno" {
		t.Fatalf("unexpected check-email response: %+v", res)
	}
}

func TestMagicLinkIsSingleUse(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	uid := f.mustRegisterTrusted(ctx, t, "Neema Baraka", "neema@example.com", deviceA)

	link, err := f.service.SendMagicLink(ctx, "neema@example.com", deviceA)
	if err != nil {
		t.Fatalf("send magic link failed: %v", err)
	}
	if !link.Delivered || link.RequiresDeviceVerification {
		t.Fatalf("expected delivered link without device verification: %+v", link)
	}

	token := tokenFromLink(t, link.Link)
	verifyRes, err := f.service.VerifyToken(ctx, token, deviceA)
	if err != nil {
		t.Fatalf("verify token failed: %v", err)
	}
	if verifyRes.UID != uid || verifyRes.SessionToken == "" {
		t.Fatalf("unexpected verify response: %+v", verifyRes)
	}
	if verifyRes.Warning != "" {
		t.Fatalf("unexpected warning on same device: %q", verifyRes.Warning)
	}
	if verifyRes.FullName != "Neema Baraka" || verifyRes.Role != domain.RoleFarmer {
		t.Fatalf("expected directory fields on verify response: %+v", verifyRes)
	}

	// Reusing the consumed token must fail with the generic auth error.
	if _, err := f.service.VerifyToken(ctx, token, deviceA); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected authentication error on token reuse, got %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.mustRegisterTrusted(ctx, t, "Kiptoo Arap", "kiptoo@example.com", deviceA)

	link, err := f.service.SendMagicLink(ctx, "kiptoo@example.com", deviceA)
	if err != nil {
		t.Fatalf("send magic link failed: %v", err)
	}
	token := tokenFromLink(t, link.Link)
	f.links.expireAll()

	if _, err := f.service.VerifyToken(ctx, token, deviceA); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected authentication error for expired token, got %v", err)
	}
}

func TestStoreOutageIsUpstreamNotAuthentication(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.mustRegisterTrusted(ctx, t, "Makena Gitonga", "makena@example.com", deviceA)

	link, err := f.service.SendMagicLink(ctx, "makena@example.com", deviceA)
	if err != nil {
		t.Fatalf("send magic link failed: %v", err)
	}
	token := tokenFromLink(t, link.Link)

	// An unreachable link store is a 500-class failure, not a bad token.
	f.links.failConsume = true
	_, err = f.service.VerifyToken(ctx, token, deviceA)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error when the link store is down, got %v", err)
	}
	if errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("store outage must not look like an invalid token: %v", err)
	}

	f.links.failConsume = false
	if _, err := f.service.VerifyToken(ctx, token, deviceA); err != nil {
		t.Fatalf("token should still be live once the store recovers: %v", err)
	}
}

func TestVerificationStoreOutageIsUpstream(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	if _, err := f.register(ctx, "Chebet Rotich", "chebet@example.com"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := f.service.SendMagicLink(ctx, "chebet@example.com", deviceA)
	if err != nil {
		t.Fatalf("send magic link failed: %v", err)
	}
	if !res.RequiresDeviceVerification {
		t.Fatalf("expected device verification for unknown device: %+v", res)
	}
	token := tokenFromLink(t, res.Link)

	f.verifications.failConsume = true
	_, err = f.service.VerifyDevice(ctx, token)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error when the verification store is down, got %v", err)
	}

	f.verifications.failConsume = false
	if _, err := f.service.VerifyDevice(ctx, token); err != nil {
		t.Fatalf("verification should still succeed once the store recovers: %v", err)
	}
}

func TestMailFailureDegradesButSucceeds(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.notifier.fail = true
	if _, err := f.register(ctx, "Wekesa Simiyu", "wekesa@example.com"); err != nil {
		t.Fatalf("register should absorb welcome mail failure: %v", err)
	}

	f.notifier.fail = false
	f.trustDevice(ctx, t, "wekesa@example.com", deviceA)

	f.notifier.fail = true
	res, err := f.service.SendMagicLink(ctx, "wekesa@example.com", deviceA)
	if err != nil {
		t.Fatalf("send magic link should absorb mail failure: %v", err)
	}
	if res.Delivered {
		t.Fatalf("expected delivered=false when relay is down")
	}
	if res.Link == "" {
		t.Fatalf("dev mode should still echo the generated link")
	}
}

func TestDeviceMismatchIsWarningNotBlock(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.mustRegisterTrusted(ctx, t, "Achieng Odhiambo", "achieng@example.com", deviceA)

	link, err := f.service.SendMagicLink(ctx, "achieng@example.com", deviceA)
	if err != nil {
		t.Fatalf("send magic link failed: %v", err)
	}

	// The link was requested from device A but opened on device B. Login
	// still succeeds with the warning set.
	res, err := f.service.VerifyToken(ctx, tokenFromLink(t, link.Link), deviceB)
	if err != nil {
		t.Fatalf("verify on different device should succeed: %v", err)
	}
	if res.Warning != application.WarningDeviceMismatch {
		t.Fatalf("expected device mismatch warning, got %q", res.Warning)
	}
	if res.SessionToken == "" {
		t.Fatalf("expected a session despite the warning")
	}
}

func TestUnknownDeviceTriggersVerificationFlow(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	if _, err := f.register(ctx, "Mutua Kilonzo", "mutua@example.com"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := f.service.SendMagicLink(ctx, "mutua@example.com", deviceA)
	if err != nil {
		t.Fatalf("send magic link failed: %v", err)
	}
	if !res.RequiresDeviceVerification {
		t.Fatalf("expected device verification for unknown device: %+v", res)
	}
	if len(f.notifier.deviceVerifications) != 1 {
		t.Fatalf("expected one device verification email, got %d", len(f.notifier.deviceVerifications))
	}

	verifyRes, err := f.service.VerifyDevice(ctx, tokenFromLink(t, res.Link))
	if err != nil {
		t.Fatalf("verify device failed: %v", err)
	}
	if !verifyRes.Delivered || verifyRes.Link == "" {
		t.Fatalf("expected a fresh magic link after device verification: %+v", verifyRes)
	}
	if len(f.notifier.alerts) != 1 {
		t.Fatalf("expected one new-device alert, got %d", len(f.notifier.alerts))
	}

	// The verification token is single use as well.
	if _, err := f.service.VerifyDevice(ctx, tokenFromLink(t, res.Link)); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected authentication error on verification token reuse, got %v", err)
	}

	// The device is now trusted: a second request mints a link directly.
	again, err := f.service.SendMagicLink(ctx, "mutua@example.com", deviceA)
	if err != nil {
		t.Fatalf("send magic link after trust failed: %v", err)
	}
	if again.RequiresDeviceVerification {
		t.Fatalf("device should be trusted after verification")
	}
}

func TestSendMagicLinkRequiresRegistration(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	if _, err := f.service.SendMagicLink(ctx, "nobody@example.com", deviceA); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found for unregistered email, got %v", err)
	}
	if f.links.putCalls != 0 {
		t.Fatalf("no token should be minted for unregistered email")
	}
}

func TestPartialFailureSurfacesDistinctly(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.directory.failPut = true
	_, err := f.register(ctx, "Halima Hassan", "halima@example.com")
	if !errors.Is(err, domain.ErrPartialFailure) {
		t.Fatalf("expected partial failure when directory write fails, got %v", err)
	}

	// The orphaned account exists, so the email is now taken.
	if _, lookupErr := f.accounts.GetByEmail(ctx, "halima@example.com"); lookupErr != nil {
		t.Fatalf("expected account to exist after partial failure: %v", lookupErr)
	}
}

func TestVerifyTokenRecordsLoginActivity(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	uid := f.mustRegisterTrusted(ctx, t, "Baraka Njoroge", "baraka@example.com", deviceA)

	link, err := f.service.SendMagicLink(ctx, "baraka@example.com", deviceA)
	if err != nil {
		t.Fatalf("send magic link failed: %v", err)
	}
	if _, err := f.service.VerifyToken(ctx, tokenFromLink(t, link.Link), deviceA); err != nil {
		t.Fatalf("verify token failed: %v", err)
	}

	claims := ports.SessionClaims{UID: uid, Email: "baraka@example.com"}
	history, err := f.service.LoginHistory(ctx, claims, 0)
	if err != nil {
		t.Fatalf("login history failed: %v", err)
	}
	if len(history) != 1 || history[0].Status != "success" || history[0].IPAddress != deviceA.IPAddress {
		t.Fatalf("unexpected login history: %+v", history)
	}

	record, err := f.directory.Get(ctx, uid)
	if err != nil {
		t.Fatalf("directory get failed: %v", err)
	}
	if record.LastLoginAt == nil {
		t.Fatalf("expected last login to be touched")
	}
}

func TestTrustedDeviceListAndRemove(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	uid := f.mustRegisterTrusted(ctx, t, "Zawadi Mwangi", "zawadi@example.com", deviceA)
	claims := ports.SessionClaims{UID: uid, Email: "zawadi@example.com"}

	devices, err := f.service.ListTrustedDevices(ctx, claims)
	if err != nil {
		t.Fatalf("list trusted devices failed: %v", err)
	}
	if len(devices) != 1 || devices[0].Fingerprint != deviceA.Fingerprint {
		t.Fatalf("unexpected trusted devices: %+v", devices)
	}

	if err := f.service.RemoveTrustedDevice(ctx, claims, deviceA.Fingerprint); err != nil {
		t.Fatalf("remove trusted device failed: %v", err)
	}
	if err := f.service.RemoveTrustedDevice(ctx, claims, deviceA.Fingerprint); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found for already removed device, got %v", err)
	}
}

func TestProfileMergesAccountAndDirectory(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	res, err := f.service.Register(ctx, application.RegisterRequest{
		FullName:     "Chebet Rono",
		Email:        "chebet@example.com",
		Phone:        "+254711000111",
		FarmName:     "Green Valley",
		FarmLocation: "Eldoret",
		FarmSize:     "12 acres",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	profile, err := f.service.Profile(ctx, ports.SessionClaims{UID: res.UID, Email: res.Email})
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.FarmName != "Green Valley" || profile.FarmLocation != "Eldoret" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.Role != domain.RoleFarmer {
		t.Fatalf("expected default role, got %q", profile.Role)
	}
}

// fixture wiring: the real identity provider runs over in-memory stores so
// mint/verify semantics are exercised end to end.

type fixture struct {
	service       *application.AuthService
	accounts      *memAccounts
	links         *memLinks
	directory     *memDirectory
	notifier      *fakeNotifier
	devices       *memDevices
	verifications *memDeviceVerifications
}

func newFixture() *fixture {
	accounts := &memAccounts{
		byEmail: map[string]domain.Account{},
		byID:    map[uuid.UUID]domain.Account{},
	}
	links := &memLinks{items: map[string]ports.SignInLink{}}
	signer := &fakeSigner{tokens: map[string]ports.SessionClaims{}}
	provider := identity.NewProvider(accounts, links, signer, identity.ProviderConfig{
		LinkTTL:    15 * time.Minute,
		SessionTTL: 24 * time.Hour,
	})

	directory := &memDirectory{records: map[uuid.UUID]domain.DirectoryRecord{}}
	notifier := &fakeNotifier{}
	devices := &memDevices{byUID: map[uuid.UUID][]domain.TrustedDevice{}}
	verifications := &memDeviceVerifications{items: map[string]ports.DeviceVerification{}}
	activity := &memActivity{byUID: map[uuid.UUID][]domain.LoginActivity{}}

	svc := application.NewAuthService(application.Dependencies{
		Config: application.Config{
			FrontendBaseURL:       "http://localhost:3000",
			MagicLinkPath:         "/verify",
			DeviceVerifyPath:      "/verify-device",
			DevMode:               true,
			LinkTTL:               15 * time.Minute,
			DeviceVerificationTTL: 30 * time.Minute,
			SessionTTL:            24 * time.Hour,
			TrustedDeviceLimit:    5,
			LoginHistoryKeep:      10,
			DefaultRole:           domain.RoleFarmer,
		},
		Identity:            provider,
		Directory:           directory,
		Notifier:            notifier,
		TrustedDevices:      devices,
		DeviceVerifications: verifications,
		LoginActivity:       activity,
	})

	return &fixture{
		service:       svc,
		accounts:      accounts,
		links:         links,
		directory:     directory,
		notifier:      notifier,
		devices:       devices,
		verifications: verifications,
	}
}

func (f *fixture) register(ctx context.Context, fullName, email string) (application.RegisterResponse, error) {
	return f.service.Register(ctx, application.RegisterRequest{
		FullName: fullName,
		Email:    email,
		Phone:    "+254700000000",
	})
}

func (f *fixture) trustDevice(ctx context.Context, t *testing.T, email string, device application.DeviceContext) {
	t.Helper()
	account, err := f.accounts.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		t.Fatalf("account lookup for trust failed: %v", err)
	}
	now := time.Now().UTC()
	err = f.devices.Add(ctx, account.UID, domain.TrustedDevice{
		Fingerprint: device.Fingerprint,
		DeviceType:  device.DeviceType,
		OS:          device.OS,
		Browser:     device.Browser,
		IPAddress:   device.IPAddress,
		AddedAt:     now,
		LastUsedAt:  now,
	}, 5)
	if err != nil {
		t.Fatalf("trust device failed: %v", err)
	}
}

func (f *fixture) mustRegisterTrusted(ctx context.Context, t *testing.T, fullName, email string, device application.DeviceContext) uuid.UUID {
	t.Helper()
	res, err := f.register(ctx, fullName, email)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	f.trustDevice(ctx, t, email, device)
	return res.UID
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link %q: %v", link, err)
	}
	token := u.Query().Get("token")
	if token == "" {
		t.Fatalf("link %q carries no token", link)
	}
	return token
}

type memAccounts struct {
	mu      sync.Mutex
	calls   int
	byEmail map[string]domain.Account
	byID    map[uuid.UUID]domain.Account
}

func (m *memAccounts) Create(_ context.Context, params ports.CreateAccountParams) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if _, ok := m.byEmail[params.Email]; ok {
		return domain.Account{}, domain.ErrConflict
	}
	account := domain.Account{
		UID:           uuid.New(),
		Email:         params.Email,
		DisplayName:   params.DisplayName,
		EmailVerified: params.EmailVerified,
		CreatedAt:     params.CreatedAtUTC,
		UpdatedAt:     params.CreatedAtUTC,
	}
	m.byEmail[account.Email] = account
	m.byID[account.UID] = account
	return account, nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	account, ok := m.byEmail[email]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func (m *memAccounts) GetByID(_ context.Context, uid uuid.UUID) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.byID[uid]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func (m *memAccounts) MarkSignedIn(_ context.Context, uid uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.byID[uid]
	if !ok {
		return domain.ErrNotFound
	}
	account.EmailVerified = true
	account.LastSignInAt = &at
	account.UpdatedAt = at
	m.byID[uid] = account
	m.byEmail[account.Email] = account
	return nil
}

type memLinks struct {
	mu          sync.Mutex
	putCalls    int
	failConsume bool
	items       map[string]ports.SignInLink
	consumed    map[string]bool
}

func (m *memLinks) Put(_ context.Context, tokenHash string, link ports.SignInLink, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	m.items[tokenHash] = link
	return nil
}

func (m *memLinks) Consume(_ context.Context, tokenHash string) (*ports.SignInLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failConsume {
		return nil, errors.New("link store unavailable")
	}
	if m.consumed == nil {
		m.consumed = map[string]bool{}
	}
	link, ok := m.items[tokenHash]
	if !ok {
		if m.consumed[tokenHash] {
			return nil, domain.ErrTokenConsumed
		}
		return nil, nil
	}
	delete(m.items, tokenHash)
	m.consumed[tokenHash] = true
	return &link, nil
}

// expireAll backdates every live link so the provider's expiry check fires.
func (m *memLinks) expireAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, link := range m.items {
		link.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		m.items[hash] = link
	}
}

type fakeSigner struct {
	mu     sync.Mutex
	count  int
	tokens map[string]ports.SessionClaims
}

func (f *fakeSigner) Sign(claims ports.SessionClaims) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	token := fmt.Sprintf("session-%d-%s", f.count, claims.UID)
	f.tokens[token] = claims
	return token, nil
}

func (f *fakeSigner) ParseAndValidate(token string) (ports.SessionClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claims, ok := f.tokens[token]
	if !ok {
		return ports.SessionClaims{}, domain.ErrAuthentication
	}
	return claims, nil
}

type memDirectory struct {
	mu      sync.Mutex
	failPut bool
	records map[uuid.UUID]domain.DirectoryRecord
}

func (m *memDirectory) Put(_ context.Context, record domain.DirectoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return errors.New("directory unavailable")
	}
	m.records[record.UID] = record
	return nil
}

func (m *memDirectory) Get(_ context.Context, uid uuid.UUID) (domain.DirectoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[uid]
	if !ok {
		return domain.DirectoryRecord{}, domain.ErrNotFound
	}
	return record, nil
}

func (m *memDirectory) Exists(_ context.Context, uid uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[uid]
	return ok, nil
}

func (m *memDirectory) TouchLastLogin(_ context.Context, uid uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[uid]
	if !ok {
		return domain.ErrNotFound
	}
	record.LastLoginAt = &at
	record.UpdatedAt = at
	m.records[uid] = record
	return nil
}

type fakeNotifier struct {
	mu                  sync.Mutex
	fail                bool
	welcomes            []string
	magicLinks          []string
	deviceVerifications []string
	alerts              []string
}

func (f *fakeNotifier) SendMagicLink(_ context.Context, email, _ string, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("%w: relay down", domain.ErrDelivery)
	}
	f.magicLinks = append(f.magicLinks, link)
	return nil
}

func (f *fakeNotifier) SendWelcome(_ context.Context, email, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("%w: relay down", domain.ErrDelivery)
	}
	f.welcomes = append(f.welcomes, email)
	return nil
}

func (f *fakeNotifier) SendDeviceVerification(_ context.Context, email, _ string, _ domain.TrustedDevice, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("%w: relay down", domain.ErrDelivery)
	}
	f.deviceVerifications = append(f.deviceVerifications, link)
	return nil
}

func (f *fakeNotifier) SendNewDeviceAlert(_ context.Context, email string, _ domain.TrustedDevice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("%w: relay down", domain.ErrDelivery)
	}
	f.alerts = append(f.alerts, email)
	return nil
}

type memDevices struct {
	mu    sync.Mutex
	byUID map[uuid.UUID][]domain.TrustedDevice
}

func (m *memDevices) List(_ context.Context, uid uuid.UUID) ([]domain.TrustedDevice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TrustedDevice(nil), m.byUID[uid]...), nil
}

func (m *memDevices) IsTrusted(_ context.Context, uid uuid.UUID, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.byUID[uid] {
		if d.Fingerprint == fingerprint {
			m.byUID[uid][i].LastUsedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

func (m *memDevices) Add(_ context.Context, uid uuid.UUID, device domain.TrustedDevice, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	devices := m.byUID[uid]
	for i, d := range devices {
		if d.Fingerprint == device.Fingerprint {
			devices[i] = device
			return nil
		}
	}
	devices = append(devices, device)
	if limit > 0 && len(devices) > limit {
		oldest := 0
		for i, d := range devices {
			if d.LastUsedAt.Before(devices[oldest].LastUsedAt) {
				oldest = i
			}
		}
		devices = append(devices[:oldest], devices[oldest+1:]...)
	}
	m.byUID[uid] = devices
	return nil
}

func (m *memDevices) Remove(_ context.Context, uid uuid.UUID, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	devices := m.byUID[uid]
	for i, d := range devices {
		if d.Fingerprint == fingerprint {
			m.byUID[uid] = append(devices[:i], devices[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type memDeviceVerifications struct {
	mu          sync.Mutex
	failConsume bool
	items       map[string]ports.DeviceVerification
	consumed    map[string]bool
}

func (m *memDeviceVerifications) Put(_ context.Context, tokenHash string, value ports.DeviceVerification, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[tokenHash] = value
	return nil
}

func (m *memDeviceVerifications) Consume(_ context.Context, tokenHash string) (*ports.DeviceVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failConsume {
		return nil, errors.New("verification store unavailable")
	}
	if m.consumed == nil {
		m.consumed = map[string]bool{}
	}
	value, ok := m.items[tokenHash]
	if !ok {
		if m.consumed[tokenHash] {
			return nil, domain.ErrTokenConsumed
		}
		return nil, nil
	}
	delete(m.items, tokenHash)
	m.consumed[tokenHash] = true
	return &value, nil
}

type memActivity struct {
	mu    sync.Mutex
	byUID map[uuid.UUID][]domain.LoginActivity
}

func (m *memActivity) Record(_ context.Context, activity domain.LoginActivity, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := append(m.byUID[activity.UID], activity)
	if keep > 0 && len(entries) > keep {
		entries = entries[len(entries)-keep:]
	}
	m.byUID[activity.UID] = entries
	return nil
}

func (m *memActivity) ListByUser(_ context.Context, uid uuid.UUID, limit int) ([]domain.LoginActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := append([]domain.LoginActivity(nil), m.byUID[uid]...)
	// newest first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
