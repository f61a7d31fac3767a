package domain

// LinkState tracks a magic-link token through its lifecycle. Issuance and
// dispatch are one logical step, so a minted token starts at LinkSent.
// Verified, Expired, Consumed and Invalid are terminal: there is no
// transition back to issuance for the same token.
type LinkState string

const (
	LinkStateRequested LinkState = "requested"
	LinkStateSent      LinkState = "link_sent"
	LinkStateVerified  LinkState = "verified"
	LinkStateExpired   LinkState = "expired"
	LinkStateConsumed  LinkState = "consumed"
	LinkStateInvalid   LinkState = "invalid"
)

// Terminal reports whether no further transition is allowed for the state.
func (s LinkState) Terminal() bool {
	switch s {
	case LinkStateVerified, LinkStateExpired, LinkStateConsumed, LinkStateInvalid:
		return true
	}
	return false
}
