// Package keystore provides the durable API key registry for the gateway:
// issuance, validation, revocation and file persistence.
package keystore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tier is an access level attached to an API key. Tiers are totally
// ordered: TierRead < TierFull < TierAdmin.
type Tier int

// Access tiers.
const (
	TierRead  Tier = 1
	TierFull  Tier = 2
	TierAdmin Tier = 3
)

// String returns the canonical tier name.
func (t Tier) String() string {
	switch t {
	case TierRead:
		return "READ"
	case TierFull:
		return "FULL"
	case TierAdmin:
		return "ADMIN"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(t))
	}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t >= TierRead && t <= TierAdmin
}

// Satisfies reports whether a key of tier t is accepted on a route
// requiring min.
func (t Tier) Satisfies(min Tier) bool {
	return t >= min
}

// ParseTier parses a tier name (case-insensitive).
func ParseTier(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "READ":
		return TierRead, nil
	case "FULL":
		return TierFull, nil
	case "ADMIN":
		return TierAdmin, nil
	default:
		return 0, fmt.Errorf("unknown tier: %q", s)
	}
}

// MarshalJSON encodes the tier as its canonical name.
func (t Tier) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid tier %d", int(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tier from its canonical name.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
