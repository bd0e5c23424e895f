package models

import "time"

// RawRecord is one loosely-typed audit record as it arrives from a source
// tenant. Field names vary between upstream log shapes.
type RawRecord map[string]interface{}

// IdentityStrategy names how a user identity was resolved or synthesized.
type IdentityStrategy string

const (
	IdentityExplicit    IdentityStrategy = "explicit"
	IdentitySession     IdentityStrategy = "session"
	IdentityIP          IdentityStrategy = "ip"
	IdentityApplication IdentityStrategy = "application"
	IdentityRandom      IdentityStrategy = "random"
)

// Identity is a tagged user identity. Synthesized identities carry the
// strategy and seed they were derived from so aggregate statistics can
// report the breakdown without string parsing.
type Identity struct {
	Name     string           `json:"name"`
	Strategy IdentityStrategy `json:"strategy"`
	Seed     string           `json:"seed,omitempty"`
}

// IsUnknown reports whether the identity was synthesized rather than
// taken from an explicit source field.
func (id Identity) IsUnknown() bool {
	return id.Strategy != IdentityExplicit
}

// NormalizedEvent is the canonical view of one raw audit record.
type NormalizedEvent struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	User            Identity  `json:"user"`
	Operation       string    `json:"operation"`
	Result          string    `json:"result"`
	IPAddress       string    `json:"ip_address"`
	UserAgent       string    `json:"user_agent"`
	Application     string    `json:"application"`
	Location        string    `json:"location"`
	Category        string    `json:"category"`
	TargetResources []string  `json:"target_resources,omitempty"`
	Raw             RawRecord `json:"raw,omitempty"`
}

// UnknownIP is the sentinel recorded when no source field yields an address.
const UnknownIP = "unknown"
