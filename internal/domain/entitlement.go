package domain

import (
	"math"
	"time"
)

// EntitlementRecord is the persisted premium grant for a device.
// A record with no expiry is a lifetime grant: its mere presence means
// premium. This mirrors purchases of the lifetime plan and is deliberate,
// not a fallback for missing data.
type EntitlementRecord struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// Source records where the grant came from (e.g., "checkout", "manual").
	Source    string    `json:"source,omitempty"`
	GrantedAt time.Time `json:"granted_at"`
}

// Expired reports whether the record has an expiry in the past.
func (r *EntitlementRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// DaysRemaining returns the whole days until expiry, rounded up.
// Returns 0 and false for lifetime grants.
func (r *EntitlementRecord) DaysRemaining(now time.Time) (int, bool) {
	if r.ExpiresAt == nil {
		return 0, false
	}
	days := math.Ceil(r.ExpiresAt.Sub(now).Hours() / 24)
	return int(days), true
}

// EntitlementStatus is the derived premium/free view for a device.
type EntitlementStatus struct {
	IsPremium bool       `json:"is_premium"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Features  []Feature  `json:"features"`
	// DaysRemaining is present only for premium grants with an expiry.
	DaysRemaining *int `json:"days_remaining,omitempty"`
}
