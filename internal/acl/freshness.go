package acl

import "time"

// DefaultFreshnessWindow is the maximum interval the authorizer serves
// potentially stale rules before re-checking the source.
const DefaultFreshnessWindow = 10 * time.Second

// freshnessGovernor throttles how often the authorizer asks the source
// whether the rule set changed. It decouples "is it time to check"
// from "did it actually change", bounding the metadata-check rate to
// at most once per window regardless of request volume.
//
// The governor is not self-synchronized: it is guarded by the
// authorizer's lock together with the rule snapshot.
type freshnessGovernor struct {
	window    time.Duration
	lastCheck time.Time
}

// due reports whether a source check is due at the given instant. A
// zero lastCheck (never checked) is always due.
func (g *freshnessGovernor) due(now time.Time) bool {
	if g.lastCheck.IsZero() {
		return true
	}
	return !now.Before(g.lastCheck.Add(g.window))
}

// record marks a check as performed. lastCheck only advances forward.
func (g *freshnessGovernor) record(now time.Time) {
	if now.After(g.lastCheck) {
		g.lastCheck = now
	}
}
