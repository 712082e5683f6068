package models

import "time"

// Decision is a consent decision state. Declined is terminal for the
// session: no further application initialization may occur once recorded.
type Decision string

const (
	DecisionUnset    Decision = "unset"
	DecisionGranted  Decision = "granted"
	DecisionDeclined Decision = "declined"
)

// Granted reports whether the decision opens the gate.
func (d Decision) Granted() bool { return d == DecisionGranted }

// ParseCached maps a cache value to a decision. Only the literal "true"
// grants; anything else is either declined or unset.
func ParseCached(value string, found bool) Decision {
	switch {
	case !found:
		return DecisionUnset
	case value == "true":
		return DecisionGranted
	case value == "false":
		return DecisionDeclined
	default:
		return DecisionUnset
	}
}

// CacheValue returns the durable encoding for the decision.
func (d Decision) CacheValue() string {
	if d == DecisionGranted {
		return "true"
	}
	return "false"
}

// Record is one user's consent decision with the time it was made.
type Record struct {
	UserID    string
	Decision  Decision
	DecidedAt time.Time
}

// Gate is the outcome of reconciling backend and cached consent state.
type Gate struct {
	Open     bool
	Decision Decision
	// Degraded is set when the authoritative fetch failed and only the
	// local cache informed the outcome.
	Degraded bool
}
