// Package lifecycle implements the announcement/heartbeat controller
// (C3, §4.3) and the periodic active-matching trigger (C4, §4.4).
//
// The source material encodes lifecycle state as a boolean
// (should_send_heartbeats) plus three timestamps; §9 "State machine for
// lifecycle" invites making that explicit, so this package models it as
// a small named-state machine: Unannounced -> Announced -> HeartbeatPaused,
// with transitions driven by TTL ticks and eligibility results.
package lifecycle

// State is one of the controller's three lifecycle states.
type State string

const (
	// StateUnannounced: no successful announcement yet (or the bot was
	// found ineligible / under-inventoried and heartbeats were cleared).
	StateUnannounced State = "unannounced"
	// StateAnnounced: the last announcement succeeded and heartbeats
	// should be sent.
	StateAnnounced State = "announced"
	// StateHeartbeatPaused: announced once, but a later re-check found
	// the bot ineligible, under-inventoried, or the inventory fetch
	// failed; heartbeats are suppressed until the next successful
	// announcement.
	StateHeartbeatPaused State = "heartbeat_paused"
)

// validTransitions mirrors the teacher's ValidTransitions map: a
// from-state to the set of to-states reachable from it in one step.
var validTransitions = map[State][]State{
	StateUnannounced:     {StateAnnounced},
	StateAnnounced:       {StateAnnounced, StateHeartbeatPaused},
	StateHeartbeatPaused: {StateAnnounced},
}

// CanTransition reports whether the controller may move from `from` to
// `to` in one step.
func CanTransition(from, to State) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ShouldSendHeartbeats derives the legacy boolean flag from state, for
// callers (or tests) that want to assert against §3's invariant directly:
// "should_send_heartbeats = true implies the most recent announcement
// succeeded".
func ShouldSendHeartbeats(s State) bool {
	return s == StateAnnounced
}
