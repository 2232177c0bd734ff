package lifecycle

import "time"

// TTL constants from §4.3. Hours unless noted.
const (
	MinAnnouncementCheckTTL = 6 * time.Hour
	MinHeartbeatTTL         = 10 * time.Minute
	MinPersonaStateTTL      = 8 * time.Hour

	// MinItemsCount is the tunable minimum matchable-item count an
	// inventory must clear before the bot is announced (§4.3 step 5).
	MinItemsCount = 100
)

// Clocks holds the per-bot lifecycle timestamps (§3). All fields are UTC
// instants, initialized to the zero epoch. They are mutated only while
// holding the controller's requests lock.
type Clocks struct {
	LastAnnouncementCheck time.Time
	LastHeartbeat         time.Time
	LastPersonaStateReq   time.Time
}

// announcementCheckDue reports whether enough time has passed since the
// last announcement check to run the gate again.
func (c Clocks) announcementCheckDue(now time.Time) bool {
	return !now.Before(c.LastAnnouncementCheck.Add(MinAnnouncementCheckTTL))
}

// heartbeatDue reports whether enough time has passed since the last
// heartbeat.
func (c Clocks) heartbeatDue(now time.Time) bool {
	return !now.Before(c.LastHeartbeat.Add(MinHeartbeatTTL))
}

// personaStateDue reports whether enough time has passed since the last
// persona-state request.
func (c Clocks) personaStateDue(now time.Time) bool {
	return !now.Before(c.LastPersonaStateReq.Add(MinPersonaStateTTL))
}
