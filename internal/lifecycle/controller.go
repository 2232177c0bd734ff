package lifecycle

import (
	"context"
	"sync"
	"time"

	"steammatch/internal/collaborators"
	"steammatch/internal/directory"
	"steammatch/internal/steamtypes"

	"go.uber.org/zap"
)

// BotInfo is the minimal bot identity/config view the controller needs.
type BotInfo interface {
	SteamID() uint64
	Nickname() string
	AvatarHash() string
	ConfiguredMatchableTypes() steamtypes.TypeSet
	MatchEverythingConfigured() bool
}

// EligibilityChecker abstracts C2 for the controller: a pure, no-cache
// predicate (§4.2).
type EligibilityChecker interface {
	Eligible(ctx context.Context) bool
}

// Clock abstracts time.Now so tests can control it.
type Clock func() time.Time

// Controller implements C3: the announcement/heartbeat lifecycle state
// machine, gated by the three TTL clocks (§4.3) and single-flight over
// requestsLock (§4.3 "Single-flight discipline", §5).
type Controller struct {
	bot         BotInfo
	guid        string
	eligibility EligibilityChecker
	tradeTokens collaborators.TradeTokenProvider
	inventory   collaborators.InventoryFetcher
	persona     collaborators.PersonaStateRequester
	dir         *directory.Client
	logger      *zap.SugaredLogger
	now         Clock

	requestsLock sync.Mutex // serializes announcement/heartbeat request paths

	clocks               Clocks
	state                State
	shouldSendHeartbeats bool
}

// NewController wires the controller's collaborators. guid is the
// process-wide persistent installation Guid (§6).
func NewController(
	bot BotInfo,
	guid string,
	eligibility EligibilityChecker,
	tradeTokens collaborators.TradeTokenProvider,
	inventory collaborators.InventoryFetcher,
	persona collaborators.PersonaStateRequester,
	dir *directory.Client,
	logger *zap.SugaredLogger,
) *Controller {
	return &Controller{
		bot:         bot,
		guid:        guid,
		eligibility: eligibility,
		tradeTokens: tradeTokens,
		inventory:   inventory,
		persona:     persona,
		dir:         dir,
		logger:      logger,
		now:         time.Now,
		state:       StateUnannounced,
	}
}

// State returns the controller's current lifecycle state, for the status
// API and tests.
func (c *Controller) State() State {
	c.requestsLock.Lock()
	defer c.requestsLock.Unlock()
	return c.state
}

// transitionTo moves the controller to `to` if the transition table
// allows it from the current state; must be called with requestsLock
// held. A disallowed move (e.g. Unannounced -> HeartbeatPaused, which
// the table excludes since a bot that never announced can't be
// "paused") is silently skipped, leaving the state unchanged.
func (c *Controller) transitionTo(to State) {
	if CanTransition(c.state, to) {
		c.state = to
	}
}

// Clocks returns a copy of the current TTL clocks, for the status API.
func (c *Controller) Clocks() Clocks {
	c.requestsLock.Lock()
	defer c.requestsLock.Unlock()
	return c.clocks
}

// OnHeartbeatTick is the external heartbeat entry point (§4.3). It races
// a persona refresh (which eventually drives OnPersonaState) against the
// direct heartbeat POST.
func (c *Controller) OnHeartbeatTick(ctx context.Context) {
	now := c.now()

	c.maybeRequestPersonaRefresh(ctx, now)
	c.maybeSendHeartbeat(ctx, now)
}

// maybeRequestPersonaRefresh implements §4.3's "Persona refresh" clause:
// triggered only when both the persona-state TTL and the announcement
// check TTL have elapsed, so it does not fire on every heartbeat tick.
func (c *Controller) maybeRequestPersonaRefresh(ctx context.Context, now time.Time) {
	c.requestsLock.Lock()
	due := c.clocks.personaStateDue(now) && c.clocks.announcementCheckDue(now)
	if due {
		// Re-check under lock before committing — double-checked pattern
		// shared with the heartbeat/announcement paths (§4.3).
		if !(c.clocks.personaStateDue(now) && c.clocks.announcementCheckDue(now)) {
			due = false
		}
	}
	if due {
		c.clocks.LastPersonaStateReq = now
	}
	c.requestsLock.Unlock()

	if !due {
		return
	}
	if err := c.persona.RequestPersonaState(ctx); err != nil && c.logger != nil {
		c.logger.Debugw("persona state refresh request failed", "error", err)
	}
}

// maybeSendHeartbeat implements §4.3's "Heartbeat path".
func (c *Controller) maybeSendHeartbeat(ctx context.Context, now time.Time) {
	// Held across the POST so two ticks cannot both send; the TTL check
	// runs after acquiring the lock, so a tick that waited behind a
	// successful heartbeat sees the advanced clock and returns.
	c.requestsLock.Lock()
	defer c.requestsLock.Unlock()

	if !c.shouldSendHeartbeats || !c.clocks.heartbeatDue(now) {
		return
	}

	err := c.dir.Heartbeat(ctx, directory.HeartbeatRequest{
		SteamID: c.bot.SteamID(),
		Guid:    c.guid,
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Debugw("heartbeat POST failed, leaving last_heartbeat unchanged", "error", err)
		}
		return // best-effort: leave should_send_heartbeats and clocks untouched
	}
	c.clocks.LastHeartbeat = now
}

// OnPersonaState is invoked when the platform reports a profile change
// for this bot; it drives the announcement path (§4.3).
func (c *Controller) OnPersonaState(ctx context.Context) {
	now := c.now()

	c.requestsLock.Lock()
	due := c.clocks.announcementCheckDue(now)
	c.requestsLock.Unlock()
	if !due {
		return
	}

	c.runAnnouncement(ctx, now)
}

// runAnnouncement implements §4.3's numbered announcement path.
func (c *Controller) runAnnouncement(ctx context.Context, now time.Time) {
	// Step 1: eligibility.
	if !c.eligibility.Eligible(ctx) {
		c.rejectAnnouncement(now)
		return
	}

	// Step 2: trade token.
	tradeToken, err := c.tradeTokens.TradeToken(ctx)
	if err != nil || tradeToken == "" {
		c.rejectAnnouncement(now)
		return
	}

	// Step 3: matchable-type intersection.
	accepted := steamtypes.NewTypeSet(steamtypes.MatchableTypes...)
	matchable := c.bot.ConfiguredMatchableTypes().Intersect(accepted)
	if len(matchable) == 0 {
		if c.logger != nil {
			c.logger.Warn("configured matchable types do not intersect the accepted set")
		}
		c.rejectAnnouncement(now)
		return
	}

	// Step 4: own inventory fetch, matchable + tradable only.
	assets, err := c.inventory.FetchInventory(ctx, c.bot.SteamID(), true, matchable, nil, nil)
	if err != nil {
		// Absent, not just empty: preserve the TTL clock so we retry on
		// the next eligible tick (§4.3 step 4, §7).
		c.requestsLock.Lock()
		c.shouldSendHeartbeats = false
		c.transitionTo(StateHeartbeatPaused)
		c.requestsLock.Unlock()
		return
	}

	state := steamtypes.BuildInventoryState(assets)
	itemsCount := state.ItemCount()

	// Step 5: minimum items gate.
	if itemsCount < MinItemsCount {
		c.rejectAnnouncement(now)
		return
	}

	// Step 6: POST announcement, attempted at most once.
	err = c.dir.Announce(ctx, directory.AnnounceRequest{
		SteamID:         c.bot.SteamID(),
		Guid:            c.guid,
		Nickname:        c.bot.Nickname(),
		AvatarHash:      c.bot.AvatarHash(),
		GamesCount:      state.DistinctRealAppIDs(),
		ItemsCount:      itemsCount,
		MatchableTypes:  matchable,
		MatchEverything: c.bot.MatchEverythingConfigured(),
		TradeToken:      tradeToken,
	})

	c.requestsLock.Lock()
	defer c.requestsLock.Unlock()
	if err != nil {
		if c.logger != nil {
			c.logger.Debugw("announce POST failed", "error", err)
		}
		// Only a non-null response advances last_announcement_check
		// (§4.3 step 7); a failed POST leaves the clock untouched so
		// the next eligible tick retries the announcement.
		c.shouldSendHeartbeats = false
		c.transitionTo(StateHeartbeatPaused)
		return
	}

	// Step 7: success.
	c.clocks.LastAnnouncementCheck = now
	c.shouldSendHeartbeats = true
	c.transitionTo(StateAnnounced)
}

// rejectAnnouncement implements the shared "set last_announcement_check =
// now, should_send_heartbeats = false, return" tail used by steps 1-3 and
// 5 of §4.3's announcement path.
func (c *Controller) rejectAnnouncement(now time.Time) {
	c.requestsLock.Lock()
	defer c.requestsLock.Unlock()
	c.clocks.LastAnnouncementCheck = now
	c.shouldSendHeartbeats = false
	c.transitionTo(StateHeartbeatPaused)
}
