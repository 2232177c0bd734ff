package matching

import (
	"context"
	"sync"
	"time"

	"steammatch/internal/collaborators"
	"steammatch/internal/directory"
	"steammatch/internal/steamtypes"
	"steammatch/internal/tradeoffer"

	"go.uber.org/zap"
)

// Engine-level constants (§4.5).
const (
	MaxMatchingRounds  = 10
	MaxMatchedBotsHard = 40
	MaxMatchedBotsSoft = 20
	InterRoundSleep    = 5 * time.Minute
)

// Bot is the minimal view of bot identity, connection state, and trading
// preferences the engine needs to evaluate its guards.
type Bot interface {
	SteamID() uint64
	HasMobileAuthenticator() bool
	ConnectedAndLoggedIn() bool
	MatchActivelyConfigured() bool
	MatchEverythingConfigured() bool
	ConfiguredMatchableTypes() steamtypes.TypeSet
}

// EligibilityChecker abstracts C2 for the engine, same contract as the
// lifecycle controller's equivalent (§4.2).
type EligibilityChecker interface {
	Eligible(ctx context.Context) bool
}

// Engine implements C5: the guarded match_actively entry point and the
// bounded multi-round greedy matching loop.
type Engine struct {
	bot        Bot
	eligibility EligibilityChecker
	dir        *directory.Client
	inventory  collaborators.InventoryFetcher
	offers     *tradeoffer.Executor
	blacklist  collaborators.TradeBlacklist
	logger     *zap.SugaredLogger

	// tradingLock is the agent-wide lock shared with manual trade
	// handling (§5); held for the duration of each round.
	tradingLock sync.Locker

	// activeLock is match_actively_lock: try-acquire, zero-wait, at most
	// one active-matching pass per bot at a time (§4.5 guard 6, §5).
	activeLock sync.Mutex

	maxTradesPerAccount int
	maxItemsPerTrade    int

	summaryMu sync.Mutex
	summary   RoundSummary
}

// RoundSummary is the in-memory, last-round-only snapshot the status API
// reports (§12 "Status/control HTTP surface"). Nothing here is
// persisted across restarts (§13 Non-goals).
type RoundSummary struct {
	Round        int
	MadeProgress bool
	At           time.Time
}

// LastRoundSummary returns the most recent round's outcome. The zero
// value means no round has run yet this process.
func (e *Engine) LastRoundSummary() RoundSummary {
	e.summaryMu.Lock()
	defer e.summaryMu.Unlock()
	return e.summary
}

func (e *Engine) recordRound(round int, madeProgress bool) {
	e.summaryMu.Lock()
	e.summary = RoundSummary{Round: round, MadeProgress: madeProgress, At: time.Now()}
	e.summaryMu.Unlock()
}

// Config groups the engine's external tunables, consumed from the
// process-wide configuration (§6 "external constants consumed").
type Config struct {
	MaxTradesPerAccount int
	MaxItemsPerTrade    int
}

// NewEngine wires the active-matching engine's collaborators.
func NewEngine(
	bot Bot,
	eligibility EligibilityChecker,
	dir *directory.Client,
	inventory collaborators.InventoryFetcher,
	offers *tradeoffer.Executor,
	blacklist collaborators.TradeBlacklist,
	tradingLock sync.Locker,
	cfg Config,
	logger *zap.SugaredLogger,
) *Engine {
	return &Engine{
		bot:                 bot,
		eligibility:         eligibility,
		dir:                 dir,
		inventory:           inventory,
		offers:              offers,
		blacklist:           blacklist,
		tradingLock:         tradingLock,
		maxTradesPerAccount: cfg.MaxTradesPerAccount,
		maxItemsPerTrade:    cfg.MaxItemsPerTrade,
		logger:              logger,
	}
}

// MatchActively runs the guarded active-matching procedure (§4.5). It
// returns silently (no error) whenever a guard fails or another pass is
// already in progress — matching is a best-effort background activity,
// not a user-facing request.
func (e *Engine) MatchActively(ctx context.Context) {
	accepted, ok := e.checkEntryGuards(ctx)
	if !ok {
		return
	}

	if !e.activeLock.TryLock() {
		if e.logger != nil {
			e.logger.Debug("match_actively already in progress, skipping")
		}
		return
	}
	defer e.activeLock.Unlock()

	for round := 0; round < MaxMatchingRounds; round++ {
		if round > 0 {
			if !e.sleepInterRound(ctx) {
				return
			}
		}

		if !e.checkPerRoundGuards(ctx, accepted) {
			return
		}

		madeProgress := e.runRoundLocked(ctx, accepted)
		e.recordRound(round, madeProgress)
		if !madeProgress {
			return
		}
	}
}

// checkEntryGuards evaluates guards 1-5 once, up front (§4.5). It
// returns the intersected accepted-type set and whether every guard
// passed.
func (e *Engine) checkEntryGuards(ctx context.Context) (steamtypes.TypeSet, bool) {
	if !e.bot.ConnectedAndLoggedIn() {
		return nil, false
	}
	if !e.bot.MatchActivelyConfigured() {
		return nil, false
	}
	if e.bot.MatchEverythingConfigured() {
		return nil, false
	}
	if !e.eligibility.Eligible(ctx) {
		return nil, false
	}
	accepted := steamtypes.NewTypeSet(steamtypes.MatchableTypes...)
	matchable := e.bot.ConfiguredMatchableTypes().Intersect(accepted)
	if len(matchable) == 0 {
		return nil, false
	}
	return matchable, true
}

// checkPerRoundGuards re-evaluates guards 1-4 before each round (§4.5:
// "Before each round re-check guards 1-4; break if any fails").
func (e *Engine) checkPerRoundGuards(ctx context.Context, _ steamtypes.TypeSet) bool {
	if !e.bot.ConnectedAndLoggedIn() {
		return false
	}
	if !e.bot.MatchActivelyConfigured() {
		return false
	}
	if e.bot.MatchEverythingConfigured() {
		return false
	}
	if !e.eligibility.Eligible(ctx) {
		return false
	}
	return true
}

// sleepInterRound waits InterRoundSleep, honoring cancellation. It
// returns false when the context was cancelled first.
func (e *Engine) sleepInterRound(ctx context.Context) bool {
	timer := time.NewTimer(InterRoundSleep)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// runRoundLocked acquires the external trading lock for the duration of
// one round, serializing against manual trade handling (§4.5, §5).
func (e *Engine) runRoundLocked(ctx context.Context, accepted steamtypes.TypeSet) bool {
	if e.tradingLock != nil {
		e.tradingLock.Lock()
		defer e.tradingLock.Unlock()
	}
	return e.runRound(ctx, accepted)
}
