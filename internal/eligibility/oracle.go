// Package eligibility implements the eligibility oracle (C2, §4.2): a
// pure, short-circuiting predicate over configuration, authenticator
// presence, and two remote checks. It caches nothing across invocations —
// every call re-evaluates from scratch, per spec.
package eligibility

import (
	"context"

	"steammatch/internal/collaborators"
	"steammatch/internal/steamtypes"
)

// Bot is the minimal view of bot state the oracle needs. The surrounding
// agent's richer bot type is expected to satisfy this interface.
type Bot interface {
	HasMobileAuthenticator() bool
	HasSteamTradeMatcherPreference() bool
	ConfiguredMatchableTypes() steamtypes.TypeSet
}

// Oracle evaluates bot eligibility against the accepted matchable-type
// set and the two remote collaborators.
type Oracle struct {
	checks collaborators.AccountChecks
}

// NewOracle builds an Oracle backed by the given remote-check collaborator.
func NewOracle(checks collaborators.AccountChecks) *Oracle {
	return &Oracle{checks: checks}
}

// Eligible runs the five-step predicate in order with short-circuit
// semantics (§4.2). Steps 4-5 may fail transiently; they are reported as
// false rather than surfaced as an error — the caller simply re-evaluates
// on the next tick.
func (o *Oracle) Eligible(ctx context.Context, bot Bot) bool {
	if !bot.HasMobileAuthenticator() {
		return false
	}
	if !bot.HasSteamTradeMatcherPreference() {
		return false
	}
	accepted := steamtypes.NewTypeSet(steamtypes.MatchableTypes...)
	if len(bot.ConfiguredMatchableTypes().Intersect(accepted)) == 0 {
		return false
	}
	if !o.checks.InventoryIsPublic(ctx) {
		return false
	}
	if !o.checks.HasValidAPIKey(ctx) {
		return false
	}
	return true
}

// BotChecker adapts an Oracle bound to one bot to the single-argument
// EligibilityChecker contract that lifecycle.Controller and
// matching.Engine both expect (§2: C3 and C5 consult C2).
type BotChecker struct {
	oracle *Oracle
	bot    Bot
}

// ForBot binds o to a single bot, returning the per-account adapter
// registerBot wires into the controller and engine construction.
func (o *Oracle) ForBot(bot Bot) *BotChecker {
	return &BotChecker{oracle: o, bot: bot}
}

// Eligible satisfies EligibilityChecker by closing over the bound bot.
func (c *BotChecker) Eligible(ctx context.Context) bool {
	return c.oracle.Eligible(ctx, c.bot)
}
