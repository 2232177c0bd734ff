// Package collaborators declares the external collaborator interfaces
// the matching module consumes (§6): inventory retrieval, trade-offer
// submission, mobile-confirmation dispatch, persona-state refresh, and
// the assorted eligibility checks. The surrounding Steam-login/web-session
// agent (out of scope for this module per §1) provides concrete
// implementations; this module only depends on these interfaces.
package collaborators

import (
	"context"
	"errors"

	"steammatch/internal/steamtypes"
)

// ErrAbsent distinguishes "the fetch failed" from "the fetch succeeded
// and returned nothing" (§6: "'Absent' must be distinguishable from
// 'empty'"). InventoryFetcher implementations return this error (wrapped
// or directly, checked with errors.Is) when a fetch could not be
// performed at all.
var ErrAbsent = errors.New("collaborators: result absent")

// InventoryFetcher retrieves a steam_id's inventory restricted to
// tradable items, optionally filtered to wantedTypes and wantedSets,
// excluding skippedSets (§6).
type InventoryFetcher interface {
	FetchInventory(ctx context.Context, steamID uint64, tradableOnly bool, wantedTypes steamtypes.TypeSet, wantedSets, skippedSets map[steamtypes.SetKey]struct{}) ([]steamtypes.Asset, error)
}

// TradeOfferResult is returned by TradeOfferSubmitter.Submit.
type TradeOfferResult struct {
	OK              bool
	ConfirmationIDs []string
}

// TradeOfferSubmitter dispatches a trade offer giving `give` class-ids
// (ours) for `take` class-ids (theirs) to recipient, using their trade
// token. bypassEscrowChecks mirrors the source collaborator's signature;
// this module always passes true since matches are pre-validated 1-for-1
// swaps with a known, listed counterparty.
type TradeOfferSubmitter interface {
	Submit(ctx context.Context, recipient uint64, give, take map[uint64]uint32, tradeToken string, bypassEscrowChecks bool) (TradeOfferResult, error)
}

// ConfirmationDispatcher accepts (or rejects) pending mobile-authenticator
// confirmations for the given confirmation ids.
type ConfirmationDispatcher interface {
	Confirm(ctx context.Context, accept bool, kind string, actor uint64, ids []string, waitIfNeeded bool) error
}

// PersonaStateRequester asks the platform to refresh this bot's persona
// state, eventually driving an on_persona_state callback (§4.3).
type PersonaStateRequester interface {
	RequestPersonaState(ctx context.Context) error
}

// TradeBlacklist reports whether a steam_id is on the local trade
// blacklist (§4.5 step 5). Persisted by internal/repository.
type TradeBlacklist interface {
	IsBlacklisted(ctx context.Context, steamID uint64) (bool, error)
}

// AccountChecks groups the remaining C2 predicates that require a remote
// round-trip (§4.2 steps 4-5). Implementations must report failures as
// false, not errors — the caller re-evaluates next tick.
type AccountChecks interface {
	InventoryIsPublic(ctx context.Context) bool
	HasValidAPIKey(ctx context.Context) bool
}

// TradeTokenProvider returns this bot's own trade token, or "" if one
// could not be obtained (§4.3 step 2).
type TradeTokenProvider interface {
	TradeToken(ctx context.Context) (string, error)
}
