package matching

import (
	"context"
	"sort"

	"steammatch/internal/directory"
	"steammatch/internal/steamtypes"
	"steammatch/internal/tradeoffer"
)

// runRound implements the §4.5 "Round algorithm". It returns
// made_progress: whether any set key was exhausted and dropped from
// consideration this round.
func (e *Engine) runRound(ctx context.Context, accepted steamtypes.TypeSet) bool {
	ourAssets, err := e.inventory.FetchInventory(ctx, e.bot.SteamID(), true, accepted, nil, nil)
	if err != nil || len(ourAssets) == 0 {
		return false
	}

	ourState := steamtypes.BuildInventoryState(ourAssets)
	if !ourState.HasSurplus() {
		return false
	}

	listed, err := e.dir.FetchBots(ctx)
	if err != nil || len(listed) == 0 {
		return false
	}

	candidates := e.selectCandidates(ctx, listed, accepted)
	if len(candidates) == 0 {
		return false
	}

	skippedSetsRound := make(map[steamtypes.SetKey]struct{})
	emptyMatches := 0

	for _, u := range candidates {
		wantedSets := setKeysMinus(ourState, skippedSetsRound)
		theirAssets, err := e.inventory.FetchInventory(ctx, u.SteamID, true, nil, wantedSets, skippedSetsRound)
		if err != nil || len(theirAssets) == 0 {
			continue
		}
		theirState := steamtypes.BuildInventoryState(theirAssets)
		skippedSetsUser := make(map[steamtypes.SetKey]struct{})

		for attempt := 0; attempt < e.maxTradesPerAccount; attempt++ {
			give, take := e.proposeOffer(ourState, theirState, u, skippedSetsUser)

			if len(give) == 0 && len(take) == 0 {
				emptyMatches++
				if emptyMatches >= MaxMatchedBotsSoft {
					return len(skippedSetsRound) > 0
				}
				break // move to next candidate user
			}
			emptyMatches = 0

			switch e.offers.Execute(ctx, e.bot.SteamID(), u.SteamID, give, take, u.TradeToken, e.bot.HasMobileAuthenticator()) {
			case tradeoffer.ConfirmationFailed:
				return false // mobile-confirmation failure is fatal to the round (§7)
			case tradeoffer.SubmitFailed:
				// Speculative local state changes are retained; try
				// another offer with the remaining surplus (§4.5 step 7,
				// §9 open question).
				continue
			}
		}

		for key := range skippedSetsUser {
			skippedSetsRound[key] = struct{}{}
			delete(ourState, key)
		}
		if !ourState.HasSurplus() {
			break
		}
	}

	return len(skippedSetsRound) > 0
}

// selectCandidates filters and sorts the directory per §4.5 step 5:
// match_everything set, matchable types intersecting accepted, not
// blacklisted; sorted by score descending, capped at MaxMatchedBotsHard.
func (e *Engine) selectCandidates(ctx context.Context, listed []directory.ListedUser, accepted steamtypes.TypeSet) []directory.ListedUser {
	out := make([]directory.ListedUser, 0, len(listed))
	for _, u := range listed {
		if !u.MatchEverything {
			continue
		}
		if len(u.MatchableTypes.Intersect(accepted)) == 0 {
			continue
		}
		if e.blacklist != nil {
			blacklisted, err := e.blacklist.IsBlacklisted(ctx, u.SteamID)
			if err == nil && blacklisted {
				continue
			}
		}
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score() != out[j].Score() {
			return out[i].Score() > out[j].Score()
		}
		return out[i].SteamID < out[j].SteamID
	})

	if len(out) > MaxMatchedBotsHard {
		out = out[:MaxMatchedBotsHard]
	}
	return out
}

// proposeOffer builds one trade attempt's give/take maps by running the
// greedy pair-finder over every eligible shared set key (§4.5 step 7,
// second bullet). Sets are visited in a fixed deterministic order.
func (e *Engine) proposeOffer(ourState, theirState steamtypes.InventoryState, u directory.ListedUser, skippedSetsUser map[steamtypes.SetKey]struct{}) (give, take map[uint64]uint32) {
	give = make(map[uint64]uint32)
	take = make(map[uint64]uint32)
	itemsInTrade := 0
	tradeCap := e.maxItemsPerTrade - 1

	for _, key := range sharedSetKeys(ourState, theirState) {
		if itemsInTrade >= tradeCap {
			break
		}
		if !u.MatchableTypes.Contains(key.Type) {
			continue
		}
		ourSet := ourState[key]
		if !hasSurplus(ourSet) {
			continue
		}
		theirSet := theirState[key]

		remaining := tradeCap - itemsInTrade
		proposals := findPairs(ourSet, theirSet, remaining)
		if len(proposals) == 0 {
			continue
		}

		skippedSetsUser[key] = struct{}{}
		for _, p := range proposals {
			give[p.ourClassID]++
			take[p.theirClassID]++
		}
		itemsInTrade += 2 * len(proposals)
	}

	return give, take
}

func hasSurplus(classes map[uint64]uint32) bool {
	for _, count := range classes {
		if count > 1 {
			return true
		}
	}
	return false
}

// sharedSetKeys returns set keys present in both states, in a fixed
// deterministic order (ascending by real_app_id, then by type) so
// matching runs are reproducible for debugging (§4.5 "Rationale").
func sharedSetKeys(a, b steamtypes.InventoryState) []steamtypes.SetKey {
	out := make([]steamtypes.SetKey, 0, len(a))
	for key := range a {
		if _, ok := b[key]; ok {
			out = append(out, key)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RealAppID != out[j].RealAppID {
			return out[i].RealAppID < out[j].RealAppID
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// setKeysMinus returns the set keys of state that are not in exclude, as
// a set suitable for the InventoryFetcher's wantedSets parameter.
func setKeysMinus(state steamtypes.InventoryState, exclude map[steamtypes.SetKey]struct{}) map[steamtypes.SetKey]struct{} {
	out := make(map[steamtypes.SetKey]struct{}, len(state))
	for key := range state {
		if _, skip := exclude[key]; skip {
			continue
		}
		out[key] = struct{}{}
	}
	return out
}
