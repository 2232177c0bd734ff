// Package matching implements the active-matching engine (C5, §4.5): the
// guarded match_actively entry point, the bounded multi-round loop, and
// the graph-free greedy pair-finder that proposes duplicate-for-duplicate
// swaps within one collectible set.
package matching

import "steammatch/internal/steamtypes"

// tradeProposal is one accepted (our_item, their_item) swap.
type tradeProposal struct {
	ourClassID   uint64
	theirClassID uint64
}

// findPairs runs the greedy pair-finder for a single set key (§4.5
// "Greedy pair-finder"). ours and theirs are mutated in place as pairs
// are accepted, mirroring the speculative local bookkeeping the caller
// needs to keep multiple sets and multiple trade attempts consistent.
// It stops when no further pair passes the acceptance test or when fewer
// than two item slots remain (the next pair would exceed the cap),
// whichever comes first; remaining is the number of item slots left
// before that cap.
func findPairs(ours, theirs map[uint64]uint32, remaining int) []tradeProposal {
	var proposals []tradeProposal

	for remaining >= 2 {
		ourItem, ok := bestOurCandidate(ours)
		if !ok {
			break
		}
		theirItem, ok := bestTheirCandidate(ours, theirs, ourItem)
		if !ok {
			break
		}

		proposals = append(proposals, tradeProposal{ourClassID: ourItem, theirClassID: theirItem})

		ours[ourItem]--
		if ours[ourItem] == 0 {
			delete(ours, ourItem)
		}
		ours[theirItem]++

		theirs[theirItem]--
		if theirs[theirItem] == 0 {
			delete(theirs, theirItem)
		}

		remaining -= 2
	}

	return proposals
}

// bestOurCandidate picks the class-id we hold the most duplicates of
// (count > 1), breaking ties by ascending class-id for determinism
// (§4.5 "Rationale": "a fixed order by class-id is acceptable as
// secondary key").
func bestOurCandidate(ours map[uint64]uint32) (uint64, bool) {
	var best uint64
	var bestCount uint32
	found := false
	for classID, count := range ours {
		if count <= 1 {
			continue
		}
		if !found || count > bestCount || (count == bestCount && classID < best) {
			best, bestCount, found = classID, count, true
		}
	}
	return best, found
}

// bestTheirCandidate picks the counterparty class-id that passes the
// acceptance test and, among those, the one we currently hold the
// fewest of (ascending by our holdings), tie-broken by ascending
// class-id. ourItem is the class-id we are proposing to give away.
func bestTheirCandidate(ours, theirs map[uint64]uint32, ourItem uint64) (uint64, bool) {
	ourCount := ours[ourItem]

	var best uint64
	var bestOurHolding uint32
	found := false
	for classID := range theirs {
		ourAmount := ours[classID]
		if ourCount <= ourAmount+1 {
			continue // acceptance test fails (§4.5 step 3)
		}
		if !found || ourAmount < bestOurHolding || (ourAmount == bestOurHolding && classID < best) {
			best, bestOurHolding, found = classID, ourAmount, true
		}
	}
	return best, found
}
