// Package directory decodes the matching directory's wire format (C1,
// §4.1) and implements the HTTP client that announces, heartbeats, and
// fetches the directory (§6).
package directory

import (
	"steammatch/internal/steamtypes"

	"go.uber.org/zap"
)

// wireEntry is the on-the-wire shape of one /Api/Bots directory entry.
// Every field is required; the four matchable_* fields tolerate any
// literal other than 0/1 by dropping just that type (§4.1).
type wireEntry struct {
	SteamID              *uint64 `json:"steam_id"`
	TradeToken           *string `json:"trade_token"`
	GamesCount           *int    `json:"games_count"`
	ItemsCount           *int    `json:"items_count"`
	MatchEverything      *int    `json:"match_everything"`
	MatchableBackgrounds *int    `json:"matchable_backgrounds"`
	MatchableCards       *int    `json:"matchable_cards"`
	MatchableEmoticons   *int    `json:"matchable_emoticons"`
	MatchableFoilCards   *int    `json:"matchable_foil_cards"`
}

// ListedUser is the parsed, validated view of one directory entry (C1).
type ListedUser struct {
	SteamID         uint64
	TradeToken      string
	GamesCount      int
	ItemsCount      int
	MatchEverything bool
	MatchableTypes  steamtypes.TypeSet
	score           float64
}

// Score returns games_count / items_count, cached at decode time.
// Higher means the user holds few items spread across many games —
// a preferred dump target (§3, GLOSSARY).
func (u ListedUser) Score() float64 {
	return u.score
}

// DecodeEntry converts one wire entry into a ListedUser. It returns
// ok=false (and logs at Warn via the given logger) when a required field
// is missing or items_count is zero, per §4.1: "treat zero as invalid and
// drop the record". A logger of nil is tolerated (used in tests).
func DecodeEntry(raw []byte, logger *zap.SugaredLogger) (ListedUser, bool) {
	entry, err := unmarshalWireEntry(raw)
	if err != nil {
		logEntryWarn(logger, "malformed directory entry", err)
		return ListedUser{}, false
	}
	return decodeWireEntry(entry, logger)
}

func decodeWireEntry(e wireEntry, logger *zap.SugaredLogger) (ListedUser, bool) {
	if e.SteamID == nil || e.TradeToken == nil || e.GamesCount == nil ||
		e.ItemsCount == nil || e.MatchEverything == nil ||
		e.MatchableBackgrounds == nil || e.MatchableCards == nil ||
		e.MatchableEmoticons == nil || e.MatchableFoilCards == nil {
		logEntryWarn(logger, "directory entry missing required field", nil)
		return ListedUser{}, false
	}

	if *e.ItemsCount <= 0 {
		logEntryWarn(logger, "directory entry has non-positive items_count", nil)
		return ListedUser{}, false
	}

	types := make(steamtypes.TypeSet)
	addMatchableBit(types, *e.MatchableCards, steamtypes.AssetTypeTradingCard, logger)
	addMatchableBit(types, *e.MatchableFoilCards, steamtypes.AssetTypeFoilTradingCard, logger)
	addMatchableBit(types, *e.MatchableEmoticons, steamtypes.AssetTypeEmoticon, logger)
	addMatchableBit(types, *e.MatchableBackgrounds, steamtypes.AssetTypeProfileBackground, logger)

	return ListedUser{
		SteamID:         *e.SteamID,
		TradeToken:      *e.TradeToken,
		GamesCount:      *e.GamesCount,
		ItemsCount:      *e.ItemsCount,
		MatchEverything: *e.MatchEverything == 1,
		MatchableTypes:  types,
		score:           float64(*e.GamesCount) / float64(*e.ItemsCount),
	}, true
}

// addMatchableBit sets t in types when bit == 1. Any other value drops
// just this type and logs a warning, without rejecting the whole entry
// (§4.1).
func addMatchableBit(types steamtypes.TypeSet, bit int, t steamtypes.AssetType, logger *zap.SugaredLogger) {
	switch bit {
	case 1:
		types[t] = struct{}{}
	case 0:
		// not advertised, nothing to do
	default:
		logEntryWarn(logger, "directory entry has invalid matchable flag, dropping type "+t.String(), nil)
	}
}

func logEntryWarn(logger *zap.SugaredLogger, msg string, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warnw(msg, "error", err)
	} else {
		logger.Warn(msg)
	}
}
