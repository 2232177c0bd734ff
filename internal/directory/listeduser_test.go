package directory

import (
	"testing"

	"steammatch/internal/steamtypes"
)

func TestDecodeEntry_ValidEntry(t *testing.T) {
	raw := []byte(`{
		"steam_id": 76561198000000001,
		"trade_token": "ABC1",
		"games_count": 50,
		"items_count": 250,
		"match_everything": 1,
		"matchable_backgrounds": 1,
		"matchable_cards": 1,
		"matchable_emoticons": 0,
		"matchable_foil_cards": 1
	}`)

	u, ok := DecodeEntry(raw, nil)
	if !ok {
		t.Fatal("expected valid entry to decode")
	}
	if u.SteamID != 76561198000000001 {
		t.Fatalf("SteamID = %d", u.SteamID)
	}
	if u.TradeToken != "ABC1" {
		t.Fatalf("TradeToken = %q", u.TradeToken)
	}
	if !u.MatchEverything {
		t.Fatal("MatchEverything should be true")
	}
	if !u.MatchableTypes.Contains(steamtypes.AssetTypeTradingCard) {
		t.Fatal("expected TradingCard matchable")
	}
	if u.MatchableTypes.Contains(steamtypes.AssetTypeEmoticon) {
		t.Fatal("Emoticon should not be matchable (flag was 0)")
	}
	wantScore := 50.0 / 250.0
	if u.Score() != wantScore {
		t.Fatalf("Score = %v, want %v", u.Score(), wantScore)
	}
}

func TestDecodeEntry_MissingField_Rejected(t *testing.T) {
	raw := []byte(`{
		"steam_id": 1,
		"trade_token": "X",
		"games_count": 1,
		"items_count": 1,
		"match_everything": 1,
		"matchable_backgrounds": 1,
		"matchable_cards": 1,
		"matchable_emoticons": 1
	}`)
	if _, ok := DecodeEntry(raw, nil); ok {
		t.Fatal("missing matchable_foil_cards should reject the entry")
	}
}

func TestDecodeEntry_ZeroItemsCount_Rejected(t *testing.T) {
	raw := []byte(`{
		"steam_id": 1,
		"trade_token": "X",
		"games_count": 1,
		"items_count": 0,
		"match_everything": 0,
		"matchable_backgrounds": 0,
		"matchable_cards": 0,
		"matchable_emoticons": 0,
		"matchable_foil_cards": 0
	}`)
	if _, ok := DecodeEntry(raw, nil); ok {
		t.Fatal("zero items_count should reject the entry")
	}
}

func TestDecodeEntry_InvalidMatchableFlag_DropsTypeOnly(t *testing.T) {
	raw := []byte(`{
		"steam_id": 1,
		"trade_token": "X",
		"games_count": 1,
		"items_count": 10,
		"match_everything": 0,
		"matchable_backgrounds": 0,
		"matchable_cards": 7,
		"matchable_emoticons": 0,
		"matchable_foil_cards": 0
	}`)
	u, ok := DecodeEntry(raw, nil)
	if !ok {
		t.Fatal("invalid matchable flag value must not reject the whole record")
	}
	if u.MatchableTypes.Contains(steamtypes.AssetTypeTradingCard) {
		t.Fatal("invalid flag value should drop the type, not include it")
	}
}

func TestDecodeEntry_RoundTripPreservesMatchableTypesAndScore(t *testing.T) {
	raw := []byte(`{
		"steam_id": 42,
		"trade_token": "TOK",
		"games_count": 3,
		"items_count": 12,
		"match_everything": 1,
		"matchable_backgrounds": 1,
		"matchable_cards": 0,
		"matchable_emoticons": 1,
		"matchable_foil_cards": 0
	}`)
	u, ok := DecodeEntry(raw, nil)
	if !ok {
		t.Fatal("expected entry to decode")
	}

	typesJSON, err := marshalMatchableTypes(u.MatchableTypes.Slice())
	if err != nil {
		t.Fatalf("marshalMatchableTypes: %v", err)
	}
	if typesJSON != "[3,4]" {
		t.Fatalf("matchable types JSON = %s, want [3,4] (Emoticon, ProfileBackground)", typesJSON)
	}
	if u.Score() != 0.25 {
		t.Fatalf("Score = %v, want 0.25", u.Score())
	}
	if !u.MatchEverything {
		t.Fatal("MatchEverything should round-trip as true")
	}
}
