package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"steammatch/internal/collaborators"
	"steammatch/internal/lifecycle"
	"steammatch/internal/matching"
	"steammatch/internal/steamtypes"
	"steammatch/internal/tradeoffer"
)

type fakeBotInfo struct{ steamID uint64 }

func (f fakeBotInfo) SteamID() uint64                              { return f.steamID }
func (f fakeBotInfo) Nickname() string                              { return "test-bot" }
func (f fakeBotInfo) AvatarHash() string                            { return "" }
func (f fakeBotInfo) ConfiguredMatchableTypes() steamtypes.TypeSet   { return nil }
func (f fakeBotInfo) MatchEverythingConfigured() bool                { return false }
func (f fakeBotInfo) HasMobileAuthenticator() bool                   { return true }
func (f fakeBotInfo) ConnectedAndLoggedIn() bool                     { return false }
func (f fakeBotInfo) MatchActivelyConfigured() bool                  { return true }

type fakeEligibility struct{ ok bool }

func (f fakeEligibility) Eligible(ctx context.Context) bool { return f.ok }

type fakeTokens struct{}

func (fakeTokens) TradeToken(ctx context.Context) (string, error) { return "", nil }

type fakeInventory struct{}

func (fakeInventory) FetchInventory(ctx context.Context, steamID uint64, tradableOnly bool, wantedTypes steamtypes.TypeSet, wantedSets, skippedSets map[steamtypes.SetKey]struct{}) ([]steamtypes.Asset, error) {
	return nil, nil
}

type fakePersona struct{}

func (fakePersona) RequestPersonaState(ctx context.Context) error { return nil }

type fakeSubmitter struct{}

func (fakeSubmitter) Submit(ctx context.Context, recipient uint64, give, take map[uint64]uint32, tradeToken string, bypassEscrowChecks bool) (collaborators.TradeOfferResult, error) {
	return collaborators.TradeOfferResult{}, nil
}

type fakeConfirm struct{}

func (fakeConfirm) Confirm(ctx context.Context, accept bool, kind string, actor uint64, ids []string, waitIfNeeded bool) error {
	return nil
}

type noBlacklist struct{}

func (noBlacklist) IsBlacklisted(ctx context.Context, steamID uint64) (bool, error) { return false, nil }

func newTestBot(steamID uint64) *Bot {
	info := fakeBotInfo{steamID: steamID}
	controller := lifecycle.NewController(info, "test-guid", fakeEligibility{true}, fakeTokens{}, fakeInventory{}, fakePersona{}, nil, nil)
	engine := matching.NewEngine(info, fakeEligibility{false}, nil, fakeInventory{}, tradeoffer.NewExecutor(fakeSubmitter{}, fakeConfirm{}, nil), noBlacklist{}, &sync.Mutex{},
		matching.Config{MaxTradesPerAccount: 3, MaxItemsPerTrade: 10}, nil)
	return &Bot{SteamID: steamID, Controller: controller, Engine: engine}
}

func TestSetupRoutes_HealthEndpoint(t *testing.T) {
	router := SetupRoutes(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSetupRoutes_StatusEmpty(t *testing.T) {
	router := SetupRoutes(&Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body []botStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 0 {
		t.Errorf("expected empty status list, got %d entries", len(body))
	}
}

func TestSetupRoutes_StatusReportsBots(t *testing.T) {
	bot := newTestBot(76561198000000001)
	router := SetupRoutes(&Dependencies{Bots: []*Bot{bot}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body []botStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("expected 1 status entry, got %d", len(body))
	}
	if body[0].SteamID != 76561198000000001 {
		t.Errorf("unexpected steam_id: %d", body[0].SteamID)
	}
	if body[0].State != string(lifecycle.StateUnannounced) {
		t.Errorf("expected initial state %q, got %q", lifecycle.StateUnannounced, body[0].State)
	}
	if body[0].ShouldSendHeartbeats {
		t.Error("expected should_send_heartbeats = false before any successful announcement")
	}
	if body[0].LastRound != nil {
		t.Error("expected no round summary before any round has run")
	}
}

func TestSetupRoutes_TriggerUnknownBot(t *testing.T) {
	router := SetupRoutes(&Dependencies{})

	payload, _ := json.Marshal(map[string]uint64{"steam_id": 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/match/trigger", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown bot, got %d", rec.Code)
	}
}

func TestSetupRoutes_TriggerKnownBot(t *testing.T) {
	bot := newTestBot(76561198000000002)
	router := SetupRoutes(&Dependencies{Bots: []*Bot{bot}})

	payload, _ := json.Marshal(map[string]uint64{"steam_id": 76561198000000002})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/match/trigger", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", rec.Code)
	}
}

func TestSetupRoutes_TriggerInvalidBody(t *testing.T) {
	router := SetupRoutes(&Dependencies{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/match/trigger", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSetupRoutes_MetricsEndpoint(t *testing.T) {
	router := SetupRoutes(nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
