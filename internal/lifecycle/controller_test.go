package lifecycle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"steammatch/internal/directory"
	"steammatch/internal/steamtypes"
)

type fakeBotInfo struct {
	steamID    uint64
	matchable  steamtypes.TypeSet
	everything bool
}

func (b fakeBotInfo) SteamID() uint64                              { return b.steamID }
func (b fakeBotInfo) Nickname() string                              { return "tester" }
func (b fakeBotInfo) AvatarHash() string                             { return "hash" }
func (b fakeBotInfo) ConfiguredMatchableTypes() steamtypes.TypeSet   { return b.matchable }
func (b fakeBotInfo) MatchEverythingConfigured() bool                { return b.everything }

func defaultBotInfo() fakeBotInfo {
	return fakeBotInfo{
		steamID:   76561198000000001,
		matchable: steamtypes.NewTypeSet(steamtypes.AssetTypeTradingCard),
	}
}

type fakeEligibility struct{ eligible bool }

func (f fakeEligibility) Eligible(ctx context.Context) bool { return f.eligible }

type fakeTradeTokens struct {
	token string
	err   error
}

func (f fakeTradeTokens) TradeToken(ctx context.Context) (string, error) { return f.token, f.err }

type fakeInventory struct {
	assets []steamtypes.Asset
	err    error
	calls  int32
}

func (f *fakeInventory) FetchInventory(ctx context.Context, steamID uint64, tradableOnly bool, wantedTypes steamtypes.TypeSet, wantedSets, skippedSets map[steamtypes.SetKey]struct{}) ([]steamtypes.Asset, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.assets, f.err
}

type fakePersona struct{ err error }

func (f fakePersona) RequestPersonaState(ctx context.Context) error { return f.err }

func bigInventory() []steamtypes.Asset {
	assets := make([]steamtypes.Asset, 0, MinItemsCount)
	for i := 0; i < MinItemsCount; i++ {
		assets = append(assets, steamtypes.Asset{
			RealAppID: 730,
			Type:      steamtypes.AssetTypeTradingCard,
			ClassID:   uint64(1000 + i%5),
			Amount:    1,
			Tradable:  true,
		})
	}
	return assets
}

func newTestController(t *testing.T, dirSrv *httptest.Server, elig bool, tokenErr error, invErr error) (*Controller, *fakeInventory) {
	t.Helper()
	inv := &fakeInventory{assets: bigInventory(), err: invErr}
	dir := directory.NewClient(dirSrv.URL, dirSrv.Client(), nil)
	ctrl := NewController(
		defaultBotInfo(),
		"test-guid",
		fakeEligibility{eligible: elig},
		fakeTradeTokens{token: "token", err: tokenErr},
		inv,
		fakePersona{},
		dir,
		nil,
	)
	return ctrl, inv
}

func directoryStub(t *testing.T, heartbeatOK, announceOK bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Api/HeartBeat":
			if !heartbeatOK {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		case "/Api/Announce":
			if !announceOK {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestController_RunAnnouncement_SuccessTransitionsToAnnounced(t *testing.T) {
	srv := directoryStub(t, true, true)
	defer srv.Close()

	ctrl, _ := newTestController(t, srv, true, nil, nil)
	now := time.Now()
	ctrl.runAnnouncement(context.Background(), now)

	if got := ctrl.State(); got != StateAnnounced {
		t.Fatalf("state = %v, want %v", got, StateAnnounced)
	}
	if !ctrl.shouldSendHeartbeats {
		t.Fatal("expected should_send_heartbeats = true after a successful announcement")
	}
	if !ctrl.Clocks().LastAnnouncementCheck.Equal(now) {
		t.Fatal("expected last_announcement_check to advance on success")
	}
}

func TestController_RunAnnouncement_IneligibleAdvancesClockButRejects(t *testing.T) {
	srv := directoryStub(t, true, true)
	defer srv.Close()

	ctrl, _ := newTestController(t, srv, false, nil, nil)
	now := time.Now()
	ctrl.runAnnouncement(context.Background(), now)

	if got := ctrl.State(); got == StateAnnounced {
		t.Fatalf("state = %v, expected not announced when ineligible", got)
	}
	if ctrl.shouldSendHeartbeats {
		t.Fatal("expected should_send_heartbeats = false when ineligible")
	}
	if !ctrl.Clocks().LastAnnouncementCheck.Equal(now) {
		t.Fatal("expected last_announcement_check to advance even on rejection (§4.3 steps 1-3/5)")
	}
}

func TestController_RunAnnouncement_InventoryFetchFailurePreservesClock(t *testing.T) {
	srv := directoryStub(t, true, true)
	defer srv.Close()

	ctrl, inv := newTestController(t, srv, true, nil, errors.New("fetch failed"))
	_ = inv
	now := time.Now()
	ctrl.runAnnouncement(context.Background(), now)

	if !ctrl.Clocks().LastAnnouncementCheck.IsZero() {
		t.Fatal("expected last_announcement_check to stay untouched when the inventory fetch fails (§4.3 step 4)")
	}
	if got := ctrl.State(); got != StateUnannounced {
		t.Fatalf("state = %v, want %v", got, StateUnannounced)
	}
	if ctrl.shouldSendHeartbeats {
		t.Fatal("expected should_send_heartbeats = false on inventory fetch failure")
	}
}

func TestController_RunAnnouncement_AnnouncePostFailureLeavesClockUntouched(t *testing.T) {
	srv := directoryStub(t, true, false)
	defer srv.Close()

	ctrl, _ := newTestController(t, srv, true, nil, nil)
	now := time.Now()
	ctrl.runAnnouncement(context.Background(), now)

	if !ctrl.Clocks().LastAnnouncementCheck.IsZero() {
		t.Fatal("expected last_announcement_check to stay at zero when the announce POST fails")
	}
	if ctrl.shouldSendHeartbeats {
		t.Fatal("expected should_send_heartbeats = false on announce POST failure")
	}
}

func TestController_RunAnnouncement_BelowMinItemsRejects(t *testing.T) {
	srv := directoryStub(t, true, true)
	defer srv.Close()

	ctrl, inv := newTestController(t, srv, true, nil, nil)
	inv.assets = inv.assets[:MinItemsCount-1]
	now := time.Now()
	ctrl.runAnnouncement(context.Background(), now)

	if got := ctrl.State(); got == StateAnnounced {
		t.Fatal("expected rejection below the minimum item count")
	}
	if !ctrl.Clocks().LastAnnouncementCheck.Equal(now) {
		t.Fatal("expected last_announcement_check to advance on a below-minimum rejection")
	}
}

func TestController_MaybeSendHeartbeat_RespectsTTL(t *testing.T) {
	srv := directoryStub(t, true, true)
	defer srv.Close()

	ctrl, _ := newTestController(t, srv, true, nil, nil)
	ctrl.shouldSendHeartbeats = true

	now := time.Now()
	ctrl.clocks.LastHeartbeat = now
	ctrl.maybeSendHeartbeat(context.Background(), now)
	if !ctrl.Clocks().LastHeartbeat.Equal(now) {
		t.Fatal("heartbeat sent before TTL elapsed should not change last_heartbeat")
	}

	due := now.Add(MinHeartbeatTTL)
	ctrl.maybeSendHeartbeat(context.Background(), due)
	if !ctrl.Clocks().LastHeartbeat.Equal(due) {
		t.Fatal("expected last_heartbeat to advance once the TTL elapses")
	}
}

func TestController_MaybeSendHeartbeat_FailurePreservesClock(t *testing.T) {
	srv := directoryStub(t, false, true)
	defer srv.Close()

	ctrl, _ := newTestController(t, srv, true, nil, nil)
	ctrl.shouldSendHeartbeats = true
	due := time.Now().Add(MinHeartbeatTTL)
	ctrl.maybeSendHeartbeat(context.Background(), due)

	if !ctrl.Clocks().LastHeartbeat.IsZero() {
		t.Fatal("expected last_heartbeat to stay untouched when the heartbeat POST fails")
	}
}

func TestController_OnPersonaState_SkippedWhenNotDue(t *testing.T) {
	srv := directoryStub(t, true, true)
	defer srv.Close()

	ctrl, inv := newTestController(t, srv, true, nil, nil)
	ctrl.clocks.LastAnnouncementCheck = time.Now()
	ctrl.OnPersonaState(context.Background())

	if atomic.LoadInt32(&inv.calls) != 0 {
		t.Fatal("expected no inventory fetch when the announcement check is not due yet")
	}
}
