package api

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"runtime"

	"steammatch/internal/api/middleware"
	"steammatch/internal/lifecycle"
	"steammatch/internal/matching"
	"steammatch/internal/websocket"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bot groups one account's lifecycle controller, matching engine, and
// active-matching trigger, the unit the status/control surface reports
// and triggers against. One process hosts many of these (§6 "number of
// concurrently active bots").
type Bot struct {
	SteamID    uint64
	Controller *lifecycle.Controller
	Engine     *matching.Engine
	Trigger    *lifecycle.Trigger
}

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Bots []*Bot
	Hub  *websocket.Hub
}

func (d *Dependencies) find(steamID uint64) *Bot {
	for _, b := range d.Bots {
		if b.SteamID == steamID {
			return b
		}
	}
	return nil
}

// botStatus is one bot's entry in the GET /api/v1/status response.
type botStatus struct {
	SteamID               uint64 `json:"steam_id"`
	State                 string `json:"state"`
	ShouldSendHeartbeats  bool   `json:"should_send_heartbeats"`
	LastAnnouncementCheck string `json:"last_announcement_check"`
	LastHeartbeat         string `json:"last_heartbeat"`
	LastPersonaStateReq   string `json:"last_persona_state_request"`
	LastRound             *struct {
		Round        int    `json:"round"`
		MadeProgress bool   `json:"made_progress"`
		At           string `json:"at"`
	} `json:"last_round,omitempty"`
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место для определения всех API endpoints.
// Регистрирует handlers для каждого маршрута.
// Применяет middleware к группам маршрутов.
// Организует версионирование API (v1).
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── GET  /status        - снэпшот lifecycle-часов и последнего раунда
//	│                         матчинга для каждого бота процесса
//	└── POST /match/trigger - ручной запуск match_actively для одного бота
//	                          (тот же match_actively_lock, что и у таймера)
//
// /ws/
//
//	└── /stream - WebSocket для real-time обновлений
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if deps == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[]`))
			return
		}

		out := make([]botStatus, 0, len(deps.Bots))
		for _, b := range deps.Bots {
			clocks := b.Controller.Clocks()
			state := b.Controller.State()
			st := botStatus{
				SteamID:               b.SteamID,
				State:                 string(state),
				ShouldSendHeartbeats:  lifecycle.ShouldSendHeartbeats(state),
				LastAnnouncementCheck: clocks.LastAnnouncementCheck.UTC().Format(timeFormat),
				LastHeartbeat:         clocks.LastHeartbeat.UTC().Format(timeFormat),
				LastPersonaStateReq:   clocks.LastPersonaStateReq.UTC().Format(timeFormat),
			}
			if summary := b.Engine.LastRoundSummary(); !summary.At.IsZero() {
				st.LastRound = &struct {
					Round        int    `json:"round"`
					MadeProgress bool   `json:"made_progress"`
					At           string `json:"at"`
				}{Round: summary.Round, MadeProgress: summary.MadeProgress, At: summary.At.UTC().Format(timeFormat)}
			}
			out = append(out, st)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}).Methods("GET")

	api.HandleFunc("/match/trigger", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SteamID uint64 `json:"steam_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if deps == nil {
			http.Error(w, "bot not found", http.StatusNotFound)
			return
		}
		bot := deps.find(body.SteamID)
		if bot == nil {
			http.Error(w, "bot not found", http.StatusNotFound)
			return
		}

		// Best-effort manual kick: same match_actively_lock semantics as
		// the timer-driven path (§4.5 guard 6) - a pass already in
		// progress makes this a no-op rather than an error.
		go bot.Engine.MatchActively(r.Context())

		w.WriteHeader(http.StatusAccepted)
	}).Methods("POST")

	// WebSocket route для real-time обновлений
	if deps != nil && deps.Hub != nil {
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(deps.Hub, w, r)
		}).Methods("GET")
	}

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// ============================================================
	// Prometheus metrics endpoint
	// ============================================================
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// ============================================================
	// pprof endpoints для профилирования
	// ============================================================
	// Защищены Basic Auth (DEBUG_USERNAME/DEBUG_PASSWORD); see
	// middleware.DebugAuth for the development/ENV exemption.
	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(middleware.DebugAuth)

	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)

	debug.HandleFunc("/heap", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("heap").ServeHTTP(w, r)
	})
	debug.HandleFunc("/goroutine", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("goroutine").ServeHTTP(w, r)
	})
	debug.HandleFunc("/block", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("block").ServeHTTP(w, r)
	})
	debug.HandleFunc("/threadcreate", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("threadcreate").ServeHTTP(w, r)
	})
	debug.HandleFunc("/mutex", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("mutex").ServeHTTP(w, r)
	})
	debug.HandleFunc("/allocs", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("allocs").ServeHTTP(w, r)
	})

	// Runtime stats endpoint (дополнительно), protected the same way as
	// /debug/pprof above.
	router.Handle("/debug/runtime", middleware.DebugAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{`))
		w.Write([]byte(`"goroutines":` + itoa(runtime.NumGoroutine()) + `,`))
		w.Write([]byte(`"heap_alloc_mb":` + ftoa(float64(m.HeapAlloc)/1024/1024) + `,`))
		w.Write([]byte(`"heap_sys_mb":` + ftoa(float64(m.HeapSys)/1024/1024) + `,`))
		w.Write([]byte(`"num_gc":` + itoa(int(m.NumGC)) + `,`))
		w.Write([]byte(`"gc_pause_total_ms":` + ftoa(float64(m.PauseTotalNs)/1e6)))
		w.Write([]byte(`}`))
	}))).Methods("GET")

	return router
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// Вспомогательные функции для JSON без fmt
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	pos := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		b[pos] = '-'
	}
	return string(b[pos:])
}

func ftoa(f float64) string {
	// Простое форматирование с 2 знаками после запятой
	i := int(f * 100)
	whole := i / 100
	frac := i % 100
	if frac < 0 {
		frac = -frac
	}
	fracStr := itoa(frac)
	if len(fracStr) == 1 {
		fracStr = "0" + fracStr
	}
	return itoa(whole) + "." + fracStr
}
