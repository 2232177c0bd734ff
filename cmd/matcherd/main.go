package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"steammatch/internal/api"
	"steammatch/internal/collaborators"
	"steammatch/internal/config"
	"steammatch/internal/directory"
	"steammatch/internal/eligibility"
	"steammatch/internal/lifecycle"
	"steammatch/internal/matching"
	"steammatch/internal/repository"
	"steammatch/internal/tradeoffer"
	"steammatch/internal/websocket"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// botCollaborators groups the per-account remote collaborators the
// surrounding Steam-login/web-session agent must supply (§6) — this
// module implements none of them. EligibilityChecks is the remote half
// of C2 (§4.2 steps 4-5); registerBot builds the Oracle and binds it to
// Info itself, so C3/C5 consult a live eligibility.Oracle rather than a
// caller-supplied stand-in (§2).
type botCollaborators struct {
	Info interface {
		lifecycle.BotInfo
		matching.Bot
		eligibility.Bot
	}
	EligibilityChecks collaborators.AccountChecks
	TradeTokens       collaborators.TradeTokenProvider
	Inventory         collaborators.InventoryFetcher
	Persona           collaborators.PersonaStateRequester
	Submitter         collaborators.TradeOfferSubmitter
	Confirmer         collaborators.ConfirmationDispatcher
	TradingLock       sync.Locker
}

// registerBot wires one account's lifecycle controller, matching engine,
// and active-matching trigger against the module's shared infrastructure
// (directory client, trade blacklist, installation guid, matching
// tunables). This is the extension point the embedding agent calls as
// accounts come online; main does not call it directly since it owns no
// bot roster. botsInProcess is the count of bots the embedding agent has
// registered (or is registering) in this process, used to stagger C4's
// startup delay across them (§4.4).
func registerBot(
	ctx context.Context,
	c botCollaborators,
	guid string,
	dirClient *directory.Client,
	blacklist *repository.BlacklistRepository,
	matchCfg matching.Config,
	loadBalancingDelaySeconds, botsInProcess int,
	logger *zap.SugaredLogger,
) *api.Bot {
	checker := eligibility.NewOracle(c.EligibilityChecks).ForBot(c.Info)

	controller := lifecycle.NewController(
		c.Info, guid, checker, c.TradeTokens, c.Inventory, c.Persona, dirClient, logger,
	)
	engine := matching.NewEngine(
		c.Info, checker, dirClient, c.Inventory,
		tradeoffer.NewExecutor(c.Submitter, c.Confirmer, logger),
		blacklist, c.TradingLock, matchCfg, logger,
	)
	trigger := lifecycle.NewTrigger(ctx, loadBalancingDelaySeconds, botsInProcess, func(runCtx context.Context) {
		engine.MatchActively(runCtx)
	}, logger)

	return &api.Bot{SteamID: c.Info.SteamID(), Controller: controller, Engine: engine, Trigger: trigger}
}

// This process owns the matching-participation module's shared
// infrastructure: configuration, Postgres-backed persistence, the
// directory client, the status/control HTTP surface, and the dashboard
// event hub. It does not own a Steam session or bot roster — per
// spec.md §1, the surrounding Steam-login/web-session agent constructs
// each account's collaborators (inventory, trade-offer submission,
// confirmations, persona-state, eligibility) and calls registerBot as
// accounts come online, appending the result to api.Dependencies.Bots.
func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	settingsRepo := repository.NewSettingsRepository(db)
	guid, err := settingsRepo.GUID()
	if err != nil {
		logger.Fatalf("failed to load installation guid: %v", err)
	}
	logger.Infow("installation guid resolved", "guid", guid)

	blacklistRepo := repository.NewBlacklistRepository(db)
	dirClient := directory.NewClient(cfg.Directory.BaseURL, nil, logger)
	matchCfg := matching.Config{
		MaxTradesPerAccount: cfg.Matching.MaxTradesPerAccount,
		MaxItemsPerTrade:    cfg.Matching.MaxItemsPerTrade,
	}

	// guid, dirClient, blacklistRepo, and matchCfg are exactly what
	// registerBot needs; they're held here so the embedding agent's
	// account-registration hook can close over them once it exists.
	_, _, _, _ = guid, dirClient, blacklistRepo, matchCfg

	triggerCtx, stopTriggers := context.WithCancel(context.Background())
	defer stopTriggers()

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	bots := make([]*api.Bot, 0)

	// triggerCtx and cfg.Directory.LoadBalancingDelaySeconds are what
	// registerBot needs for its lifecycle.NewTrigger call; held here for
	// the same reason as the infrastructure above.
	_ = triggerCtx

	deps := &api.Dependencies{
		Bots: bots,
		Hub:  hub,
	}

	router := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("starting server on %s", server.Addr)
		var err error
		if cfg.Server.UseHTTPS {
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	for _, b := range deps.Bots {
		if b.Trigger != nil {
			b.Trigger.Stop()
		}
	}
	stopTriggers()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}

	logger.Info("server exited")
}

func newLogger() *zap.SugaredLogger {
	zapCfg := zap.NewProductionConfig()
	if os.Getenv("LOG_FORMAT") == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	l, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := sql.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
