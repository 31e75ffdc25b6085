// Package main runs the burn ledger gateway: the REST API, the chain
// dispatcher and the background sweeper.
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	app "github.com/bfp-network/burnledger/internal/app"
	"github.com/bfp-network/burnledger/internal/app/httpapi"
	"github.com/bfp-network/burnledger/internal/app/metrics"
	"github.com/bfp-network/burnledger/internal/app/storage/postgres"
	"github.com/bfp-network/burnledger/internal/chain"
	"github.com/bfp-network/burnledger/internal/config"
	"github.com/bfp-network/burnledger/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	log := logger.NewDefault("gateway")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}

	stores := app.Stores{}
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("open database")
		}
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			log.WithError(err).Fatal("run migrations")
		}
		store := postgres.New(db)
		stores = app.Stores{Proposals: store, Comments: store, Balances: store}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
	}

	accounts := chain.Accounts{
		Self:           cfg.Chain.Self,
		FeeSink:        cfg.Chain.FeeSink,
		NativeToken:    cfg.Chain.NativeToken,
		SecondaryToken: cfg.Chain.SecondaryToken,
		System:         cfg.Chain.System,
		Msig:           cfg.Chain.Msig,
	}

	outbound := app.Outbound{}
	var dispatcher *chain.Dispatcher
	if cfg.Chain.APIURL != "" {
		client, err := chain.NewClient(chain.Config{APIURL: cfg.Chain.APIURL, Timeout: cfg.Chain.Timeout})
		if err != nil {
			log.WithError(err).Fatal("configure chain client")
		}
		dispatcher = chain.NewDispatcher(client, cfg.Chain.DispatchQueue, log)
		actions := chain.NewActions(dispatcher, accounts)
		outbound.RAM = actions
		outbound.Forwarder = actions

		lookup := chain.NewMsigApprovals(client, accounts.Msig)
		if cfg.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			outbound.Approvals = chain.NewCachedApprovals(lookup, rdb, cfg.Chain.ApprovalCacheTTL, log)
			log.Info("approval cache enabled")
		} else {
			outbound.Approvals = lookup
		}
	} else {
		log.Warn("CHAIN_API_URL not set; chain interaction disabled")
	}

	application, err := app.New(app.Config{
		Self:           accounts.Self,
		IgnoredSenders: accounts.IgnoredSenders(),
	}, stores, outbound, log)
	if err != nil {
		log.WithError(err).Fatal("build application")
	}
	if dispatcher != nil {
		if err := application.Attach(dispatcher); err != nil {
			log.WithError(err).Fatal("attach dispatcher")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := application.Start(ctx); err != nil {
		log.WithError(err).Fatal("start application")
	}

	// Auth wraps the limiter so limits key on the authenticated identity.
	var api http.Handler = httpapi.NewHandler(application, cfg.Notifier)
	if cfg.RateLimit > 0 {
		api = httpapi.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, log).Handler(api)
	}
	api = httpapi.WithAuth(api, cfg.Tokens)
	if len(cfg.CORSOrigins) > 0 {
		api = httpapi.NewCORS(cfg.CORSOrigins).Handler(api)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/", api)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      metrics.InstrumentHandler(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("gateway listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Fatal("serve")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}

	log.Info("gateway stopped")
}
