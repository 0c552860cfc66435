// Package main is the entry point for the WhereHaveIBeen gateway
//
//	@title			WhereHaveIBeen API
//	@version		1.0
//	@description	Session gateway in front of an OwnTracks recorder and an OSRM routing server.
//
//	@license.name	MIT
//
//	@host		localhost:5000
//	@BasePath	/
//
//	@schemes	http https
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/romangarms/WhereHaveIBeen/internal/account"
	"github.com/romangarms/WhereHaveIBeen/internal/audit"
	"github.com/romangarms/WhereHaveIBeen/internal/config"
	"github.com/romangarms/WhereHaveIBeen/internal/esx"
	"github.com/romangarms/WhereHaveIBeen/internal/httpx"
	"github.com/romangarms/WhereHaveIBeen/internal/httpx/mw"
	"github.com/romangarms/WhereHaveIBeen/internal/locations"
	"github.com/romangarms/WhereHaveIBeen/internal/logx"
	"github.com/romangarms/WhereHaveIBeen/internal/mqx"
	"github.com/romangarms/WhereHaveIBeen/internal/owntracks"
	"github.com/romangarms/WhereHaveIBeen/internal/redisx"
	"github.com/romangarms/WhereHaveIBeen/internal/routing"
	"github.com/romangarms/WhereHaveIBeen/internal/server"
	"github.com/romangarms/WhereHaveIBeen/internal/session"
	"github.com/romangarms/WhereHaveIBeen/internal/upstream"

	_ "github.com/romangarms/WhereHaveIBeen/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load()

	// Load config (env first; optional Apollo override)
	cfg, store, apClose, err := config.Load()
	if apClose != nil {
		defer apClose()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		var missing *config.MissingEnvError
		if errors.As(err, &missing) {
			fmt.Fprintln(os.Stderr, missing.Error())
		} else {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		}
		os.Exit(1)
	}

	logx.Init(cfg.Log.Level, cfg.Log.Format)
	mainLogger := logx.GetScope("main")
	defer mainLogger.Sync()

	mainLogger.Info("config loaded",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.Server.Addr),
		zap.String("owntracks", cfg.OwnTracks.URL),
		zap.String("osrm", cfg.OSRM.DefaultURL),
		zap.String("log.level", cfg.Log.Level),
		zap.String("log.format", cfg.Log.Format),
	)

	// Optional deps: Redis, MQ, ES. Interfaces stay nil when a dep is off.
	var rateCounter mw.Counter
	rdb, redisClose, err := redisx.Open(cfg)
	if err != nil {
		mainLogger.Warn("redis init failed; rate limits stay in memory", zap.Error(err))
	} else if rdb != nil {
		defer redisClose()
		rateCounter = redisx.NewWindowCounter(rdb, "whib:rl:")
	}

	var publisher audit.Publisher
	pub, mqClose, err := mqx.Open(cfg)
	if err != nil {
		mainLogger.Warn("mq init failed", zap.Error(err))
	} else if pub != nil {
		defer mqClose()
		publisher = pub
	}

	var indexer audit.Indexer
	es, esClose, err := esx.Open(cfg)
	if err != nil {
		mainLogger.Warn("es init failed", zap.Error(err))
	} else if es != nil {
		defer esClose()
		indexer = esx.NewIndexer(es, cfg.ES.Index)
	}

	sessions, err := session.NewManager(cfg.SecretKey, session.Options{
		CookieName:         cfg.Session.CookieName,
		TTL:                cfg.Session.TTL,
		Secure:             cfg.Session.Secure,
		RefreshEachRequest: cfg.Session.RefreshEachRequest,
	})
	if err != nil {
		mainLogger.Fatal("session manager", zap.Error(err))
	}

	breaker := upstream.BreakerConfig{
		Enable:      cfg.Breaker.Enable,
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	}
	otClient := owntracks.NewClient(owntracks.Config{
		BaseURL:     cfg.OwnTracks.URL,
		AuthTimeout: cfg.OwnTracks.AuthTimeout,
		Timeout:     cfg.OwnTracks.Timeout,
	}, upstream.New("owntracks", breaker))

	recorder := audit.NewRecorder(publisher, indexer)

	app := httpx.NewApp(cfg)
	httpx.RegisterCommonMiddlewares(app)
	httpx.Register(app, httpx.Deps{
		Config:      cfg,
		Sessions:    sessions,
		Accounts:    account.NewService(otClient, recorder),
		Locations:   locations.NewTranslator(otClient, cfg.Location()),
		Routing:     routing.NewProxy(upstream.New("osrm", breaker, upstream.PerHost()), cfg.OSRM.DefaultURL, cfg.OSRM.Timeout),
		RateCounter: rateCounter,
	})

	// Validators: reject snapshots that would break logging
	store.AddValidator(func(newCfg *config.Config, changed map[string]bool) error {
		if changed["log.level"] {
			switch newCfg.Log.Level {
			case "debug", "info", "warn", "error":
			default:
				return fmt.Errorf("unknown log level %q", newCfg.Log.Level)
			}
		}
		return nil
	})

	store.Watch(func(newCfg *config.Config, changed map[string]bool) {
		if changed["osrm.default_url"] || changed["owntracks.url"] {
			mainLogger.Warn("backend url changed; restart required to take effect",
				zap.String("owntracks", newCfg.OwnTracks.URL),
				zap.String("osrm", newCfg.OSRM.DefaultURL),
			)
		}
		if changed["log.level"] || changed["log.format"] {
			logx.Init(newCfg.Log.Level, newCfg.Log.Format)
			mainLogger.Info("logger reconfigured",
				zap.String("level", newCfg.Log.Level),
				zap.String("format", newCfg.Log.Format),
			)
		}
	})

	// Graceful shutdown
	ln, err := server.GetListener(cfg.Server.Addr, cfg.Server.SocketActivation)
	if err != nil {
		mainLogger.Fatal("listener error", zap.Error(err))
	}
	go func() {
		if err := app.Listener(ln); err != nil {
			mainLogger.Sugar().Infof("fiber exit: %v", err)
		}
	}()
	mainLogger.Sugar().Infof("server started on %s", ln.Addr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	mainLogger.Info("shutting down...")
	if err := app.Shutdown(); err != nil {
		mainLogger.Warn("shutdown", zap.Error(err))
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := recorder.Drain(drainCtx); err != nil {
		mainLogger.Warn("audit events still pending at exit", zap.Error(err))
	}
}
