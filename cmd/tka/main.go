package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	api "github.com/mind-engage/mindengage-tka/internal/api/http"
	auth "github.com/mind-engage/mindengage-tka/internal/auth/middleware"
	"github.com/mind-engage/mindengage-tka/internal/config"
	"github.com/mind-engage/mindengage-tka/internal/events"
	"github.com/mind-engage/mindengage-tka/internal/rbac"
	"github.com/mind-engage/mindengage-tka/internal/repository"
	"github.com/mind-engage/mindengage-tka/internal/scheduler"
	"github.com/mind-engage/mindengage-tka/internal/session"
	syncx "github.com/mind-engage/mindengage-tka/internal/sync"
)

func main() {
	cfg := config.FromEnv()
	log := newLogger(cfg)

	// --- Store ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, dbh, closeStore, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("store open failed")
	}
	defer closeStore()
	repo := repository.New(store)

	// --- Engine ---
	bus := events.NewBus()
	var journal api.EventLister
	if dbh != nil {
		er := syncx.NewEventRepo(dbh, cfg.SiteID)
		bus.Subscribe(er.Journal(log))
		journal = er
	}
	merger := syncx.New(repo, bus, log)
	fetcher := syncx.HTTPFetcher{Client: &http.Client{Timeout: cfg.SyncTimeout}}
	ctrl := session.New(repo,
		session.WithBus(bus),
		session.WithLogger(log),
		session.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
	)
	bus.Subscribe(func(e events.Event) {
		log.WithFields(logrus.Fields{"kind": e.Kind, "source": e.Source}).Debug("change published")
	})

	if cfg.SyncOnStart {
		sctx, scancel := context.WithTimeout(context.Background(), cfg.SyncTimeout)
		merger.SyncConfigured(sctx, fetcher)
		scancel()
	}

	sched := scheduler.New(scheduler.Config{
		SyncInterval: cfg.SyncInterval,
		SyncTimeout:  cfg.SyncTimeout,
		SessionTTL:   cfg.SessionTTL,
	}, func(ctx context.Context) bool { return merger.SyncConfigured(ctx, fetcher) }, ctrl, log)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("scheduler start failed")
	}
	defer sched.Stop()

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.HMACSecret, cfg.TokenTTL)
	adminHash := cfg.AdminPassHash
	if adminHash == "" {
		if adminHash, err = auth.HashPassword(cfg.AdminPass); err != nil {
			log.WithError(err).Fatal("hash admin password")
		}
	}
	authSvc.AddAccount(cfg.AdminUser, adminHash, rbac.RoleAdmin)
	if cfg.ProctorUser != "" && cfg.ProctorPass != "" {
		h, err := auth.HashPassword(cfg.ProctorPass)
		if err != nil {
			log.WithError(err).Fatal("hash proctor password")
		}
		authSvc.AddAccount(cfg.ProctorUser, h, rbac.RoleProctor)
	}

	bs, err := openBlobs(cfg)
	if err != nil {
		log.WithError(err).Fatal("blob store")
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.WithError(err).Warnf("unknown time zone %q; exports use UTC", cfg.TimeZone)
		loc = time.UTC
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{
		Sessions:    ctrl,
		Merger:      merger,
		Fetcher:     fetcher,
		Blobs:       bs,
		Events:      journal,
		Auth:        authSvc,
		Location:    loc,
		MaxUpload:   cfg.MaxUpload,
		SyncTimeout: cfg.SyncTimeout,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	stop, release := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer release()
	go func() {
		<-stop.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		_ = srv.Shutdown(sctx)
	}()

	log.WithFields(logrus.Fields{
		"addr":  cfg.HTTPAddr,
		"store": cfg.StoreDriver,
		"sync":  cfg.SyncInterval.String(),
	}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("server stopped")
	}
}

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
