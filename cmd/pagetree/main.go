// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-pagetree/internal/cache"
	"github.com/olegiv/ocms-pagetree/internal/config"
	"github.com/olegiv/ocms-pagetree/internal/content"
	"github.com/olegiv/ocms-pagetree/internal/handler"
	"github.com/olegiv/ocms-pagetree/internal/logging"
	"github.com/olegiv/ocms-pagetree/internal/middleware"
	"github.com/olegiv/ocms-pagetree/internal/render"
	"github.com/olegiv/ocms-pagetree/internal/scheduler"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/session"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/version"
	"github.com/olegiv/ocms-pagetree/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "pagetree - page tree administration\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGETREE_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGETREE_DB_PATH         SQLite database path (default: ./data/pagetree.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGETREE_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGETREE_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGETREE_ADMIN_MEDIA     URL path of the admin media (default: /media/sys/feincms/)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGETREE_REDIS_URL       Redis URL for distributed caching (optional)\n")
	}

	flag.Parse()

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func run(info version.Info) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Warnings and errors also go to the event log from here on.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())

	backend, backendName := cache.New(cache.Options{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	})
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	slog.Info("cache initialized", "backend", backendName)
	referenceCache := cache.NewReferenceCache(backend, store.New(db), time.Duration(cfg.CacheTTL)*time.Second)

	eventService := service.NewEventService(db)
	pageService := service.NewPageService(db, content.Default())
	referenceService := service.NewReferenceService(db, referenceCache)

	if err := pageService.Verify(ctx); err != nil {
		slog.Warn("page tree is inconsistent", "error", err)
	}

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		AdminMedia:     cfg.AdminMediaPath(),
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	sched := scheduler.New(logger, eventService, pageService, cfg.EventRetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, eventService, loginProtection)
	pagesHandler := handler.NewPagesHandler(db, pageService, referenceService, eventService, renderer)
	referenceHandler := handler.NewReferenceHandler(referenceService, eventService, renderer)
	eventsHandler := handler.NewEventsHandler(eventService, renderer)
	cacheHandler := handler.NewCacheHandler(renderer, referenceCache, backendName, eventService)
	healthHandler := handler.NewHealthHandler(db, info)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(cfg.IsDevelopment()))

	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	mediaFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("getting admin media fs: %w", err)
	}
	mediaMaxAge := middleware.AdminMediaMaxAge
	if cfg.IsDevelopment() {
		mediaMaxAge = 0
	}
	mediaPath := cfg.AdminMediaPath()
	r.Handle(mediaPath+"*", middleware.StaticCache(mediaMaxAge)(http.StripPrefix(mediaPath, http.FileServer(http.FS(mediaFS)))))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/admin/pages/", http.StatusFound)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())))

		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))
			r.Use(middleware.LoadUser(sessionManager, db))

			r.Post(handler.RouteLogout, authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireEditor(eventService))

				r.Get("/", func(w http.ResponseWriter, req *http.Request) {
					http.Redirect(w, req, "/admin/pages/", http.StatusFound)
				})

				r.Route(handler.RoutePages, func(r chi.Router) {
					r.Get("/", pagesHandler.List)
					r.Get(handler.RouteSuffixAdd, pagesHandler.AddForm)
					r.Post(handler.RouteSuffixAdd, pagesHandler.Add)
					r.Post(handler.RouteSaveTree, pagesHandler.SaveTree)
					r.Post(handler.RouteDeleteAJAX, pagesHandler.DeleteAJAX)
					r.Get(handler.RouteParamID, pagesHandler.ChangeForm)
					r.Post(handler.RouteParamID, pagesHandler.Change)
					r.Get(handler.RouteParamID+handler.RouteSuffixHistory, pagesHandler.History)
					r.Get(handler.RouteParamID+handler.RouteSuffixDelete, pagesHandler.DeleteConfirm)
					r.Post(handler.RouteParamID+handler.RouteSuffixDelete, pagesHandler.Delete)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(eventService))

				r.Route(handler.RouteRegions, func(r chi.Router) {
					r.Get("/", referenceHandler.ListRegions)
					r.Get(handler.RouteSuffixAdd, referenceHandler.NewRegionForm)
					r.Post(handler.RouteSuffixAdd, referenceHandler.CreateRegion)
				})
				r.Route(handler.RouteTemplates, func(r chi.Router) {
					r.Get("/", referenceHandler.ListTemplates)
					r.Get(handler.RouteSuffixAdd, referenceHandler.NewTemplateForm)
					r.Post(handler.RouteSuffixAdd, referenceHandler.CreateTemplate)
				})
				r.Get(handler.RouteEvents, eventsHandler.List)
				r.Route(handler.RouteCache, func(r chi.Router) {
					r.Get("/", cacheHandler.Stats)
					r.Post(handler.RouteSuffixClear, cacheHandler.Clear)
				})
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
