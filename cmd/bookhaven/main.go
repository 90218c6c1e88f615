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

	"github.com/sophiabent/bookhaven/internal/cache"
	"github.com/sophiabent/bookhaven/internal/config"
	"github.com/sophiabent/bookhaven/internal/geoip"
	"github.com/sophiabent/bookhaven/internal/handler"
	"github.com/sophiabent/bookhaven/internal/logging"
	"github.com/sophiabent/bookhaven/internal/mailer"
	"github.com/sophiabent/bookhaven/internal/middleware"
	"github.com/sophiabent/bookhaven/internal/render"
	"github.com/sophiabent/bookhaven/internal/scheduler"
	"github.com/sophiabent/bookhaven/internal/session"
	"github.com/sophiabent/bookhaven/internal/storage"
	"github.com/sophiabent/bookhaven/internal/store"
	"github.com/sophiabent/bookhaven/internal/tts"
	"github.com/sophiabent/bookhaven/internal/version"
	"github.com/sophiabent/bookhaven/web"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "BookHaven - bookstore and blog platform\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BOOKHAVEN_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BOOKHAVEN_DB_PATH          SQLite database path (default: ./data/bookhaven.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BOOKHAVEN_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BOOKHAVEN_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BOOKHAVEN_BASE_URL         Public base URL (default: http://localhost:8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BOOKHAVEN_RESEND_API_KEY   Resend API key; email delivery disabled when empty\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BOOKHAVEN_REDIS_URL        Redis URL for distributed caching (optional)\n")
	}

	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("bookhaven %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
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
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db, cfg.AdminEmail, cfg.AdminPass); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Catalog cache: Redis when configured, in-process memory otherwise
	backend, err := cache.NewCache(cache.CacheConfig{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		slog.Warn("cache backend unavailable, using memory fallback", "error", err)
		backend = cache.NewDefaultCache()
	}
	catalog := cache.NewCatalogCache(db, backend, time.Duration(cfg.CacheTTL)*time.Second)
	if cfg.UseRedisCache() {
		slog.Info("catalog cache initialized", "backend", "redis", "url", cache.SanitizeRedisURL(cfg.RedisURL))
	} else {
		slog.Info("catalog cache initialized", "backend", "memory")
	}

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		SiteName:       cfg.SiteName,
		BaseURL:        cfg.BaseURL,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// Object storage: S3-compatible bucket when configured, local disk otherwise.
	// The local backend also serves /files/download for its signed URLs.
	var st storage.Storage
	var localStore *storage.LocalStorage
	if cfg.UseS3Storage() {
		st, err = storage.NewS3Storage(ctx, storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return fmt.Errorf("initializing object storage: %w", err)
		}
		slog.Info("object storage initialized", "backend", "s3", "bucket", cfg.S3Bucket)
	} else {
		localStore, err = storage.NewLocalStorage(cfg.UploadsDir, cfg.BaseURL, []byte(cfg.SessionSecret))
		if err != nil {
			return fmt.Errorf("initializing local storage: %w", err)
		}
		st = localStore
		slog.Info("object storage initialized", "backend", "local", "dir", cfg.UploadsDir)
	}

	// Email delivery: Resend when configured, a logging no-op otherwise
	var mail mailer.Client
	if cfg.EmailEnabled() {
		mail = mailer.NewResendClient(cfg.ResendAPIKey, cfg.EmailFrom)
		slog.Info("email delivery initialized", "backend", "resend", "from", cfg.EmailFrom)
	} else {
		mail = mailer.NoopClient{}
		slog.Warn("email delivery not configured, messages will be dropped")
	}

	dispatcher := mailer.NewDispatcher(db, mail, logger, mailer.DispatcherConfig{
		SiteName: cfg.SiteName,
		BaseURL:  cfg.BaseURL,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// GeoIP country lookups for the download audit trail
	geo := geoip.NewLookup()
	if err := geo.Init(cfg.GeoIPDBPath); err != nil {
		slog.Warn("geoip database unavailable", "path", cfg.GeoIPDBPath, "error", err)
	}
	defer func() {
		_ = geo.Close()
	}()

	// Text-to-speech client for audiobook samples
	var speech *tts.Client
	if cfg.TTSEnabled() {
		speech = tts.New(cfg.TTSAPIKey, cfg.TTSVoice)
		slog.Info("text-to-speech initialized", "voice", cfg.TTSVoice)
	}

	// Rate limiting: per-IP limiter for the public API plus dedicated
	// brute-force protection on the login endpoints
	apiRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	sched := scheduler.New(db, logger, dispatcher, geo, apiRateLimiter, cfg.EventRetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Handlers
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection, mail, cfg)
	frontendHandler := handler.NewFrontendHandler(db, renderer, catalog, cfg)
	dashboardHandler := handler.NewDashboardHandler(db, renderer)
	adminHandler := handler.NewAdminHandler(db, renderer)
	bookHandler := handler.NewBookHandler(db, renderer, catalog, st, speech)
	blogHandler := handler.NewBlogHandler(db, renderer, catalog, st)
	categoryHandler := handler.NewCategoryHandler(db, renderer, catalog)
	userHandler := handler.NewUserHandler(db, renderer)
	campaignHandler := handler.NewCampaignHandler(db, renderer, dispatcher)
	bookAPIHandler := handler.NewBookAPIHandler(db, st, geo)
	commentHandler := handler.NewCommentHandler(db)
	newsletterHandler := handler.NewNewsletterHandler(db, mail, cfg)
	contactHandler := handler.NewContactHandler(db, mail, cfg)
	mediaHandler := handler.NewMediaHandler(st)
	seoHandler := handler.NewSEOHandler(db, cfg)
	healthHandler := handler.NewHealthHandler(db, cfg.UploadsDir)

	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)

	// The access gate resolves the session user and enforces the route
	// access policy on every request
	r.Use(middleware.AccessGate(sessionManager, db, middleware.NewClassifier()))

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	// Health checks
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Public site
	r.Group(func(r chi.Router) {
		r.Get(handler.RouteRoot, frontendHandler.Home)
		r.Get(handler.RouteBooks, frontendHandler.Books)
		r.Get(handler.RouteBooks+handler.RouteParamSlug, frontendHandler.BookDetail)
		r.Get(handler.RouteBlog, frontendHandler.Blogs)
		r.Get(handler.RouteBlog+handler.RouteParamSlug, frontendHandler.BlogDetail)
		r.Get("/contact", frontendHandler.Contact)
		r.Get("/sitemap.xml", seoHandler.Sitemap)
		r.Get("/robots.txt", seoHandler.Robots)
		r.Get("/.well-known/security.txt", seoHandler.SecurityTxt)
	})

	// Auth pages (CSRF-protected, rate limited against brute force)
	r.Group(func(r chi.Router) {
		r.Use(apiRateLimiter.HTMLMiddleware())
		r.Use(csrfMiddleware)
		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Get(handler.RouteLogout, authHandler.Logout)
		r.Post(handler.RouteLogout, authHandler.Logout)
		r.Get(handler.RouteRegister, authHandler.RegisterForm)
		r.Post(handler.RouteRegister, authHandler.Register)
		r.Get(handler.RouteVerifyEmail, authHandler.VerifyEmail)
		r.Get(handler.RouteForgotPassword, authHandler.ForgotPasswordForm)
		r.Post(handler.RouteForgotPassword, authHandler.ForgotPassword)
		r.Get(handler.RouteNewPassword, authHandler.NewPasswordForm)
		r.Post(handler.RouteNewPassword, authHandler.NewPassword)
	})

	// Google OAuth
	if cfg.GoogleOAuthEnabled() {
		oauthHandler := handler.NewOAuthHandler(db, renderer, sessionManager, cfg)
		r.Get("/auth/google", oauthHandler.GoogleLogin)
		r.Get("/auth/google/callback", oauthHandler.GoogleCallback)
		slog.Info("google oauth routes enabled")
	}

	// Reader dashboard (the access gate requires an authenticated session)
	r.Route(handler.RouteDashboard, func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Get(handler.RouteRoot, dashboardHandler.Overview)
		r.Get("/profile", dashboardHandler.ProfileForm)
		r.Post("/profile", dashboardHandler.UpdateProfile)
		r.Post("/profile/password", dashboardHandler.ChangePassword)
	})

	// Admin back office (the access gate requires the admin role)
	r.Route(handler.RouteAdmin, func(r chi.Router) {
		r.Use(csrfMiddleware)

		r.Get(handler.RouteRoot, adminHandler.Dashboard)
		r.Get(handler.RouteEvents, adminHandler.Events)

		r.Get(handler.RouteBooks, bookHandler.List)
		r.Get(handler.RouteBooks+handler.RouteSuffixNew, bookHandler.NewForm)
		r.Post(handler.RouteBooks, bookHandler.Create)
		r.Get(handler.RouteBooks+handler.RouteSuffixEdit, bookHandler.EditForm)
		r.Post(handler.RouteBooks+handler.RouteParamID, bookHandler.Update)
		r.Post(handler.RouteBooks+handler.RouteParamID+"/publish", bookHandler.TogglePublish)
		r.Post(handler.RouteBooks+handler.RouteParamID+"/audio", bookHandler.GenerateAudio)
		r.Post(handler.RouteBooks+handler.RouteSuffixDelete, bookHandler.Delete)

		r.Get("/blogs", blogHandler.List)
		r.Get("/blogs"+handler.RouteSuffixNew, blogHandler.NewForm)
		r.Post("/blogs", blogHandler.Create)
		r.Get("/blogs"+handler.RouteSuffixEdit, blogHandler.EditForm)
		r.Post("/blogs"+handler.RouteParamID, blogHandler.Update)
		r.Post("/blogs"+handler.RouteParamID+"/publish", blogHandler.TogglePublish)
		r.Post("/blogs"+handler.RouteSuffixDelete, blogHandler.Delete)

		r.Get(handler.RouteCategories, categoryHandler.List)
		r.Post(handler.RouteCategories, categoryHandler.Create)
		r.Post(handler.RouteCategories+handler.RouteParamID, categoryHandler.Update)
		r.Post(handler.RouteCategories+handler.RouteSuffixDelete, categoryHandler.Delete)
		r.Post(handler.RouteBlogCategories, categoryHandler.CreateBlogCategory)
		r.Post(handler.RouteBlogCategories+handler.RouteParamID, categoryHandler.UpdateBlogCategory)
		r.Post(handler.RouteBlogCategories+handler.RouteSuffixDelete, categoryHandler.DeleteBlogCategory)

		r.Get(handler.RouteUsers, userHandler.List)
		r.Get(handler.RouteUsers+handler.RouteParamID, userHandler.Detail)
		r.Post(handler.RouteUsers+handler.RouteParamID, userHandler.Update)
		r.Post(handler.RouteUsers+handler.RouteSuffixDelete, userHandler.Delete)
		r.Post(handler.RouteUsers+handler.RouteParamID+"/grant", userHandler.GrantBook)

		r.Get(handler.RouteCampaigns, campaignHandler.List)
		r.Get(handler.RouteCampaigns+handler.RouteSuffixNew, campaignHandler.NewForm)
		r.Post(handler.RouteCampaigns, campaignHandler.Create)
		r.Get(handler.RouteCampaigns+handler.RouteSuffixEdit, campaignHandler.EditForm)
		r.Post(handler.RouteCampaigns+handler.RouteParamID, campaignHandler.Update)
		r.Post(handler.RouteCampaigns+handler.RouteParamID+"/send", campaignHandler.Send)
		r.Post(handler.RouteCampaigns+handler.RouteSuffixDelete, campaignHandler.Delete)
	})

	// JSON API (rate limited; authorization handled by the access gate)
	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())

		r.Post("/auth/login", authHandler.APILogin)
		r.Post("/auth/logout", authHandler.APILogout)
		r.Get("/auth/me", authHandler.APIMe)

		r.Post("/newsletter", newsletterHandler.Subscribe)
		r.Get("/newsletter", newsletterHandler.UnsubscribeLink)
		r.Delete("/newsletter", newsletterHandler.Unsubscribe)

		r.Post("/contact", contactHandler.Submit)

		r.Get("/books", bookAPIHandler.APIBooks)
		r.Get("/books"+handler.RouteParamSlug, bookAPIHandler.APIBookDetail)
		r.Post("/books"+handler.RouteParamID+"/download", bookAPIHandler.Download)

		r.Post("/comments", commentHandler.Create)
		r.Delete("/comments"+handler.RouteParamID, commentHandler.Delete)
	})

	// Public media (covers and featured images only; book files use signed URLs)
	r.Get("/media/*", mediaHandler.Serve)

	// Signed URL downloads for the local storage backend
	if localStore != nil {
		fileHandler := handler.NewFileHandler(localStore)
		r.Get("/files/download", fileHandler.Download)
	}

	// Embedded static assets
	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	staticHandler := middleware.StaticCache(31536000)(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/static/*", staticHandler)

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
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
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
