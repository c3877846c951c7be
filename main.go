package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"seoulfest/api"
	"seoulfest/config"
	"seoulfest/handlers"
	"seoulfest/internal/database"
	"seoulfest/services/accounts"
	"seoulfest/services/backup"
	"seoulfest/services/catalog"
	"seoulfest/services/chat"
	"seoulfest/services/likes"
	"seoulfest/services/seoulapi"
	"seoulfest/services/sessions"
	"seoulfest/utils"
)

func main() {
	cfg := config.Load()

	if cfg.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}))
	}

	db, err := database.NewDB(database.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		log.Fatalf("[main] open database: %v", err)
	}
	defer db.Close()

	likeRepo := database.NewLikeRepository(db.Connection())
	conversationRepo := database.NewConversationRepository(db.Connection())

	accountsSvc, err := accounts.NewService(cfg.DataDir)
	if err != nil {
		log.Fatalf("[main] accounts service: %v", err)
	}

	sessionsSvc, err := sessions.NewService(cfg.DataDir, sessions.DefaultSessionDuration)
	if err != nil {
		log.Fatalf("[main] sessions service: %v", err)
	}

	backupSvc, err := backup.NewService(cfg.DataDir, cfg.BackupRetention)
	if err != nil {
		log.Fatalf("[main] backup service: %v", err)
	}

	apiClient := seoulapi.NewClient(cfg.SeoulAPIBaseURL, cfg.SeoulAPIKey, cfg.SeoulAPIService, cfg.SeoulAPIPageSize)
	catalogSvc := catalog.New(apiClient)
	likesSvc := likes.New(likeRepo)
	chatSvc := chat.New(nil, nil)

	// First snapshot before serving; a failed fetch is logged and retried by
	// the background loop.
	func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := catalogSvc.Refresh(ctx); err != nil {
			log.Printf("[main] initial catalog refresh failed: %v", err)
		}
	}()
	catalogSvc.StartBackgroundRefresh(cfg.RefreshInterval)

	eventsHandler := handlers.NewEventsHandler(catalogSvc)
	likesHandler := handlers.NewLikesHandler(likesSvc, catalogSvc)
	chatHandler := handlers.NewChatHandler(chatSvc, catalogSvc, conversationRepo)
	authHandler := handlers.NewAuthHandler(accountsSvc, sessionsSvc, likesSvc)
	backupHandler := handlers.NewBackupHandler(backupSvc)

	chatLimiter := api.NewIPRateLimiter(rate.Every(2*time.Second), 5)

	utils.AllowOrigins(cfg.AllowedOrigins...)
	router := utils.NewRouter()

	public := router.PathPrefix("/api/v1").Subrouter()
	public.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	public.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	public.HandleFunc("/events", eventsHandler.List).Methods(http.MethodGet)
	public.HandleFunc("/events/calendar", eventsHandler.Calendar).Methods(http.MethodGet)
	public.HandleFunc("/events/categories", eventsHandler.Categories).Methods(http.MethodGet)
	public.HandleFunc("/events/status", eventsHandler.Status).Methods(http.MethodGet)
	public.HandleFunc("/events/refresh", eventsHandler.Refresh).Methods(http.MethodPost)
	public.HandleFunc("/events/{id}", eventsHandler.Get).Methods(http.MethodGet)

	authed := router.PathPrefix("/api/v1").Subrouter()
	authed.Use(api.SessionAuthMiddleware(sessionsSvc))
	authed.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	authed.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	authed.HandleFunc("/events/liked/all", likesHandler.ListLiked).Methods(http.MethodGet)
	authed.HandleFunc("/events/{id}/like", likesHandler.Like).Methods(http.MethodPost)
	authed.HandleFunc("/events/{id}/like", likesHandler.Unlike).Methods(http.MethodDelete)
	authed.HandleFunc("/events/{id}/like/toggle", likesHandler.Toggle).Methods(http.MethodPost)
	authed.HandleFunc("/events/{id}/is-liked", likesHandler.IsLiked).Methods(http.MethodGet)
	authed.HandleFunc("/chat", api.RateLimitHandlerFunc(chatLimiter, chatHandler.Handle)).Methods(http.MethodPost)
	authed.HandleFunc("/chat/{id}", chatHandler.History).Methods(http.MethodGet)
	authed.HandleFunc("/backups", backupHandler.Create).Methods(http.MethodPost)
	authed.HandleFunc("/backups", backupHandler.List).Methods(http.MethodGet)
	authed.HandleFunc("/backups/{filename}", backupHandler.Delete).Methods(http.MethodDelete)
	authed.HandleFunc("/backups/{filename}/restore", backupHandler.Restore).Methods(http.MethodPost)
	authed.HandleFunc("/backups/{filename}/download", backupHandler.Download).Methods(http.MethodGet)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[main] listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		log.Println("[main] shutting down")
	case err := <-errCh:
		log.Fatalf("[main] server error: %v", err)
	}

	catalogSvc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] server shutdown: %v", err)
	}

	log.Println("[main] stopped")
}
