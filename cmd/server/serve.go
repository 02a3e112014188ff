package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyguideai/internal/api"
	"studyguideai/internal/api/handlers"
	"studyguideai/internal/config"
	"studyguideai/internal/db"
	"studyguideai/internal/gemini"
	"studyguideai/internal/metrics"
	"studyguideai/internal/r2"
	"studyguideai/internal/study"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	gsessions "github.com/gin-contrib/sessions/postgres"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const storeName = "studyguide_session"

func serveCMD() *cobra.Command {
	var port string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			return run(cfg)
		},
	}
	serve.Flags().StringVar(&port, "port", "", "listen port (default is $PORT or 8080)")
	return serve
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var database *db.DB
	if cfg.DatabaseURL != "" {
		var err error
		database, err = db.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
	} else {
		log.Println("WARN: DATABASE_URL not set. Sign-in and saved study materials are disabled.")
	}

	sessionStore, err := newSessionStore(cfg, database)
	if err != nil {
		return err
	}

	var oauthConfig *oauth2.Config
	if cfg.AuthEnabled() {
		oauthConfig = &oauth2.Config{
			RedirectURL:  cfg.Google.RedirectURL,
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	} else {
		log.Println("WARN: Google OAuth or database not configured. Sign-in is disabled.")
	}

	studyStore, err := newStudyStore(ctx, cfg)
	if err != nil {
		return err
	}

	geminiClient := gemini.NewClient(gemini.Options{
		BaseURL:      cfg.Gemini.BaseURL,
		DefaultModel: cfg.Gemini.DefaultModel,
	})
	orchestrator := study.NewOrchestrator(studyStore, geminiClient, cfg.GenerationCooldown, cfg.GenerationTimeout)

	var snapshots handlers.SnapshotUploader
	r2Client, err := r2.NewClient(ctx, cfg.R2)
	if err != nil {
		return err
	}
	if r2Client != nil {
		snapshots = r2Client
	}

	router := gin.Default()
	router.MaxMultipartMemory = handlers.MaxUploadBytes
	router.Use(sessions.Sessions(storeName, sessionStore))

	handler := handlers.NewHandler(oauthConfig, storeName, cfg.FrontendURL, database, geminiClient, studyStore, orchestrator, snapshots)
	api.SetupRoutes(router, handler, cfg.FrontendURL, metrics.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("INFO: Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("INFO: Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("INFO: Server exited properly")
	return nil
}

// newSessionStore keeps cookie sessions in Postgres when a database is
// configured, otherwise in signed cookies.
func newSessionStore(cfg *config.Config, database *db.DB) (sessions.Store, error) {
	secret := []byte(cfg.SessionSecret)
	var store sessions.Store
	if database != nil {
		pgStore, err := gsessions.NewStore(database.SQL, secret)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres session store: %w", err)
		}
		store = pgStore
	} else {
		store = cookie.NewStore(secret)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		Secure:   cfg.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// newStudyStore picks Redis when REDIS_URL is set, otherwise an in-memory
// store swept in the background.
func newStudyStore(ctx context.Context, cfg *config.Config) (study.Store, error) {
	if cfg.RedisURL != "" {
		client, err := study.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		log.Println("INFO: Study sessions stored in Redis")
		return study.NewRedisStore(client, cfg.SessionTTL), nil
	}

	store := study.NewMemoryStore(cfg.SessionTTL)
	go store.RunSweeper(ctx, time.Minute)
	log.Println("INFO: Study sessions stored in memory")
	return store, nil
}
