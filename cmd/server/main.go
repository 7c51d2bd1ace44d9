package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"mosqueconnect/internal/config"
	"mosqueconnect/internal/database"
	"mosqueconnect/internal/handler"
	"mosqueconnect/internal/identity"
	"mosqueconnect/internal/mosque"
	"mosqueconnect/internal/notification"
	"mosqueconnect/internal/onboarding"
	"mosqueconnect/internal/role"
	"mosqueconnect/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("error closing database connection: %v", err)
		}
	}()
	log.Println("database connection established")

	// Run migrations
	migrationsPath := getMigrationsPath()
	if err := db.MigrateUp(migrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	version, dirty, err := db.MigrateVersion(migrationsPath)
	if err != nil {
		log.Printf("WARNING: failed to get migration version: %v", err)
	} else if dirty {
		log.Printf("WARNING: database is in dirty state at version %d - a previous migration failed and manual intervention is required", version)
	} else {
		log.Printf("database migrations complete (version: %d)", version)
	}

	// Domain managers
	users := user.NewManager(user.NewDatastore(db.DB))
	mosques := mosque.NewManager(mosque.NewDatastore(db.DB))
	notifications := notification.NewManager(notification.NewDatastore(db.DB))

	// Identity provider integration
	provider, err := identity.NewClient(cfg.Identity.APIURL, cfg.Identity.APISecretKey)
	if err != nil {
		log.Fatalf("failed to initialize identity client: %v", err)
	}
	sessionVerifier, err := identity.NewVerifier(cfg.Identity.Issuer)
	if err != nil {
		log.Fatalf("failed to initialize session verifier: %v", err)
	}
	webhookVerifier, err := identity.NewWebhookVerifier(cfg.Identity.WebhookSecret)
	if err != nil {
		log.Fatalf("failed to initialize webhook verifier: %v", err)
	}

	// Role resolution and onboarding
	allow := role.NewAllowlist(cfg.SuperAdminEmails)
	resolver := role.NewResolver(users, provider, allow)
	syncer := role.NewSyncer(users, allow)
	router := onboarding.NewRouter(mosques)

	// Set up routes with dependencies
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{
		DB:              db,
		Users:           users,
		Mosques:         mosques,
		Notifications:   notifications,
		Provider:        provider,
		Resolver:        resolver,
		Router:          router,
		Syncer:          syncer,
		SessionVerifier: sessionVerifier,
		WebhookVerifier: webhookVerifier,
		Allowlist:       allow,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal server errors
	serverErr := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		log.Printf("MosqueConnect server starting on :%s (env: %s)", cfg.Port, cfg.Environment)
		serverErr <- server.ListenAndServe()
	}()

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-shutdown:
		log.Printf("received signal %v, initiating graceful shutdown...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		log.Println("waiting for in-flight requests to complete...")
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("graceful shutdown failed: %v, forcing shutdown", err)
			if err := server.Close(); err != nil {
				log.Fatalf("forced shutdown failed: %v", err)
			}
		}

		log.Println("server shutdown complete")
	}
}

// getMigrationsPath returns the path to the migrations directory.
// It checks for the migrations folder relative to the executable or working directory.
func getMigrationsPath() string {
	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		return path
	}

	// Try relative to working directory (for local development)
	if _, err := os.Stat("migrations"); err == nil {
		absPath, _ := filepath.Abs("migrations")
		return absPath
	}

	// Try relative to executable (for Docker)
	execPath, err := os.Executable()
	if err == nil {
		execDir := filepath.Dir(execPath)
		migrationsPath := filepath.Join(execDir, "migrations")
		if _, err := os.Stat(migrationsPath); err == nil {
			return migrationsPath
		}
	}

	return "/app/migrations"
}
