package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/pumphouse/salesfeed/internal/auth"
	"github.com/pumphouse/salesfeed/internal/config"
	"github.com/pumphouse/salesfeed/internal/db"
	"github.com/pumphouse/salesfeed/internal/directory"
	"github.com/pumphouse/salesfeed/internal/feed"
	"github.com/pumphouse/salesfeed/internal/ingestion"
	"github.com/pumphouse/salesfeed/internal/merge"
	"github.com/pumphouse/salesfeed/internal/middleware"
	"github.com/pumphouse/salesfeed/internal/repository"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	policy, err := merge.ParsePolicy(cfg.MergePolicy)
	if err != nil {
		log.Fatalf("Invalid merge policy: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	factRepo := repository.NewSalesFactRepository(conn)
	storeRepo := repository.NewStoreDirectoryRepository(conn)
	logRepo := repository.NewIngestionLogRepository(conn)

	// Create the pipeline
	engine := merge.NewEngine(factRepo, policy)
	ingestService := ingestion.NewService(cfg.TargetBrand, engine, logRepo)

	ingestHandler := ingestion.NewHTTPHandler(ingestService, logRepo)
	directoryHandler := directory.NewHTTPHandler(directory.NewLoader(storeRepo))
	feedHandler := feed.NewHTTPHandler(factRepo)
	adminGate := auth.NewTokenGate(cfg.AdminToken)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.LoggingMiddleware)
	router.Use(corsHandler.Handler)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.Middleware(adminGate))
		r.Post("/ingest", ingestHandler.HandleUpload)
		r.Post("/ingest/url", ingestHandler.HandleURL)
		r.Post("/stores", directoryHandler.HandleUpload)
		r.Get("/ingestions", ingestHandler.HandleLogs)
	})

	router.Route("/api", func(r chi.Router) {
		r.Get("/facts", feedHandler.HandleList)
		r.Get("/facts.csv", feedHandler.HandleCSV)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting sales ingestion server on %s", cfg.ListenAddr)
		log.Printf("Upload endpoint available at POST %s/admin/ingest", cfg.ListenAddr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
