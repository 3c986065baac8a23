package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/harshparashar-me/leadpilot-sub000/internal/application/services"
	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
	"github.com/harshparashar-me/leadpilot-sub000/internal/infrastructure/database"
	"github.com/harshparashar-me/leadpilot-sub000/internal/infrastructure/persistence"
	"github.com/harshparashar-me/leadpilot-sub000/internal/interfaces/rest"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/auth"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/config"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var store ports.RecordStore
	switch cfg.StoreDriver {
	case config.StoreMemory:
		store = persistence.NewMemoryRecordStore()
		log.Println("⚠️  Using in-memory store, data is lost on restart")
	default:
		conn, err := database.Open(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer conn.Close()
		log.Println("✅ Database connection established")

		if err := persistence.EnsureSchema(ctx, conn.DB()); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		store = persistence.NewMySQLRecordStore(conn.DB())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svcMgr := services.NewServiceManager(store, cfg, reg)
	log.Println("🔧 Service manager initialized")
	if err := svcMgr.Start(ctx); err != nil {
		log.Fatalf("Failed to start services: %v", err)
	}

	// A missing secret leaves the API up but every /api call is rejected.
	var tokens *auth.TokenManager
	if cfg.JWTSecret != "" {
		tm, err := auth.NewTokenManager(cfg.JWTSecret, auth.DefaultTokenTTL)
		if err != nil {
			log.Fatalf("Failed to initialize auth: %v", err)
		}
		tokens = tm
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := rest.NewRouter(svcMgr, tokens, reg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	// Drains queued record events before the store closes.
	svcMgr.Stop()
	log.Println("✅ Server exited")
}
