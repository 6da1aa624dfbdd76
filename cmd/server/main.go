package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/config"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/db"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/middleware"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/server"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	reconcileFlag   = flag.String("reconcile", "", "Run batch reconciliation for a collection (factures|paiements) and exit")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	if *migrateOnlyFlag {
		if _, err := db.ConnectAndMigrate(); err != nil {
			log.Fatalf("migrate-only failed: %v", err)
		}
		log.Println("migrations completed; exiting as requested")
		return
	}

	cfg := config.Load()
	dbConn, err := db.ConnectAndMigrate()
	if err != nil {
		log.Fatalf("Erreur connexion DB: %v", err)
	}

	single := store.RetryOptions{
		MaxRetries:        cfg.MaxRetries,
		Timeout:           cfg.Timeout,
		RetryDelay:        cfg.RetryDelay,
		BackoffMultiplier: cfg.BackoffMultiplier,
	}
	batch := single
	batch.Timeout = cfg.BatchTimeout
	st := store.NewWithOptions(dbConn, single, batch)

	if *reconcileFlag != "" {
		runReconcile(st, *reconcileFlag)
		return
	}

	log.Printf("Starting server env=%s port=%s", cfg.Env, cfg.Port)

	monitor := middleware.NewMonitor(time.Minute, func(requests, errors uint64) {
		log.Printf("monitor: requests=%d errors=%d", requests, errors)
	})
	monitor.Start()
	defer monitor.Stop()

	handler := server.New(st, server.Options{Monitor: monitor})
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
