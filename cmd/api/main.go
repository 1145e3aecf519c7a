package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldscope.io/internal/auth"
	"fieldscope.io/internal/httpapi"
	"fieldscope.io/internal/obs"
	"fieldscope.io/internal/store/memstore"
	"fieldscope.io/internal/store/pg"
)

var version = "0.3.1"

func main() {
	obs.Init()

	addr := os.Getenv("FIELDSCOPE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	baseURL := os.Getenv("FIELDSCOPE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	var opts []httpapi.Option
	if raw := os.Getenv("FIELDSCOPE_SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("parse FIELDSCOPE_SESSION_TTL: %v", err)
		}
		opts = append(opts, httpapi.WithSessionTTL(ttl))
	}

	// Without a DSN the service runs on the in-memory store, which is
	// enough for local development and smoke tests.
	var (
		store   auth.Store
		pgStore *pg.Store
	)
	if dsn := os.Getenv("FIELDSCOPE_PG_DSN"); dsn != "" {
		var err error
		pgStore, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		store = pgStore
	} else {
		log.Println("FIELDSCOPE_PG_DSN not set, using in-memory store")
		store = memstore.New()
	}

	api := httpapi.New(store, version, baseURL, opts...)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting fieldscope-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}
