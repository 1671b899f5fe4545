package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/nisshchayarathi/drawing-app/internal/auth"
	"github.com/nisshchayarathi/drawing-app/internal/collab"
	"github.com/nisshchayarathi/drawing-app/internal/config"
	"github.com/nisshchayarathi/drawing-app/internal/db"
	"github.com/nisshchayarathi/drawing-app/internal/discovery"
	"github.com/nisshchayarathi/drawing-app/internal/export"
	"github.com/nisshchayarathi/drawing-app/internal/geom"
	mw "github.com/nisshchayarathi/drawing-app/internal/middleware"
	"github.com/nisshchayarathi/drawing-app/internal/room"
	"github.com/nisshchayarathi/drawing-app/internal/shapes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	queries := db.New(pool)

	measurer, err := geom.NewFontMeasurer()
	if err != nil {
		slog.Error("load font", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	roomHandler := room.NewHandler(room.NewService(queries))

	shapeService := shapes.NewService(queries)
	shapeHandler := shapes.NewHandler(shapeService)

	exportHandler := export.NewHandler(shapeService, measurer)

	hub := collab.NewHub(slog.Default())
	go hub.Run(ctx)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Auth routes (public)
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/signin", authHandler.Signin).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Public reads
	r.HandleFunc("/rooms/{roomId:[0-9]+}/shapes", shapeHandler.List).Methods("GET")
	r.HandleFunc("/rooms/{roomId:[0-9]+}/export.pdf", exportHandler.RoomPDF).Methods("GET")
	r.HandleFunc("/rooms/{slug}", roomHandler.Get).Methods("GET")

	// Authenticated writes
	protected := r.NewRoute().Subrouter()
	protected.Use(authService.RequireUser)
	protected.HandleFunc("/rooms", roomHandler.Create).Methods("POST")
	protected.HandleFunc("/rooms/{roomId}/shapes", shapeHandler.Create).Methods("POST")
	protected.HandleFunc("/shapes/{id}", shapeHandler.Update).Methods("PUT")
	protected.HandleFunc("/shapes/{id}", shapeHandler.Delete).Methods("DELETE")

	// Realtime relay
	r.Handle("/ws", collab.NewHandler(hub, authService, cfg.Origins()))

	var advertiser *discovery.Advertiser
	if cfg.MDNSEnabled {
		advertiser, err = discovery.Advertise(cfg.MDNSInstance, cfg.Port, []string{"path=/ws"})
		if err != nil {
			slog.Warn("mdns advertisement disabled", "error", err)
		}
	}

	// CORS wraps the router so preflight requests are answered before route matching.
	// No WriteTimeout: it would outlive the upgrade and cut relay connections.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mw.CORS(cfg.Origins())(r),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		if advertiser != nil {
			if err := advertiser.Shutdown(); err != nil {
				slog.Warn("stop mdns", "error", err)
			}
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
		cancel()
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
