package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"linearsolve/api/internal/app"
	"linearsolve/api/internal/config"
	"linearsolve/api/internal/handle"
	"linearsolve/api/internal/httpserver"
)

const (
	sessionIdle = 6 * time.Hour
	sweepEvery  = 15 * time.Minute
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close(context.Background())

	opts := handle.Options{
		Sessions: a.Sessions,
		Web:      a.Solver("web"),
		API:      a.Solver("api"),
		Exporter: a.Exporter,
		Model:    cfg.GeminiModel,
	}
	// typed-nil в интерфейсе сломал бы проверки на nil
	if a.History != nil {
		opts.History = a.History
	}
	if a.DB != nil {
		opts.DB = a.DB
	}
	h := handle.New(opts)

	mux := http.NewServeMux()
	h.Register(mux)

	go sweepSessions(ctx, a)

	addr := ":" + cfg.Port
	log.Printf("linearsolve: model=%s export=%v history=%v", cfg.GeminiModel, a.Exporter != nil, a.History != nil)
	if err := httpserver.Run(ctx, addr, mux); err != nil {
		log.Fatal(err)
	}
}

func sweepSessions(ctx context.Context, a *app.App) {
	t := time.NewTicker(sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.Sessions.Sweep(sessionIdle); n > 0 {
				log.Printf("sessions: swept %d idle", n)
			}
		}
	}
}
