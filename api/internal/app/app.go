// Package app wires the solver, exporter, history and telemetry shared by both binaries.
package app

import (
	"context"
	"database/sql"
	"log"

	"linearsolve/api/internal/config"
	"linearsolve/api/internal/export"
	"linearsolve/api/internal/solver"
	"linearsolve/api/internal/solver/gemini"
	"linearsolve/api/internal/store"
	"linearsolve/api/internal/telemetry"
	"linearsolve/api/internal/workspace"
)

type App struct {
	Config   *config.Config
	Engine   *gemini.Engine
	Metrics  *telemetry.SolveMetrics
	Exporter *export.Exporter
	History  *store.SolveRepo
	DB       *sql.DB
	Sessions *workspace.Store

	closers []func(context.Context) error
}

// New собирает зависимости. История и экспорт необязательны: при ошибке БД сервис
// работает без истории.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:   cfg,
		Engine:   gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		Sessions: workspace.NewStore(),
	}

	if cfg.OTelStdout {
		for _, start := range []func() (func(context.Context) error, error){telemetry.InitTracer, telemetry.InitMeter} {
			shutdown, err := start()
			if err != nil {
				a.Close(ctx)
				return nil, err
			}
			a.closers = append(a.closers, shutdown)
		}
	}
	m, err := telemetry.NewSolveMetrics()
	if err != nil {
		return nil, err
	}
	a.Metrics = m

	if cfg.ExportEnabled {
		a.Exporter = export.New(&export.Chrome{RemoteURL: cfg.ChromeURL}, cfg.ExportTimeout)
	}

	if dsn := store.ResolveDSN(cfg.DatabaseURL); dsn != "" {
		db, err := store.Open(ctx, dsn)
		if err != nil {
			log.Printf("history disabled: %v", err)
		} else {
			repo := store.NewSolveRepo(db)
			if err := repo.Migrate(ctx); err != nil {
				log.Printf("history disabled: migrate: %v", err)
				_ = db.Close()
			} else {
				a.DB, a.History = db, repo
				a.closers = append(a.closers, func(context.Context) error { return db.Close() })
			}
		}
	}
	return a, nil
}

// Solver: движок с трассировкой и метриками; source помечает фронтенд.
func (a *App) Solver(source string) solver.Solver {
	return telemetry.Instrument(a.Engine, a.Metrics, source)
}

func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Printf("close: %v", err)
		}
	}
}
