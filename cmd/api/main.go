package main

import (
	"os"
	"os/signal"
	"syscall"

	"gochicken/internal/app"
	"gochicken/internal/ws"
	"gochicken/pkg/config"
	"gochicken/pkg/database"
	"gochicken/pkg/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	// 1. Load Env
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	lg := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	// 2. Setup Database
	db, err := database.Connect(cfg.DB, lg)
	if err != nil {
		lg.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("connect database")
	}
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	if err := app.Migrate(db); err != nil {
		lg.Fatal().Err(err).Msg("migrate schema")
	}

	// 3. Demo data
	if cfg.App.SeedDemo {
		if err := app.SeedDemo(db, lg); err != nil {
			lg.Warn().Err(err).Msg("seed demo data")
		}
	}

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(lg)
	go wsHub.Run()

	// 5. Wiring + routes
	server := app.New(app.Deps{
		DB:                db,
		Hub:               wsHub,
		Log:               lg,
		AppName:           cfg.App.Name,
		LowStockThreshold: cfg.Stock.LowStockThreshold,
	})

	// 6. Graceful Shutdown
	go func() {
		lg.Info().Str("addr", cfg.HTTP.Addr()).Str("env", cfg.App.Env).Msg("http server listening")
		if err := server.Listen(cfg.HTTP.Addr()); err != nil {
			lg.Panic().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info().Msg("shutting down server")
	if err := server.Shutdown(); err != nil {
		lg.Fatal().Err(err).Msg("server forced to shutdown")
	}
	wsHub.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	lg.Info().Msg("server exited")
}
