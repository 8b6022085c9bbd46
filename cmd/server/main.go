package main

import (
	"context"

	"github.com/tandemapp/tandem-server/internal/app"
	"github.com/tandemapp/tandem-server/internal/cache"
	"github.com/tandemapp/tandem-server/internal/config"
	"github.com/tandemapp/tandem-server/internal/db"
	"github.com/tandemapp/tandem-server/internal/logger"
	"github.com/tandemapp/tandem-server/internal/server"
	"github.com/tandemapp/tandem-server/internal/service/admin"
	"github.com/tandemapp/tandem-server/internal/service/couple"
	"github.com/tandemapp/tandem-server/internal/service/feed"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log)

	registrars := []server.Registrar{
		feed.NewRegistrar(appCtx),
		couple.NewRegistrar(appCtx),
		admin.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
