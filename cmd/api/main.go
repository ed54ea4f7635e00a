package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"loyalty-wallet/internal/cache"
	"loyalty-wallet/internal/config"
	"loyalty-wallet/internal/events"
	"loyalty-wallet/internal/handler"
	"loyalty-wallet/internal/logging"
	"loyalty-wallet/internal/middleware"
	"loyalty-wallet/internal/render"
	"loyalty-wallet/internal/repository"
	"loyalty-wallet/internal/router"
	"loyalty-wallet/internal/service"
	"loyalty-wallet/internal/shell"

	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()

	logger := logging.New(cfg.App.Name, cfg.App.Debug || cfg.App.IsDevelopment())
	defer logger.Sync()

	logger.Info("starting wallet daemon",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment))

	// Local card store
	local, err := repository.NewSQLiteLocalStore(cfg.LocalDB.Path, logger)
	if err != nil {
		logger.Fatal("failed to open local store", zap.Error(err))
	}
	defer local.Close()

	// Remote card store (optional)
	remote, err := openRemote(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open remote store", zap.String("type", cfg.Remote.Type), zap.Error(err))
	}
	if remote != nil {
		defer remote.Close()
		logger.Info("remote store initialized", zap.String("type", remote.Name()))
	} else {
		logger.Info("remote store not configured, sync disabled")
	}

	// Sessions and sync latches
	kv, err := openCache(cfg)
	if err != nil {
		logger.Fatal("failed to open cache", zap.String("type", cfg.Cache.Type), zap.Error(err))
	}
	defer kv.Close()

	// Identity and sync events
	bus, err := openBus(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open event bus", zap.String("type", cfg.Events.Type), zap.Error(err))
	}
	defer bus.Close()

	// Services
	storeLock := &sync.Mutex{}

	sessions := service.NewSessionService(service.SessionConfig{
		Cache:       kv,
		Bus:         bus,
		LinkBaseURL: cfg.Auth.LinkBaseURL,
		CodeTTL:     cfg.Auth.CodeTTL,
		SessionTTL:  cfg.Auth.SessionTTL,
		Logger:      logger.Named("session"),
	})

	wallet := service.NewWalletService(local, render.NewPNGEncoder(),
		service.WithDefaultCountry(cfg.App.DefaultCountry),
		service.WithStoreLock(storeLock),
		service.WithLogger(logger.Named("wallet")))

	syncCfg := service.SyncConfig{
		Local:     local,
		Remote:    remote,
		Latch:     kv,
		LatchTTL:  cfg.Auth.SyncLatch,
		Bus:       bus,
		Logger:    logger.Named("sync"),
		StoreLock: storeLock,
	}
	syncer, err := service.NewSyncService(syncCfg)
	if err != nil {
		logger.Fatal("failed to initialize sync", zap.Error(err))
	}
	defer syncer.Close()

	worker, err := shell.WorkerHandler(shell.Manifest{
		Version: cfg.Shell.CacheVersion,
		Assets:  cfg.Shell.Assets,
	})
	if err != nil {
		logger.Fatal("failed to render service worker", zap.Error(err))
	}

	// Create router
	r := router.New(router.Config{
		Handler:           handler.New(cfg.App.Name, cfg.App.Version, local),
		CardHandler:       handler.NewCardHandler(wallet),
		SyncHandler:       handler.NewSyncHandler(syncer),
		AuthHandler:       handler.NewAuthHandler(sessions),
		AdminHandler:      handler.NewAdminHandler(local, remote, cfg.Cache.Type, cfg.Events.Type),
		EventHandler:      handler.NewEventHandler(bus, logger.Named("events")),
		SessionMiddleware: middleware.NewSessionMiddleware(sessions),
		ServiceWorker:     worker,
		StaticDir:         cfg.Shell.StaticDir,
		SignInRateLimit:   cfg.Auth.RateLimit,
		Logger:            logger.Named("http"),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func openRemote(cfg *config.Config, logger *zap.Logger) (repository.RemoteStore, error) {
	log := logger.Named("remote")
	switch cfg.Remote.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return repository.NewMemoryRemoteStore(), nil
	case "postgres", "postgresql":
		return repository.NewPostgresRemoteStore(cfg.Remote.PostgresDSN(), log)
	case "mysql":
		return repository.NewMySQLRemoteStore(cfg.Remote.MySQLDSN(), log)
	case "mongodb", "mongo":
		return repository.NewMongoDBRemoteStore(cfg.Remote.MongoURI, cfg.Remote.MongoDatabase, cfg.Remote.MongoCollection, log)
	case "rest":
		return repository.NewRESTRemoteStore(cfg.Remote.RESTURL, cfg.Remote.RESTAnonKey, cfg.Remote.RESTServiceKey, cfg.Remote.RESTTimeout, log), nil
	default:
		return nil, fmt.Errorf("unknown remote type %q", cfg.Remote.Type)
	}
}

func openCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Type {
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
	case "", "memory":
		return cache.NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Cache.Type)
	}
}

func openBus(cfg *config.Config, logger *zap.Logger) (events.Bus, error) {
	switch cfg.Events.Type {
	case "nats":
		return events.NewNATSBus(events.NATSConfig{
			URL:           cfg.Events.NATSURL,
			Token:         cfg.Events.NATSToken,
			SubjectPrefix: cfg.Events.SubjectPrefix,
		}, logger.Named("events"))
	case "", "local":
		return events.NewLocalBus(), nil
	default:
		return nil, fmt.Errorf("unknown events type %q", cfg.Events.Type)
	}
}
