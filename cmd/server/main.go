package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jgirmay/chatroom/internal/health"
	"github.com/jgirmay/chatroom/pkg/config"
	"github.com/jgirmay/chatroom/pkg/database"
	"github.com/jgirmay/chatroom/pkg/events"
	"github.com/jgirmay/chatroom/pkg/http/handlers"
	"github.com/jgirmay/chatroom/pkg/logging"
	"github.com/jgirmay/chatroom/pkg/metrics"
	"github.com/jgirmay/chatroom/pkg/repository"
	"github.com/jgirmay/chatroom/pkg/routes"
	"github.com/jgirmay/chatroom/pkg/services/blocking"
	"github.com/jgirmay/chatroom/pkg/services/directory"
	"github.com/jgirmay/chatroom/pkg/services/messaging"
	"github.com/jgirmay/chatroom/pkg/services/moderation"
	"github.com/jgirmay/chatroom/pkg/services/presence"
	wssvc "github.com/jgirmay/chatroom/pkg/services/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Init(logging.LogLevel(cfg.Logging.Level), cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := logging.Get()
	defer logger.Sync()
	logConfiguration(cfg, logger)

	logger.Info("[INIT] Initializing database...", zap.String("driver", cfg.Database.Driver))
	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal("failed to migrate schema", zap.Error(err))
		}
		logger.Info("[INIT] ✓ Schema migrated")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to access connection pool", zap.Error(err))
	}
	logger.Info("[INIT] ✓ Database connection established")

	registry := repository.NewRegistry(db)
	if err := registry.Initialize(); err != nil {
		logger.Fatal("failed to initialize repository registry", zap.Error(err))
	}
	logger.Info("[INIT] ✓ Repository registry initialized")

	m := metrics.New()
	eventBus := events.NewSimpleEventBus(cfg.Events.BufferSize)

	var bridge *events.NATSBridge
	if cfg.Events.NATSURL != "" {
		bridge, err = events.NewNATSBridge(events.NATSConfig{
			URL:           cfg.Events.NATSURL,
			SubjectPrefix: cfg.Events.SubjectPrefix,
			Name:          cfg.Events.ClientName,
			ReconnectWait: cfg.Events.ReconnectWait,
		}, logger)
		if err != nil {
			// presence keeps working without the bridge
			logger.Warn("nats bridge disabled", zap.Error(err))
		} else {
			eventBus.Subscribe(bridge)
			logger.Info("[INIT] ✓ NATS bridge connected", zap.String("url", cfg.Events.NATSURL))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	presenceService := presence.NewPresenceService(registry, eventBus, m, logger, presence.ConfigFrom(cfg.Presence))
	blockService := blocking.NewBlockService(registry, eventBus, logger)
	messageService := messaging.NewMessageService(registry, blockService, eventBus, m, logger)
	directoryService := directory.NewDirectoryService(registry, eventBus, logger)
	reportService := moderation.NewReportService(registry, eventBus, logger)
	logger.Info("[INIT] ✓ Chat services initialized")

	broadcaster := wssvc.NewPresenceBroadcaster(presenceService, cfg.Presence.PushInterval, m, logger)
	broadcaster.Start(ctx)
	eventBus.Subscribe(broadcaster)
	logger.Info("[INIT] ✓ Presence broadcaster started")

	var sweeper *presence.Sweeper
	if cfg.Presence.SweepInterval > 0 {
		sweeper = presence.NewSweeper(registry.PresenceRepository, cfg.Presence.SweepInterval, cfg.Presence.SweepRetention, m, logger)
		sweeper.Start(ctx)
		logger.Info("[INIT] ✓ Presence sweeper started", zap.Duration("interval", cfg.Presence.SweepInterval))
	}

	gin.SetMode(cfg.Server.Mode)
	router := routes.NewRouter(routes.Dependencies{
		Presence:       presenceService,
		Messaging:      messageService,
		Blocking:       blockService,
		Directory:      directoryService,
		Reports:        reportService,
		WebSocket:      handlers.NewPresenceWebSocketHandlers(broadcaster, presenceService, logger),
		Metrics:        m,
		Logger:         logger,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	logRoutes(router, logger)

	server := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	checker := health.NewHealthChecker(sqlDB, broadcaster, eventBus)
	opsServer := &http.Server{
		Addr:         cfg.OpsAddr(),
		Handler:      health.NewOpsRouter(health.NewHealthHandler(checker), m.Handler()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("[INFO] Starting ops server", zap.String("addr", opsServer.Addr))
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ops server error", zap.Error(err))
		}
	}()

	// Graceful shutdown handling
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan

		logger.Info("[SHUTDOWN] Received signal", zap.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("[SHUTDOWN] API server shutdown error", zap.Error(err))
		}
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("[SHUTDOWN] ops server shutdown error", zap.Error(err))
		}

		logger.Info("[SHUTDOWN] Stopping background workers...")
		if sweeper != nil {
			sweeper.Stop()
		}
		broadcaster.Stop()
		cancel()

		logger.Info("[SHUTDOWN] Closing event bus...")
		eventBus.Close()
		if bridge != nil {
			if err := bridge.Close(); err != nil {
				logger.Warn("[SHUTDOWN] nats drain failed", zap.Error(err))
			}
		}

		logger.Info("[SHUTDOWN] Closing database connection...")
		if err := registry.Close(); err != nil {
			logger.Warn("[SHUTDOWN] database close failed", zap.Error(err))
		}

		logger.Info("[SHUTDOWN] ✓ Graceful shutdown complete")
	}()

	logger.Info("[INFO] Starting HTTP server", zap.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server startup error", zap.Error(err))
	}
	<-done
}
