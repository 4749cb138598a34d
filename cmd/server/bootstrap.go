package main

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jgirmay/chatroom/pkg/config"
	"github.com/jgirmay/chatroom/pkg/logging"
)

// logConfiguration logs the loaded configuration with credentials masked
func logConfiguration(cfg *config.Config, logger *logging.Logger) {
	logger.Info("[INIT] Configuration loaded",
		zap.String("api_addr", cfg.ServerAddr()),
		zap.String("ops_addr", cfg.OpsAddr()),
		zap.String("mode", cfg.Server.Mode),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("database", maskDSN(cfg.GetDatabaseDSN())),
		zap.Duration("online_threshold", cfg.Presence.OnlineThreshold),
		zap.Int("global_limit", cfg.Presence.GlobalLimit),
		zap.Duration("sweep_interval", cfg.Presence.SweepInterval),
		zap.Duration("push_interval", cfg.Presence.PushInterval),
		zap.Bool("nats_bridge", cfg.Events.NATSURL != ""),
	)
}

// maskDSN hides the password in a postgres DSN
func maskDSN(dsn string) string {
	fields := strings.Fields(dsn)
	if len(fields) <= 1 {
		return dsn
	}
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=***"
		}
	}
	return strings.Join(fields, " ")
}

// logRoutes logs the registered API routes at debug level
func logRoutes(router *gin.Engine, logger *logging.Logger) {
	routes := router.Routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	for _, r := range routes {
		logger.Debug("route", zap.String("method", r.Method), zap.String("path", r.Path))
	}
	logger.Info("[INIT] ✓ API routes registered", zap.Int("count", len(routes)))
}
