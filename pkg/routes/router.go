package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/chatroom/pkg/http/handlers"
	"github.com/jgirmay/chatroom/pkg/http/middleware"
	"github.com/jgirmay/chatroom/pkg/logging"
	"github.com/jgirmay/chatroom/pkg/metrics"
	"github.com/jgirmay/chatroom/pkg/services/blocking"
	"github.com/jgirmay/chatroom/pkg/services/directory"
	"github.com/jgirmay/chatroom/pkg/services/messaging"
	"github.com/jgirmay/chatroom/pkg/services/moderation"
	"github.com/jgirmay/chatroom/pkg/services/presence"
)

// Dependencies are the services the API router exposes
type Dependencies struct {
	Presence  presence.Service
	Messaging messaging.Service
	Blocking  blocking.Service
	Directory directory.Service
	Reports   moderation.Service
	WebSocket *handlers.PresenceWebSocketHandlers

	Metrics        *metrics.Metrics
	Logger         *logging.Logger
	RequestTimeout time.Duration
}

// NewRouter builds the API engine with middleware and every route group
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.Metrics(deps.Metrics),
		middleware.Recovery(logger),
		middleware.ErrorHandler(deps.Metrics),
		middleware.Timeout(deps.RequestTimeout),
	)

	if deps.Presence != nil {
		RegisterPresenceRoutes(router, deps.Presence)
	}
	if deps.Messaging != nil {
		RegisterMessageRoutes(router, deps.Messaging)
	}
	if deps.Blocking != nil {
		RegisterBlockRoutes(router, deps.Blocking)
	}
	if deps.Directory != nil {
		RegisterDirectoryRoutes(router, deps.Directory)
	}
	if deps.Reports != nil {
		RegisterReportRoutes(router, deps.Reports)
	}
	if deps.WebSocket != nil {
		RegisterWebSocketRoutes(router, deps.WebSocket)
	}

	return router
}

// RegisterWebSocketRoutes registers push endpoints
func RegisterWebSocketRoutes(router *gin.Engine, h *handlers.PresenceWebSocketHandlers) {
	router.GET("/ws/rooms/:roomId/online", h.HandleRoomOnline)
}
