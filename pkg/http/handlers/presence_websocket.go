package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/http/middleware"
	"github.com/jgirmay/chatroom/pkg/logging"
	wssvc "github.com/jgirmay/chatroom/pkg/services/websocket"
)

// PresenceWebSocketHandlers upgrades clients that watch a room's online set
type PresenceWebSocketHandlers struct {
	broadcaster *wssvc.PresenceBroadcaster
	reader      wssvc.OnlineReader
	logger      *logging.Logger
}

// NewPresenceWebSocketHandlers creates new WebSocket handlers
func NewPresenceWebSocketHandlers(broadcaster *wssvc.PresenceBroadcaster, reader wssvc.OnlineReader, logger *logging.Logger) *PresenceWebSocketHandlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PresenceWebSocketHandlers{
		broadcaster: broadcaster,
		reader:      reader,
		logger:      logger.Named("ws"),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// browser clients are served from other origins; there is no session to protect
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleRoomOnline streams the room's online set
// GET /ws/rooms/:roomId/online
func (h *PresenceWebSocketHandlers) HandleRoomOnline(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("roomId"), 10, 32)
	if err != nil || roomID == 0 {
		middleware.RespondError(c, apperrors.Validation("roomId must be a positive integer").WithDetail("field", "roomId"))
		return
	}

	// reject unknown rooms before upgrading so the client sees a normal 404
	if _, err := h.reader.RoomOnline(c.Request.Context(), uint(roomID)); err != nil {
		middleware.RespondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := h.broadcaster.RegisterClient(conn, uint(roomID))
	h.logger.Debug("websocket connected", zap.String("client_id", client.ID), zap.Uint64("room_id", roomID))
}

// ClientCount reports connected websocket clients
func (h *PresenceWebSocketHandlers) ClientCount() int {
	return h.broadcaster.GetClientCount()
}
