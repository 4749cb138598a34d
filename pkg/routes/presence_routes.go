package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/chatroom/pkg/http/dto"
	"github.com/jgirmay/chatroom/pkg/http/middleware"
	"github.com/jgirmay/chatroom/pkg/services/presence"
)

// RegisterPresenceRoutes registers heartbeat and online-set routes
func RegisterPresenceRoutes(router *gin.Engine, svc presence.Service) {
	// Room scope
	router.POST("/rooms/:roomId/presence", roomHeartbeat(svc))
	router.DELETE("/rooms/:roomId/presence", leaveRoom(svc))
	router.GET("/rooms/:roomId/online-participants", getOnlineParticipants(svc))

	// Global scope
	router.POST("/presence", globalHeartbeat(svc))
	router.DELETE("/presence", goOffline(svc))
	router.GET("/online-users", getOnlineUsers(svc))
}

func roomHeartbeat(svc presence.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathID(c, "roomId")
		if !ok {
			return
		}
		var req dto.UserRefRequest
		if !bindJSON(c, &req) {
			return
		}

		if err := svc.Heartbeat(c.Request.Context(), roomID, req.UserID); err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.StatusResponse{Message: "presence updated"})
	}
}

// leaveRoom handles DELETE /rooms/:roomId/presence.
// It returns 200 whether or not the user had a presence row; 404 only means the room or user does not exist.
func leaveRoom(svc presence.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathID(c, "roomId")
		if !ok {
			return
		}
		var req dto.UserRefRequest
		if !bindJSON(c, &req) {
			return
		}

		if err := svc.Leave(c.Request.Context(), roomID, req.UserID); err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.StatusResponse{Message: "presence removed"})
	}
}

func getOnlineParticipants(svc presence.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathID(c, "roomId")
		if !ok {
			return
		}

		online, err := svc.RoomOnline(c.Request.Context(), roomID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, online)
	}
}

func globalHeartbeat(svc presence.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.UserRefRequest
		if !bindJSON(c, &req) {
			return
		}

		if err := svc.GlobalHeartbeat(c.Request.Context(), req.UserID); err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.StatusResponse{Message: "online"})
	}
}

func goOffline(svc presence.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.UserRefRequest
		if !bindJSON(c, &req) {
			return
		}

		if err := svc.GoOffline(c.Request.Context(), req.UserID); err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.StatusResponse{Message: "offline"})
	}
}

func getOnlineUsers(svc presence.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		exclude, ok := queryID(c, "exclude")
		if !ok {
			return
		}

		users, err := svc.GlobalOnline(c.Request.Context(), exclude)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}
