package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/chatroom/pkg/http/dto"
	"github.com/jgirmay/chatroom/pkg/http/middleware"
	"github.com/jgirmay/chatroom/pkg/services/messaging"
)

// RegisterMessageRoutes registers private message, conversation and room message routes
func RegisterMessageRoutes(router *gin.Engine, svc messaging.Service) {
	router.GET("/private-conversations/:userId", getConversations(svc))
	router.PUT("/private-messages/mark-as-read", markAsRead(svc))

	router.POST("/private-messages", sendPrivateMessage(svc))
	router.GET("/private-messages/:userId/:otherUserId", getPrivateHistory(svc))

	router.GET("/rooms/:roomId/messages", listRoomMessages(svc))
	router.POST("/rooms/:roomId/messages", postRoomMessage(svc))
}

func getConversations(svc messaging.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}

		conversations, err := svc.Conversations(c.Request.Context(), userID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, conversations)
	}
}

func markAsRead(svc messaging.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.MarkAsReadRequest
		if !bindJSON(c, &req) {
			return
		}

		updated, err := svc.MarkAsRead(c.Request.Context(), req.SenderID, req.ReceiverID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewMarkAsReadResponse(updated))
	}
}

func sendPrivateMessage(svc messaging.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SendPrivateMessageRequest
		if !bindJSON(c, &req) {
			return
		}

		msg, err := svc.SendPrivate(c.Request.Context(), req.SenderID, req.ReceiverID, req.Content)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, msg)
	}
}

func getPrivateHistory(svc messaging.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}
		otherID, ok := pathID(c, "otherUserId")
		if !ok {
			return
		}

		messages, err := svc.History(c.Request.Context(), userID, otherID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, messages)
	}
}

func listRoomMessages(svc messaging.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathID(c, "roomId")
		if !ok {
			return
		}

		messages, err := svc.ListRoom(c.Request.Context(), roomID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, messages)
	}
}

func postRoomMessage(svc messaging.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathID(c, "roomId")
		if !ok {
			return
		}
		var req dto.RoomMessageRequest
		if !bindJSON(c, &req) {
			return
		}

		msg, err := svc.SendToRoom(c.Request.Context(), roomID, req.UserID, req.Content)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, msg)
	}
}
