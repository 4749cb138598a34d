package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/chatroom/pkg/http/dto"
	"github.com/jgirmay/chatroom/pkg/http/middleware"
	"github.com/jgirmay/chatroom/pkg/services/blocking"
)

// RegisterBlockRoutes registers block relation routes
func RegisterBlockRoutes(router *gin.Engine, svc blocking.Service) {
	router.POST("/block-user", blockUser(svc))
	router.POST("/unblock-user", unblockUser(svc))
	router.GET("/users/:userId/blocked", listBlocked(svc))
}

func blockUser(svc blocking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.BlockRequest
		if !bindJSON(c, &req) {
			return
		}

		block, err := svc.Block(c.Request.Context(), req.BlockerID, req.BlockedID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, block)
	}
}

func unblockUser(svc blocking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.BlockRequest
		if !bindJSON(c, &req) {
			return
		}

		if err := svc.Unblock(c.Request.Context(), req.BlockerID, req.BlockedID); err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.StatusResponse{Message: "user unblocked"})
	}
}

func listBlocked(svc blocking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}

		profiles, err := svc.ListBlocked(c.Request.Context(), userID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewProfileListResponse(profiles))
	}
}
