package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/chatroom/pkg/http/dto"
	"github.com/jgirmay/chatroom/pkg/http/middleware"
	"github.com/jgirmay/chatroom/pkg/services/directory"
)

// RegisterDirectoryRoutes registers profile, room and membership routes
func RegisterDirectoryRoutes(router *gin.Engine, svc directory.Service) {
	// Profiles
	router.POST("/profiles", createProfile(svc))
	router.GET("/profiles/:userId", getProfile(svc))
	router.PUT("/profiles/:userId", updateProfile(svc))
	router.PUT("/profiles/:userId/avatar", updateAvatar(svc))
	router.GET("/users/search", searchUsers(svc))
	router.GET("/users/:userId/rooms", getUserRooms(svc))

	// Rooms
	router.POST("/rooms", createRoom(svc))
	router.GET("/rooms", listRooms(svc))
	router.GET("/rooms/:roomId", getRoom(svc))
	router.POST("/rooms/:roomId/join", joinRoom(svc))
	router.GET("/rooms/:roomId/membership/:userId", getMembership(svc))
	router.GET("/rooms/:roomId/participants", getParticipants(svc))
}

func createProfile(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreateProfileRequest
		if !bindJSON(c, &req) {
			return
		}

		profile, err := svc.Register(c.Request.Context(), directory.ProfileInput{
			Username:  req.Username,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			AvatarURL: req.AvatarURL,
		})
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, profile)
	}
}

func getProfile(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}

		profile, err := svc.GetProfile(c.Request.Context(), userID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

func updateProfile(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}
		var req dto.UpdateProfileRequest
		if !bindJSON(c, &req) {
			return
		}

		profile, err := svc.UpdateProfile(c.Request.Context(), userID, directory.ProfileUpdate{
			Username:  req.Username,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			AvatarURL: req.AvatarURL,
		})
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

func updateAvatar(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}
		var req dto.UpdateAvatarRequest
		if !bindJSON(c, &req) {
			return
		}

		profile, err := svc.UpdateAvatar(c.Request.Context(), userID, req.AvatarURL)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.AvatarResponse{
			Message:   "avatar updated",
			AvatarURL: profile.AvatarURL,
		})
	}
}

func searchUsers(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		exclude, ok := queryID(c, "excludeUserId")
		if !ok {
			return
		}

		profiles, err := svc.Search(c.Request.Context(), c.Query("term"), exclude)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewProfileListResponse(profiles))
	}
}

func getUserRooms(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}

		rooms, err := svc.RoomsForUser(c.Request.Context(), userID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rooms)
	}
}

func createRoom(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreateRoomRequest
		if !bindJSON(c, &req) {
			return
		}

		room, err := svc.CreateRoom(c.Request.Context(), directory.RoomInput{
			Name:        req.Name,
			Description: req.Description,
			CreatedBy:   req.CreatedBy,
		})
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, room)
	}
}

func listRooms(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, err := svc.ListRooms(c.Request.Context())
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rooms)
	}
}

func getRoom(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathID(c, "roomId")
		if !ok {
			return
		}

		room, err := svc.GetRoom(c.Request.Context(), roomID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, room)
	}
}

func joinRoom(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathID(c, "roomId")
		if !ok {
			return
		}
		var req dto.UserRefRequest
		if !bindJSON(c, &req) {
			return
		}

		if err := svc.Join(c.Request.Context(), roomID, req.UserID); err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.StatusResponse{Message: "joined room"})
	}
}

func getMembership(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathID(c, "roomId")
		if !ok {
			return
		}
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}

		member, err := svc.IsMember(c.Request.Context(), roomID, userID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MembershipResponse{RoomID: roomID, UserID: userID, IsMember: member})
	}
}

func getParticipants(svc directory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := pathID(c, "roomId")
		if !ok {
			return
		}

		profiles, err := svc.Participants(c.Request.Context(), roomID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewProfileListResponse(profiles))
	}
}
