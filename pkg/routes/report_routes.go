package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/chatroom/pkg/http/dto"
	"github.com/jgirmay/chatroom/pkg/http/middleware"
	"github.com/jgirmay/chatroom/pkg/services/moderation"
)

// RegisterReportRoutes registers moderation report routes
func RegisterReportRoutes(router *gin.Engine, svc moderation.Service) {
	router.POST("/reports", createReport(svc))
	router.GET("/users/:userId/reports", listReports(svc))
}

func createReport(svc moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ReportRequest
		if !bindJSON(c, &req) {
			return
		}

		report, err := svc.Report(c.Request.Context(), moderation.ReportInput{
			MessageID:      req.MessageID,
			ReportedUserID: req.ReportedUserID,
			ReportedBy:     req.ReportedBy,
			Reason:         req.Reason,
		})
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, report)
	}
}

func listReports(svc moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}

		reports, err := svc.ReportsAgainst(c.Request.Context(), userID)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, reports)
	}
}
