package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventstudio/eventstudio-api/internal/helpers"
	"github.com/eventstudio/eventstudio-api/internal/middleware"
)

func GetDashboardStats(c *gin.Context) {
	stats, err := middleware.GetServices(c).Analytics.DashboardStats(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}
	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{"stats": stats})
}

func GetAttendeeInsights(c *gin.Context) {
	insights, err := middleware.GetServices(c).Analytics.AttendeeInsights(c.Request.Context(), c.Query("eventId"), middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}
	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{"insights": insights})
}

func GetUserDemographics(c *gin.Context) {
	demographics, err := middleware.GetServices(c).Analytics.UserDemographics(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}
	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{"demographics": demographics})
}

func GetEventPerformance(c *gin.Context) {
	performance, err := middleware.GetServices(c).Analytics.EventPerformance(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}
	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{"performance": performance})
}
