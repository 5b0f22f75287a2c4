package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/eventstudio/eventstudio-api/internal/helpers"
	"github.com/eventstudio/eventstudio-api/internal/middleware"
	"github.com/eventstudio/eventstudio-api/internal/services"
)

type CreateEventRequest struct {
	Name        string           `json:"name"`
	Date        string           `json:"date"`
	Time        string           `json:"time"`
	Venue       string           `json:"venue"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Seats       *helpers.FlexInt `json:"seats"`
	Tags        helpers.TagList  `json:"tags"`
	Image       string           `json:"image"`
}

type UpdateEventRequest struct {
	Name        *string          `json:"name"`
	Date        *string          `json:"date"`
	Time        *string          `json:"time"`
	Venue       *string          `json:"venue"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Seats       *helpers.FlexInt `json:"seats"`
	Tags        *helpers.TagList `json:"tags"`
	Status      *string          `json:"status"`
	Image       *string          `json:"image"`
}

func flexIntPtr(n *helpers.FlexInt) *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

func CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, invalidInput)
		return
	}

	event, err := middleware.GetServices(c).Events.Create(c.Request.Context(), services.CreateEventInput{
		Name:        req.Name,
		Date:        req.Date,
		Time:        req.Time,
		Venue:       req.Venue,
		Description: req.Description,
		Price:       req.Price,
		Seats:       flexIntPtr(req.Seats),
		Tags:        req.Tags,
		Image:       req.Image,
	}, middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusCreated, gin.H{
		"message": "Event created successfully",
		"event":   event,
	})
}

func ListEvents(c *gin.Context) {
	pagination, err := helpers.ParsePagination(c.Query("page"), c.Query("limit"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := middleware.GetServices(c).Events.List(c.Request.Context(), services.EventFilter{
		Status:     c.Query("status"),
		Search:     c.Query("search"),
		Pagination: pagination,
	})
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	respondWithEventPage(c, page)
}

func ListUserEvents(c *gin.Context) {
	pagination, err := helpers.ParsePagination(c.Query("page"), c.Query("limit"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := middleware.GetServices(c).Events.ListByCreator(c.Request.Context(), middleware.CurrentUser(c), pagination)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	respondWithEventPage(c, page)
}

func respondWithEventPage(c *gin.Context, page *services.EventPage) {
	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{
		"events":      page.Events,
		"totalPages":  page.TotalPages,
		"currentPage": page.CurrentPage,
		"totalEvents": page.TotalEvents,
	})
}

func GetEvent(c *gin.Context) {
	event, err := middleware.GetServices(c).Events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{"event": event})
}

func UpdateEvent(c *gin.Context) {
	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, invalidInput)
		return
	}

	patch := services.EventPatch{
		Name:        req.Name,
		Date:        req.Date,
		Time:        req.Time,
		Venue:       req.Venue,
		Description: req.Description,
		Price:       req.Price,
		Seats:       flexIntPtr(req.Seats),
		Status:      req.Status,
		Image:       req.Image,
	}
	if req.Tags != nil {
		tags := []string(*req.Tags)
		patch.Tags = &tags
	}

	event, err := middleware.GetServices(c).Events.Update(c.Request.Context(), c.Param("id"), patch, middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{
		"message": "Event updated successfully",
		"event":   event,
	})
}

func DeleteEvent(c *gin.Context) {
	if err := middleware.GetServices(c).Events.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c)); err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func UploadEventImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Image file is required")
		return
	}

	event, err := middleware.GetServices(c).Events.UploadImage(c.Request.Context(), c.Param("id"), file, middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{
		"message": "Event image uploaded successfully",
		"event":   event,
	})
}
