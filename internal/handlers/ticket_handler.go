package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventstudio/eventstudio-api/internal/helpers"
	"github.com/eventstudio/eventstudio-api/internal/middleware"
	"github.com/eventstudio/eventstudio-api/internal/services"
)

type BookTicketRequest struct {
	EventID       string `json:"eventId"`
	SeatNumber    string `json:"seatNumber"`
	PaymentMethod string `json:"paymentMethod"`
}

type CheckInRequest struct {
	QRCode string `json:"qrCode"`
}

func BookTicket(c *gin.Context) {
	var req BookTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, invalidInput)
		return
	}

	ticket, err := middleware.GetServices(c).Tickets.Book(c.Request.Context(), services.BookingInput{
		EventID:       req.EventID,
		SeatNumber:    req.SeatNumber,
		PaymentMethod: req.PaymentMethod,
	}, middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusCreated, gin.H{
		"message": "Ticket booked successfully",
		"ticket":  ticket,
	})
}

func GetUserTickets(c *gin.Context) {
	tickets, err := middleware.GetServices(c).Tickets.ListForUser(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{"tickets": tickets})
}

func CheckInTicket(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, invalidInput)
		return
	}

	ticket, err := middleware.GetServices(c).Tickets.CheckIn(c.Request.Context(), req.QRCode)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{
		"message": "Check-in successful",
		"ticket":  ticket,
	})
}

func GetAllTickets(c *gin.Context) {
	tickets, err := middleware.GetServices(c).Tickets.ListAll(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{"tickets": tickets})
}

func CancelTicket(c *gin.Context) {
	if err := middleware.GetServices(c).Tickets.Cancel(c.Request.Context(), c.Param("ticketId"), middleware.CurrentUser(c)); err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Ticket cancelled successfully"})
}

func GetTicketQRCode(c *gin.Context) {
	qrImage, err := middleware.GetServices(c).Tickets.QRImage(c.Request.Context(), c.Param("ticketId"), middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}
