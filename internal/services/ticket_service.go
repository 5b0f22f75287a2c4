package services

import (
	"context"
	"crypto/rand"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventstudio/eventstudio-api/internal/apperr"
	"github.com/eventstudio/eventstudio-api/internal/helpers"
	"github.com/eventstudio/eventstudio-api/internal/models"
	"github.com/eventstudio/eventstudio-api/internal/monitoring"
	"github.com/eventstudio/eventstudio-api/internal/policy"
)

type TicketService struct {
	DB       *gorm.DB
	Location *time.Location
	Now      func() time.Time
}

func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{DB: db, Location: time.Local, Now: time.Now}
}

type BookingInput struct {
	EventID       string
	SeatNumber    string
	PaymentMethod string
}

// BookedTicket is the confirmation returned after a successful booking.
type BookedTicket struct {
	ID         uuid.UUID           `json:"id"`
	EventName  string              `json:"eventName"`
	EventDate  time.Time           `json:"eventDate"`
	Venue      string              `json:"venue"`
	SeatNumber string              `json:"seatNumber"`
	Price      decimal.Decimal     `json:"price"`
	QRCode     string              `json:"qrCode"`
	Status     models.TicketStatus `json:"status"`
}

type CheckedInTicket struct {
	ID          uuid.UUID `json:"id"`
	EventName   string    `json:"eventName"`
	SeatNumber  string    `json:"seatNumber"`
	CheckInTime time.Time `json:"checkInTime"`
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Bytes at or above this bound are redrawn so every character is equally likely.
const base36Bound = 256 - 256%len(base36)

func randomBase36(length int) (string, error) {
	code := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(code) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= base36Bound {
				continue
			}
			code = append(code, base36[int(b)%len(base36)])
			if len(code) == length {
				break
			}
		}
	}
	return string(code), nil
}

// GenerateTicketCode returns the QR token printed on a ticket.
func GenerateTicketCode(now time.Time) (string, error) {
	suffix, err := randomBase36(5)
	if err != nil {
		return "", err
	}
	return strings.ToUpper("TICKET_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + suffix), nil
}

func GenerateTransactionID(now time.Time) (string, error) {
	suffix, err := randomBase36(9)
	if err != nil {
		return "", err
	}
	return "TXN_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix, nil
}

func (s *TicketService) Book(ctx context.Context, in BookingInput, user *models.User) (result *BookedTicket, err error) {
	defer func() { monitoring.TrackTicketOperation(monitoring.OperationBook, err) }()

	if user == nil {
		return nil, apperr.Auth("Access denied. No token provided.")
	}
	seat := strings.TrimSpace(in.SeatNumber)
	if strings.TrimSpace(in.EventID) == "" || seat == "" {
		return nil, apperr.Validation("Event ID and seat number are required")
	}
	eventID, err := uuid.Parse(strings.TrimSpace(in.EventID))
	if err != nil {
		return nil, apperr.NotFound("Event not found")
	}
	paymentMethod := strings.TrimSpace(in.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = models.DefaultPaymentMethod
	}

	now := s.Now()
	qrCode, err := GenerateTicketCode(now)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	transactionID, err := GenerateTransactionID(now)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var event models.Event
	var ticket models.Ticket
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The row lock serializes bookings per event on Postgres.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Event not found")
			}
			return err
		}

		var held int64
		if err := tx.Model(&models.Ticket{}).
			Where("event_id = ? AND seat_number = ? AND status IN ?", event.ID, seat, models.HeldStatuses).
			Count(&held).Error; err != nil {
			return err
		}
		if held > 0 {
			return apperr.Conflict("Seat already booked")
		}

		if err := tx.Model(&models.Ticket{}).
			Where("event_id = ? AND user_id = ? AND status IN ?", event.ID, user.ID, models.HeldStatuses).
			Count(&held).Error; err != nil {
			return err
		}
		if held > 0 {
			return apperr.Conflict("You already have a ticket for this event")
		}

		if event.Booked >= event.Seats {
			return apperr.Capacity("Event is sold out")
		}
		res := tx.Model(&models.Event{}).
			Where("id = ? AND booked < seats", event.ID).
			UpdateColumn("booked", gorm.Expr("booked + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Capacity("Event is sold out")
		}

		ticket = models.Ticket{
			EventID:       event.ID,
			UserID:        user.ID,
			SeatNumber:    seat,
			Price:         event.Price,
			Status:        models.TicketActive,
			QRCode:        qrCode,
			PaymentMethod: paymentMethod,
			TransactionID: transactionID,
		}
		return tx.Omit(clause.Associations).Create(&ticket).Error
	})
	if err != nil {
		return nil, asAppError(err)
	}

	return &BookedTicket{
		ID:         ticket.ID,
		EventName:  event.Name,
		EventDate:  event.Date,
		Venue:      event.Venue,
		SeatNumber: ticket.SeatNumber,
		Price:      ticket.Price,
		QRCode:     ticket.QRCode,
		Status:     ticket.Status,
	}, nil
}

// ListForUser returns the user's tickets, newest first.
func (s *TicketService) ListForUser(ctx context.Context, user *models.User) ([]models.Ticket, error) {
	if user == nil {
		return nil, apperr.Auth("Access denied. No token provided.")
	}
	tickets := []models.Ticket{}
	err := s.DB.WithContext(ctx).
		Preload("Event", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "date", "time", "venue", "description", "image")
		}).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tickets, nil
}

func (s *TicketService) CheckIn(ctx context.Context, qrCode string) (result *CheckedInTicket, err error) {
	defer func() { monitoring.TrackTicketOperation(monitoring.OperationCheckIn, err) }()

	qrCode = strings.TrimSpace(qrCode)
	if qrCode == "" {
		return nil, apperr.Validation("QR code is required")
	}

	db := s.DB.WithContext(ctx)

	var ticket models.Ticket
	if err := db.First(&ticket, "qr_code = ?", qrCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Invalid QR code")
		}
		return nil, apperr.Internal(err)
	}
	if err := checkInAllowed(ticket.Status); err != nil {
		return nil, err
	}

	var event models.Event
	if err := db.First(&event, "id = ?", ticket.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Event not found")
		}
		return nil, apperr.Internal(err)
	}

	now := s.Now()
	if !helpers.SameDay(event.Date, now, s.Location) {
		return nil, apperr.Validation("Event is not today")
	}

	checkInTime := now.UTC()
	res := db.Model(&models.Ticket{}).
		Where("id = ? AND status = ?", ticket.ID, models.TicketActive).
		Updates(map[string]interface{}{
			"status":        models.TicketUsed,
			"check_in_time": checkInTime,
		})
	if res.Error != nil {
		return nil, apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("Ticket already used")
	}

	return &CheckedInTicket{
		ID:          ticket.ID,
		EventName:   event.Name,
		SeatNumber:  ticket.SeatNumber,
		CheckInTime: checkInTime,
	}, nil
}

func checkInAllowed(status models.TicketStatus) error {
	switch status {
	case models.TicketCancelled:
		return apperr.Conflict("Ticket is cancelled")
	case models.TicketUsed:
		return apperr.Conflict("Ticket already used")
	}
	return nil
}

// ListAll returns every ticket with event and holder summaries. Admin only.
func (s *TicketService) ListAll(ctx context.Context, requester *models.User) ([]models.Ticket, error) {
	if err := policy.RequireAdmin(requester); err != nil {
		return nil, err
	}
	tickets := []models.Ticket{}
	err := s.DB.WithContext(ctx).
		Preload("Event", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "date", "venue")
		}).
		Preload("User").
		Order("created_at DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tickets, nil
}

func (s *TicketService) Cancel(ctx context.Context, ticketID string, requester *models.User) (err error) {
	defer func() { monitoring.TrackTicketOperation(monitoring.OperationCancel, err) }()

	if requester == nil {
		return apperr.Auth("Access denied. No token provided.")
	}
	id, err := uuid.Parse(ticketID)
	if err != nil {
		return apperr.NotFound("Ticket not found")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ticket models.Ticket
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ticket, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Ticket not found")
			}
			return err
		}
		if err := policy.OwnerOrAdmin(requester, ticket.UserID, "Access denied"); err != nil {
			return err
		}

		switch ticket.Status {
		case models.TicketCancelled:
			return apperr.Conflict("Ticket already cancelled")
		case models.TicketUsed:
			return apperr.Conflict("Cannot cancel used ticket")
		}

		res := tx.Model(&models.Ticket{}).
			Where("id = ? AND status = ?", ticket.ID, models.TicketActive).
			Update("status", models.TicketCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Ticket already cancelled")
		}

		return tx.Model(&models.Event{}).
			Where("id = ? AND booked > 0", ticket.EventID).
			UpdateColumn("booked", gorm.Expr("booked - ?", 1)).Error
	})
	return asAppError(err)
}

// QRImage renders the ticket's QR token as a PNG for its holder or an admin.
func (s *TicketService) QRImage(ctx context.Context, ticketID string, requester *models.User) ([]byte, error) {
	if requester == nil {
		return nil, apperr.Auth("Access denied. No token provided.")
	}
	id, err := uuid.Parse(ticketID)
	if err != nil {
		return nil, apperr.NotFound("Ticket not found")
	}

	var ticket models.Ticket
	if err := s.DB.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Ticket not found")
		}
		return nil, apperr.Internal(err)
	}
	if err := policy.OwnerOrAdmin(requester, ticket.UserID, "Access denied"); err != nil {
		return nil, err
	}

	png, err := helpers.EncodeQRCodePNG(ticket.QRCode)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return png, nil
}

// asAppError passes typed errors through and wraps anything else as internal.
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Internal(err)
}
