package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketCancelled TicketStatus = "cancelled"
	TicketUsed      TicketStatus = "used"
)

// HeldStatuses are the ticket states that occupy a seat.
var HeldStatuses = []TicketStatus{TicketActive, TicketUsed}

const DefaultPaymentMethod = "credit_card"

type Ticket struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	EventID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_tickets_event_user,priority:1" json:"eventId"`
	Event         *EventSummary   `gorm:"foreignKey:EventID" json:"event,omitempty"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_tickets_event_user,priority:2" json:"userId"`
	User          *UserSummary    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	SeatNumber    string          `gorm:"not null" json:"seatNumber"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Status        TicketStatus    `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	QRCode        string          `gorm:"column:qr_code;not null;uniqueIndex" json:"qrCode"`
	CheckInTime   *time.Time      `json:"checkInTime"`
	PaymentMethod string          `gorm:"not null;default:'credit_card'" json:"paymentMethod"`
	TransactionID string          `gorm:"column:transaction_id" json:"transactionId"`
	CreatedAt     time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	if ticket.Status == "" {
		ticket.Status = TicketActive
	}
	if ticket.PaymentMethod == "" {
		ticket.PaymentMethod = DefaultPaymentMethod
	}
	return
}
