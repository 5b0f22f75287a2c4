package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type EventStatus string

const (
	EventActive    EventStatus = "active"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

func (s EventStatus) Valid() bool {
	return s == EventActive || s == EventCancelled || s == EventCompleted
}

type Event struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Date        time.Time       `gorm:"not null;index:idx_events_date_status,priority:1" json:"date"`
	Time        string          `gorm:"not null" json:"time"`
	Venue       string          `gorm:"not null" json:"venue"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Seats       int             `gorm:"not null" json:"seats"`
	Booked      int             `gorm:"not null;default:0" json:"booked"`
	Tags        []string        `gorm:"type:text;serializer:json" json:"tags"`
	CreatedByID uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	CreatedBy   *UserSummary    `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`
	Status      EventStatus     `gorm:"type:varchar(16);not null;default:'active';index:idx_events_date_status,priority:2" json:"status"`
	Image       string          `gorm:"not null;default:''" json:"image"`
	CreatedAt   time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = EventActive
	}
	if event.Tags == nil {
		event.Tags = []string{}
	}
	// Stored in UTC so that range filters compare consistently on every driver.
	event.Date = event.Date.UTC()
	return
}

// EventSummary is the read-only view of an event joined into tickets.
type EventSummary struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time,omitempty"`
	Venue       string    `json:"venue"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
}

func (EventSummary) TableName() string {
	return "events"
}
