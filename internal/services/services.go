package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/eventstudio/eventstudio-api/internal/helpers"
)

type Options struct {
	JWTSecret []byte
	TokenTTL  time.Duration
	Uploads   helpers.UploadConfig
}

// Services bundles the domain services shared by all request handlers.
type Services struct {
	Auth      *AuthService
	Events    *EventService
	Tickets   *TicketService
	Analytics *AnalyticsService
}

func New(db *gorm.DB, opts Options) *Services {
	return &Services{
		Auth:      NewAuthService(db, opts.JWTSecret, opts.TokenTTL),
		Events:    NewEventService(db, opts.Uploads),
		Tickets:   NewTicketService(db),
		Analytics: NewAnalyticsService(db),
	}
}
