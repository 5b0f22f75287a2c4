// Package testutil opens throwaway databases and seeds fixtures for
// service and handler tests.
//
// Every call to [NewDB] returns a fresh in-memory SQLite database limited to
// a single connection, so state never leaks between tests. Code under test
// must therefore issue queries inside a transaction through the transaction
// handle only; touching the outer handle from inside a transaction blocks.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eventstudio/eventstudio-api/config"
	"github.com/eventstudio/eventstudio-api/internal/models"
)

// Password is the plaintext password of every user created by [CreateUser].
const Password = "password123"

func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), config.NewGormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Name:     "User " + email,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

// CreateEvent inserts an active event owned by creator, dated tomorrow with
// ten seats at 100. Options adjust the event before insertion.
func CreateEvent(t testing.TB, db *gorm.DB, creator *models.User, opts ...func(*models.Event)) *models.Event {
	t.Helper()

	y, m, d := time.Now().Date()
	event := &models.Event{
		Name:        "Launch Party",
		Date:        time.Date(y, m, d+1, 0, 0, 0, 0, time.Local),
		Time:        "20:00",
		Venue:       "Cairo Opera House",
		Description: "An evening of live music",
		Price:       decimal.NewFromInt(100),
		Seats:       10,
		Tags:        []string{"music"},
		CreatedByID: creator.ID,
	}
	for _, opt := range opts {
		opt(event)
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

func CreateTicket(t testing.TB, db *gorm.DB, event *models.Event, user *models.User, seat string, status models.TicketStatus) *models.Ticket {
	t.Helper()

	ticket := &models.Ticket{
		EventID:    event.ID,
		UserID:     user.ID,
		SeatNumber: seat,
		Price:      event.Price,
		Status:     status,
		QRCode:     "TICKET_" + event.ID.String()[:8] + "_" + seat + "_" + user.ID.String()[:8],
	}
	if err := db.Create(ticket).Error; err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}
