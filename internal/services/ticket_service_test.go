package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventstudio/eventstudio-api/internal/apperr"
	"github.com/eventstudio/eventstudio-api/internal/models"
	"github.com/eventstudio/eventstudio-api/internal/testutil"
)

func reloadEvent(t *testing.T, f *fixture, event *models.Event) models.Event {
	t.Helper()
	var stored models.Event
	require.NoError(t, f.db.First(&stored, "id = ?", event.ID).Error)
	return stored
}

func countTickets(t *testing.T, f *fixture, event *models.Event) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Ticket{}).Where("event_id = ?", event.ID).Count(&n).Error)
	return n
}

func TestGenerateCodes(t *testing.T) {
	now := time.UnixMilli(1767225600000)

	code, err := GenerateTicketCode(now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^TICKET_[0-9A-Z]+_[0-9A-Z]{5}$`), code)
	assert.Contains(t, code, "_MJUOHS00_")

	txn, err := GenerateTransactionID(now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^TXN_1767225600000_[0-9a-z]{9}$`), txn)
}

func TestRandomBase36(t *testing.T) {
	assert.Equal(t, 252, base36Bound)
	for i := 0; i < 200; i++ {
		code, err := randomBase36(9)
		require.NoError(t, err)
		require.Len(t, code, 9)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(base36, r), "unexpected character %q", r)
		}
	}
}

func TestBookLastSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) { e.Seats = 1 })

	booked, err := f.tickets.Book(ctx, BookingInput{EventID: event.ID.String(), SeatNumber: "A1"}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "A1", booked.SeatNumber)
	assert.Equal(t, event.Name, booked.EventName)
	assert.Equal(t, models.TicketActive, booked.Status)
	assert.True(t, booked.Price.Equal(event.Price))
	assert.Equal(t, 1, reloadEvent(t, f, event).Booked)

	var ticket models.Ticket
	require.NoError(t, f.db.First(&ticket, "id = ?", booked.ID).Error)
	assert.Equal(t, models.DefaultPaymentMethod, ticket.PaymentMethod)
	assert.NotEmpty(t, ticket.TransactionID)
	assert.Equal(t, booked.QRCode, ticket.QRCode)

	_, err = f.tickets.Book(ctx, BookingInput{EventID: event.ID.String(), SeatNumber: "A1"}, f.bob)
	assertKind(t, err, apperr.KindConflict, "Seat already booked")

	_, err = f.tickets.Book(ctx, BookingInput{EventID: event.ID.String(), SeatNumber: "A2"}, f.bob)
	assertKind(t, err, apperr.KindCapacity, "Event is sold out")

	assert.Equal(t, int64(1), countTickets(t, f, event))
	assert.Equal(t, 1, reloadEvent(t, f, event).Booked)
}

func TestBookRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, f.admin)

	_, err := f.tickets.Book(ctx, BookingInput{SeatNumber: "A1"}, f.alice)
	assertKind(t, err, apperr.KindValidation)

	_, err = f.tickets.Book(ctx, BookingInput{EventID: event.ID.String(), SeatNumber: " "}, f.alice)
	assertKind(t, err, apperr.KindValidation)

	_, err = f.tickets.Book(ctx, BookingInput{EventID: "00000000-0000-0000-0000-000000000001", SeatNumber: "A1"}, f.alice)
	assertKind(t, err, apperr.KindNotFound, "Event not found")

	_, err = f.tickets.Book(ctx, BookingInput{EventID: event.ID.String(), SeatNumber: "A1", PaymentMethod: "cash"}, f.alice)
	require.NoError(t, err)

	_, err = f.tickets.Book(ctx, BookingInput{EventID: event.ID.String(), SeatNumber: "A2"}, f.alice)
	assertKind(t, err, apperr.KindConflict, "You already have a ticket for this event")

	noSeats := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) { e.Seats = 0 })
	_, err = f.tickets.Book(ctx, BookingInput{EventID: noSeats.ID.String(), SeatNumber: "A1"}, f.bob)
	assertKind(t, err, apperr.KindCapacity)
	assert.Zero(t, countTickets(t, f, noSeats))
}

func TestCancelledSeatCanBeRebooked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) { e.Seats = 1 })

	first, err := f.tickets.Book(ctx, BookingInput{EventID: event.ID.String(), SeatNumber: "A1"}, f.alice)
	require.NoError(t, err)
	require.NoError(t, f.tickets.Cancel(ctx, first.ID.String(), f.alice))
	assert.Equal(t, 0, reloadEvent(t, f, event).Booked)

	_, err = f.tickets.Book(ctx, BookingInput{EventID: event.ID.String(), SeatNumber: "A1"}, f.bob)
	require.NoError(t, err)
	assert.Equal(t, 1, reloadEvent(t, f, event).Booked)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) { e.Booked = 2 })
	ticket := testutil.CreateTicket(t, f.db, event, f.alice, "A1", models.TicketActive)
	used := testutil.CreateTicket(t, f.db, event, f.bob, "A2", models.TicketUsed)

	err := f.tickets.Cancel(ctx, ticket.ID.String(), f.bob)
	assertKind(t, err, apperr.KindAccessDenied, "Access denied")

	require.NoError(t, f.tickets.Cancel(ctx, ticket.ID.String(), f.alice))
	assert.Equal(t, 1, reloadEvent(t, f, event).Booked)

	err = f.tickets.Cancel(ctx, ticket.ID.String(), f.alice)
	assertKind(t, err, apperr.KindConflict, "Ticket already cancelled")
	assert.Equal(t, 1, reloadEvent(t, f, event).Booked)

	err = f.tickets.Cancel(ctx, used.ID.String(), f.admin)
	assertKind(t, err, apperr.KindConflict, "Cannot cancel used ticket")

	err = f.tickets.Cancel(ctx, "00000000-0000-0000-0000-000000000001", f.admin)
	assertKind(t, err, apperr.KindNotFound)
}

func TestCancelNeverDropsBookedBelowZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, f.admin)
	ticket := testutil.CreateTicket(t, f.db, event, f.alice, "A1", models.TicketActive)

	require.NoError(t, f.tickets.Cancel(ctx, ticket.ID.String(), f.admin))
	assert.Equal(t, 0, reloadEvent(t, f, event).Booked)
}

func TestCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Date(2030, 3, 14, 19, 30, 0, 0, time.UTC)
	f.tickets.Location = time.UTC
	f.tickets.Now = func() time.Time { return now }

	today := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) {
		e.Date = time.Date(2030, 3, 14, 0, 0, 0, 0, time.UTC)
	})
	tomorrow := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) {
		e.Date = time.Date(2030, 3, 15, 0, 0, 0, 0, time.UTC)
	})
	ticket := testutil.CreateTicket(t, f.db, today, f.alice, "A1", models.TicketActive)
	cancelled := testutil.CreateTicket(t, f.db, today, f.bob, "A2", models.TicketCancelled)
	early := testutil.CreateTicket(t, f.db, tomorrow, f.alice, "A1", models.TicketActive)

	_, err := f.tickets.CheckIn(ctx, "")
	assertKind(t, err, apperr.KindValidation)

	_, err = f.tickets.CheckIn(ctx, "TICKET_UNKNOWN")
	assertKind(t, err, apperr.KindNotFound, "Invalid QR code")

	_, err = f.tickets.CheckIn(ctx, cancelled.QRCode)
	assertKind(t, err, apperr.KindConflict, "Ticket is cancelled")

	_, err = f.tickets.CheckIn(ctx, early.QRCode)
	assertKind(t, err, apperr.KindValidation, "Event is not today")

	checked, err := f.tickets.CheckIn(ctx, ticket.QRCode)
	require.NoError(t, err)
	assert.Equal(t, today.Name, checked.EventName)
	assert.True(t, checked.CheckInTime.Equal(now))

	var stored models.Ticket
	require.NoError(t, f.db.First(&stored, "id = ?", ticket.ID).Error)
	assert.Equal(t, models.TicketUsed, stored.Status)
	require.NotNil(t, stored.CheckInTime)
	assert.True(t, stored.CheckInTime.Equal(now))

	_, err = f.tickets.CheckIn(ctx, ticket.QRCode)
	assertKind(t, err, apperr.KindConflict, "Ticket already used")
}

func TestCheckInOrphanedTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, f.admin)
	ticket := testutil.CreateTicket(t, f.db, event, f.alice, "A1", models.TicketActive)
	require.NoError(t, f.events.Delete(ctx, event.ID.String(), f.admin))

	_, err := f.tickets.CheckIn(ctx, ticket.QRCode)
	assertKind(t, err, apperr.KindNotFound, "Event not found")
}

func TestListTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, f.admin)
	testutil.CreateTicket(t, f.db, event, f.alice, "A1", models.TicketActive)
	testutil.CreateTicket(t, f.db, event, f.bob, "A2", models.TicketActive)

	mine, err := f.tickets.ListForUser(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Event)
	assert.Equal(t, event.Name, mine[0].Event.Name)
	assert.Equal(t, event.Description, mine[0].Event.Description)

	_, err = f.tickets.ListAll(ctx, f.alice)
	assertKind(t, err, apperr.KindAccessDenied)

	all, err := f.tickets.ListAll(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, ticket := range all {
		require.NotNil(t, ticket.User)
		require.NotNil(t, ticket.Event)
		assert.NotEmpty(t, ticket.User.Email)
		assert.Equal(t, event.Venue, ticket.Event.Venue)
		assert.Empty(t, ticket.Event.Description)
	}
}

func TestQRImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, f.admin)
	ticket := testutil.CreateTicket(t, f.db, event, f.alice, "A1", models.TicketActive)

	png, err := f.tickets.QRImage(ctx, ticket.ID.String(), f.alice)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	_, err = f.tickets.QRImage(ctx, ticket.ID.String(), f.bob)
	assertKind(t, err, apperr.KindAccessDenied)

	_, err = f.tickets.QRImage(ctx, ticket.ID.String(), f.admin)
	require.NoError(t, err)
}

func TestConcurrentBookingsRespectCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) { e.Seats = 3 })

	const bookers = 10
	users := make([]*models.User, bookers)
	for i := range users {
		users[i] = testutil.CreateUser(t, f.db, fmt.Sprintf("fan%d@example.com", i), models.RoleUser)
	}

	errs := make([]error, bookers)
	var wg sync.WaitGroup
	for i, user := range users {
		wg.Add(1)
		go func(i int, user *models.User) {
			defer wg.Done()
			_, errs[i] = f.tickets.Book(ctx, BookingInput{
				EventID:    event.ID.String(),
				SeatNumber: fmt.Sprintf("A%d", i+1),
			}, user)
		}(i, user)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assertKind(t, err, apperr.KindCapacity, "Event is sold out")
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 3, reloadEvent(t, f, event).Booked)
	assert.Equal(t, int64(3), countTickets(t, f, event))
}

func TestConcurrentBookingsForSameSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) { e.Seats = 3 })

	users := []*models.User{f.alice, f.bob, f.admin}
	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i, user := range users {
		wg.Add(1)
		go func(i int, user *models.User) {
			defer wg.Done()
			_, errs[i] = f.tickets.Book(ctx, BookingInput{EventID: event.ID.String(), SeatNumber: "B7"}, user)
		}(i, user)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assertKind(t, err, apperr.KindConflict, "Seat already booked")
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, reloadEvent(t, f, event).Booked)
}

func TestConcurrentCancelsDecrementOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) { e.Booked = 2 })
	ticket := testutil.CreateTicket(t, f.db, event, f.alice, "A1", models.TicketActive)
	testutil.CreateTicket(t, f.db, event, f.bob, "A2", models.TicketActive)

	requesters := []*models.User{f.alice, f.admin, f.alice, f.admin}
	errs := make([]error, len(requesters))
	var wg sync.WaitGroup
	for i, requester := range requesters {
		wg.Add(1)
		go func(i int, requester *models.User) {
			defer wg.Done()
			errs[i] = f.tickets.Cancel(ctx, ticket.ID.String(), requester)
		}(i, requester)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assertKind(t, err, apperr.KindConflict, "Ticket already cancelled")
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, reloadEvent(t, f, event).Booked)

	var stored models.Ticket
	require.NoError(t, f.db.First(&stored, "id = ?", ticket.ID).Error)
	assert.Equal(t, models.TicketCancelled, stored.Status)
}
