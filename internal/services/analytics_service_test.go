package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventstudio/eventstudio-api/internal/apperr"
	"github.com/eventstudio/eventstudio-api/internal/models"
	"github.com/eventstudio/eventstudio-api/internal/testutil"
)

func backdate(t *testing.T, f *fixture, model interface{}, id interface{}, at time.Time) {
	t.Helper()
	require.NoError(t, f.db.Model(model).Where("id = ?", id).UpdateColumn("created_at", at.UTC()).Error)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	popular := testutil.CreateEvent(t, f.db, f.admin)
	testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) { e.Status = models.EventCancelled })
	later := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) {
		e.Date = time.Now().AddDate(0, 0, 60)
		e.Price = decimal.NewFromInt(30)
	})
	removed := testutil.CreateEvent(t, f.db, f.admin)

	testutil.CreateTicket(t, f.db, popular, f.alice, "A1", models.TicketActive)
	testutil.CreateTicket(t, f.db, popular, f.bob, "A2", models.TicketActive)
	testutil.CreateTicket(t, f.db, popular, f.admin, "A3", models.TicketCancelled)
	old := testutil.CreateTicket(t, f.db, later, f.alice, "B1", models.TicketActive)
	testutil.CreateTicket(t, f.db, removed, f.bob, "C1", models.TicketActive)
	require.NoError(t, f.events.Delete(ctx, removed.ID.String(), f.admin))

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	twoMonthsAgo := monthStart.AddDate(0, -2, 1)
	backdate(t, f, &models.Ticket{}, old.ID, twoMonthsAgo)

	_, err := f.analytics.DashboardStats(ctx, f.alice)
	assertKind(t, err, apperr.KindAccessDenied)

	stats, err := f.analytics.DashboardStats(ctx, f.admin)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalEvents)
	assert.Equal(t, int64(2), stats.ActiveEvents)
	assert.Equal(t, int64(4), stats.TotalTickets)
	assert.Equal(t, "330", stats.TotalRevenue.String())
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.UpcomingEvents)
	assert.Equal(t, int64(4), stats.RecentBookings)

	require.Len(t, stats.MonthlyRevenue, 6)
	assert.Equal(t, now.Format("Jan"), stats.MonthlyRevenue[5].Month)
	assert.Equal(t, "300", stats.MonthlyRevenue[5].Revenue.String())
	assert.Equal(t, twoMonthsAgo.Format("Jan"), stats.MonthlyRevenue[3].Month)
	assert.Equal(t, "30", stats.MonthlyRevenue[3].Revenue.String())

	require.Len(t, stats.TopEvents, 2)
	assert.Equal(t, popular.ID, stats.TopEvents[0].EventID)
	assert.Equal(t, int64(2), stats.TopEvents[0].TicketCount)
	assert.Equal(t, "200", stats.TopEvents[0].Revenue.String())
	assert.Equal(t, later.ID, stats.TopEvents[1].EventID)
}

func TestAttendeeInsights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Model(f.alice).Updates(models.User{
		Age:       "18-24",
		Gender:    "Female",
		Location:  "Luxor",
		Interests: []string{"Art", "Art", "Technology"},
	}).Error)

	concert := testutil.CreateEvent(t, f.db, f.admin)
	other := testutil.CreateEvent(t, f.db, f.admin)
	testutil.CreateTicket(t, f.db, concert, f.alice, "A1", models.TicketActive)
	testutil.CreateTicket(t, f.db, concert, f.bob, "A2", models.TicketActive)
	testutil.CreateTicket(t, f.db, other, f.admin, "A1", models.TicketActive)
	testutil.CreateTicket(t, f.db, other, f.bob, "A2", models.TicketCancelled)

	insights, err := f.analytics.AttendeeInsights(ctx, "", f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), insights.TotalAttendees)
	assert.Nil(t, insights.EventInfo)

	assert.Equal(t, []DistributionEntry{
		{Label: "18-24", Count: 1, Percentage: 33.3},
		{Label: "25-34", Count: 2, Percentage: 66.7},
	}, insights.AgeDistribution)
	assert.Equal(t, []DistributionEntry{
		{Label: "Female", Count: 1, Percentage: 33.3},
		{Label: "Male", Count: 2, Percentage: 66.7},
	}, insights.GenderDistribution)
	assert.Equal(t, []DistributionEntry{
		{Label: "Cairo", Count: 2, Percentage: 66.7},
		{Label: "Luxor", Count: 1, Percentage: 33.3},
	}, insights.LocationDistribution)
	assert.Equal(t, []DistributionEntry{
		{Label: "Art", Count: 1, Percentage: 33.3},
		{Label: "Technology", Count: 1, Percentage: 33.3},
	}, insights.InterestsDistribution)

	var sum float64
	for _, entry := range insights.LocationDistribution {
		sum += entry.Percentage
	}
	assert.InDelta(t, 100, sum, 0.2)

	insights, err = f.analytics.AttendeeInsights(ctx, concert.ID.String(), f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), insights.TotalAttendees)
	require.NotNil(t, insights.EventInfo)
	assert.Equal(t, concert.Name, insights.EventInfo.Name)

	insights, err = f.analytics.AttendeeInsights(ctx, "00000000-0000-0000-0000-000000000001", f.admin)
	require.NoError(t, err)
	assert.Zero(t, insights.TotalAttendees)
	assert.Nil(t, insights.EventInfo)
	assert.Empty(t, insights.AgeDistribution)

	_, err = f.analytics.AttendeeInsights(ctx, "", f.bob)
	assertKind(t, err, apperr.KindAccessDenied)
}

func TestUserDemographics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	event := testutil.CreateEvent(t, f.db, f.admin)
	testutil.CreateTicket(t, f.db, event, f.alice, "A1", models.TicketActive)
	stale := testutil.CreateTicket(t, f.db, event, f.bob, "A2", models.TicketCancelled)
	backdate(t, f, &models.Ticket{}, stale.ID, time.Now().AddDate(0, 0, -40))
	backdate(t, f, &models.User{}, f.bob.ID, time.Now().AddDate(0, 0, -40))

	demographics, err := f.analytics.UserDemographics(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), demographics.TotalUsers)
	assert.Equal(t, int64(2), demographics.ActiveUsers)
	assert.Equal(t, int64(1), demographics.NewUsersThisMonth)
	assert.Equal(t, int64(1), demographics.EngagedUsers)
	assert.Equal(t, 50.0, demographics.EngagementRate)
}

func TestUserDemographicsWithoutUsers(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "root@example.com", models.RoleAdmin)

	demographics, err := NewAnalyticsService(db).UserDemographics(context.Background(), admin)
	require.NoError(t, err)
	assert.Zero(t, demographics.TotalUsers)
	assert.Zero(t, demographics.EngagementRate)
}

func TestEventPerformance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	soon := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) { e.Booked = 5 })
	empty := testutil.CreateEvent(t, f.db, f.admin, func(e *models.Event) {
		e.Date = time.Now().AddDate(0, 0, 10)
		e.Seats = 0
	})
	testutil.CreateTicket(t, f.db, soon, f.alice, "A1", models.TicketActive)
	testutil.CreateTicket(t, f.db, soon, f.bob, "A2", models.TicketActive)
	testutil.CreateTicket(t, f.db, soon, f.admin, "A3", models.TicketCancelled)

	performance, err := f.analytics.EventPerformance(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, performance.Events, 2)

	assert.Equal(t, empty.ID, performance.Events[0].ID)
	assert.Zero(t, performance.Events[0].OccupancyRate)

	entry := performance.Events[1]
	assert.Equal(t, soon.ID, entry.ID)
	assert.Equal(t, int64(2), entry.BookedSeats)
	assert.Equal(t, int64(8), entry.AvailableSeats)
	assert.Equal(t, 20.0, entry.OccupancyRate)
	assert.Equal(t, "200", entry.Revenue.String())

	assert.Equal(t, int64(10), performance.Overall.TotalSeats)
	assert.Equal(t, int64(5), performance.Overall.TotalBookedSeats)
	assert.Equal(t, 50.0, performance.Overall.OverallOccupancyRate)
}

func TestPercentageRoundsOnce(t *testing.T) {
	assert.Equal(t, 95.0, percentage(96, 101, 1))
	assert.Equal(t, 49.5, percentage(50, 101, 2))
	assert.Equal(t, 11.21, percentage(12, 107, 2))
	assert.Equal(t, 66.7, percentage(2, 3, 1))
	assert.Zero(t, percentage(5, 0, 1))
}
