package services

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/eventstudio/eventstudio-api/internal/apperr"
	"github.com/eventstudio/eventstudio-api/internal/models"
	"github.com/eventstudio/eventstudio-api/internal/policy"
)

const (
	upcomingWindow   = 30 * 24 * time.Hour
	recentWindow     = 7 * 24 * time.Hour
	engagementWindow = 30 * 24 * time.Hour
	revenueMonths    = 6
	topEventsLimit   = 5

	fallbackAge      = "25-34"
	fallbackGender   = "Male"
	fallbackLocation = "Cairo"
)

type AnalyticsService struct {
	DB       *gorm.DB
	Location *time.Location
	Now      func() time.Time
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{DB: db, Location: time.Local, Now: time.Now}
}

type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type TopEvent struct {
	EventID     uuid.UUID       `json:"eventId"`
	EventName   string          `json:"eventName"`
	TicketCount int64           `json:"ticketCount"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type DashboardStats struct {
	TotalEvents    int64            `json:"totalEvents"`
	ActiveEvents   int64            `json:"activeEvents"`
	TotalTickets   int64            `json:"totalTickets"`
	TotalRevenue   decimal.Decimal  `json:"totalRevenue"`
	TotalUsers     int64            `json:"totalUsers"`
	UpcomingEvents int64            `json:"upcomingEvents"`
	RecentBookings int64            `json:"recentBookings"`
	MonthlyRevenue []MonthlyRevenue `json:"monthlyRevenue"`
	TopEvents      []TopEvent       `json:"topEvents"`
}

type DistributionEntry struct {
	Label      string  `json:"label"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type AttendeeInsights struct {
	TotalAttendees        int64                `json:"totalAttendees"`
	AgeDistribution       []DistributionEntry  `json:"ageDistribution"`
	GenderDistribution    []DistributionEntry  `json:"genderDistribution"`
	LocationDistribution  []DistributionEntry  `json:"locationDistribution"`
	InterestsDistribution []DistributionEntry  `json:"interestsDistribution"`
	EventInfo             *models.EventSummary `json:"eventInfo"`
}

type UserDemographics struct {
	TotalUsers        int64   `json:"totalUsers"`
	ActiveUsers       int64   `json:"activeUsers"`
	NewUsersThisMonth int64   `json:"newUsersThisMonth"`
	EngagedUsers      int64   `json:"engagedUsers"`
	EngagementRate    float64 `json:"engagementRate"`
}

type EventPerformanceEntry struct {
	ID             uuid.UUID          `json:"id"`
	Name           string             `json:"name"`
	Date           time.Time          `json:"date"`
	Venue          string             `json:"venue"`
	Status         models.EventStatus `json:"status"`
	TotalSeats     int                `json:"totalSeats"`
	BookedSeats    int64              `json:"bookedSeats"`
	AvailableSeats int64              `json:"availableSeats"`
	OccupancyRate  float64            `json:"occupancyRate"`
	Revenue        decimal.Decimal    `json:"revenue"`
}

type OverallPerformance struct {
	TotalSeats           int64   `json:"totalSeats"`
	TotalBookedSeats     int64   `json:"totalBookedSeats"`
	OverallOccupancyRate float64 `json:"overallOccupancyRate"`
}

type EventPerformance struct {
	Events  []EventPerformanceEntry `json:"events"`
	Overall OverallPerformance      `json:"overall"`
}

// DashboardStats aggregates headline counts, six months of revenue and the
// best-selling events.
func (s *AnalyticsService) DashboardStats(ctx context.Context, requester *models.User) (*DashboardStats, error) {
	if err := policy.RequireAdmin(requester); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	now := s.Now()
	stats := &DashboardStats{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalEvents, db.Model(&models.Event{})},
		{&stats.ActiveEvents, db.Model(&models.Event{}).Where("status = ?", models.EventActive)},
		{&stats.TotalUsers, db.Model(&models.User{}).Where("role = ?", models.RoleUser)},
		{&stats.UpcomingEvents, db.Model(&models.Event{}).
			Where("status = ? AND date >= ? AND date <= ?", models.EventActive, now.UTC(), now.Add(upcomingWindow).UTC())},
		{&stats.RecentBookings, db.Model(&models.Ticket{}).Where("created_at >= ?", now.Add(-recentWindow).UTC())},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, apperr.Internal(err)
		}
	}

	var active []models.Ticket
	if err := db.Select("id", "event_id", "price", "created_at").
		Where("status = ?", models.TicketActive).
		Find(&active).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	stats.TotalTickets = int64(len(active))
	stats.TotalRevenue = decimal.Zero
	for _, ticket := range active {
		stats.TotalRevenue = stats.TotalRevenue.Add(ticket.Price)
	}

	stats.MonthlyRevenue = s.monthlyRevenue(active, now)

	topEvents, err := s.topEvents(ctx, active)
	if err != nil {
		return nil, err
	}
	stats.TopEvents = topEvents

	return stats, nil
}

func (s *AnalyticsService) monthlyRevenue(active []models.Ticket, now time.Time) []MonthlyRevenue {
	local := now.In(s.Location)
	current := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.Location)

	buckets := make([]MonthlyRevenue, 0, revenueMonths)
	for i := revenueMonths - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)
		revenue := decimal.Zero
		for _, ticket := range active {
			if !ticket.CreatedAt.Before(start) && ticket.CreatedAt.Before(end) {
				revenue = revenue.Add(ticket.Price)
			}
		}
		buckets = append(buckets, MonthlyRevenue{Month: start.Format("Jan"), Revenue: revenue})
	}
	return buckets
}

func (s *AnalyticsService) topEvents(ctx context.Context, active []models.Ticket) ([]TopEvent, error) {
	counts := map[uuid.UUID]int64{}
	for _, ticket := range active {
		counts[ticket.EventID]++
	}

	ranked := make([]uuid.UUID, 0, len(counts))
	for id := range counts {
		ranked = append(ranked, id)
	}
	slices.SortFunc(ranked, func(a, b uuid.UUID) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a.String(), b.String())
	})
	if len(ranked) > topEventsLimit {
		ranked = ranked[:topEventsLimit]
	}

	top := []TopEvent{}
	if len(ranked) == 0 {
		return top, nil
	}

	var events []models.Event
	if err := s.DB.WithContext(ctx).Select("id", "name", "price").Where("id IN ?", ranked).Find(&events).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	byID := make(map[uuid.UUID]models.Event, len(events))
	for _, event := range events {
		byID[event.ID] = event
	}

	for _, id := range ranked {
		event, ok := byID[id]
		if !ok {
			continue
		}
		top = append(top, TopEvent{
			EventID:     id,
			EventName:   event.Name,
			TicketCount: counts[id],
			Revenue:     event.Price.Mul(decimal.NewFromInt(counts[id])),
		})
	}
	return top, nil
}

// AttendeeInsights profiles the holders of active tickets, across all events
// or for a single one when eventID is non-empty.
func (s *AnalyticsService) AttendeeInsights(ctx context.Context, eventID string, requester *models.User) (*AttendeeInsights, error) {
	if err := policy.RequireAdmin(requester); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	insights := &AttendeeInsights{}
	query := db.Model(&models.Ticket{}).Where("status = ?", models.TicketActive)
	if eventID != "" {
		id, err := uuid.Parse(eventID)
		if err != nil {
			return nil, apperr.NotFound("Event not found")
		}
		query = query.Where("event_id = ?", id)

		var event models.EventSummary
		err = db.Select("id", "name", "date", "venue").First(&event, "id = ?", id).Error
		switch {
		case err == nil:
			insights.EventInfo = &event
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperr.Internal(err)
		}
	}

	var userIDs []uuid.UUID
	if err := query.Pluck("user_id", &userIDs).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	var users []models.User
	if len(userIDs) > 0 {
		if err := db.Where("id IN ?", uniqueIDs(userIDs)).Find(&users).Error; err != nil {
			return nil, apperr.Internal(err)
		}
	}
	byID := make(map[uuid.UUID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	ages := map[string]int64{}
	genders := map[string]int64{}
	locations := map[string]int64{}
	interests := map[string]int64{}
	for _, userID := range userIDs {
		var user models.User
		if u, ok := byID[userID]; ok {
			user = *u
		}
		ages[cmp.Or(user.Age, fallbackAge)]++
		genders[cmp.Or(user.Gender, fallbackGender)]++
		locations[cmp.Or(user.Location, fallbackLocation)]++
		seen := map[string]bool{}
		for _, interest := range user.Interests {
			if !seen[interest] {
				seen[interest] = true
				interests[interest]++
			}
		}
	}

	total := int64(len(userIDs))
	insights.TotalAttendees = total
	insights.AgeDistribution = distribution(ages, total, byLabel)
	insights.GenderDistribution = distribution(genders, total, byLabel)
	insights.LocationDistribution = distribution(locations, total, byCountDesc)
	insights.InterestsDistribution = distribution(interests, total, byCountDesc)
	return insights, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}

func byLabel(a, b DistributionEntry) int {
	return cmp.Compare(a.Label, b.Label)
}

func byCountDesc(a, b DistributionEntry) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	return cmp.Compare(a.Label, b.Label)
}

func distribution(counts map[string]int64, total int64, order func(a, b DistributionEntry) int) []DistributionEntry {
	entries := make([]DistributionEntry, 0, len(counts))
	for label, count := range counts {
		entries = append(entries, DistributionEntry{
			Label:      label,
			Count:      count,
			Percentage: percentage(count, total, 1),
		})
	}
	slices.SortFunc(entries, order)
	return entries
}

// percentage returns part/total*100 rounded to places, or 0 when total is 0.
func percentage(part, total int64, places int32) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(total), places).
		InexactFloat64()
}

func (s *AnalyticsService) UserDemographics(ctx context.Context, requester *models.User) (*UserDemographics, error) {
	if err := policy.RequireAdmin(requester); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	now := s.Now()
	local := now.In(s.Location)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.Location)

	demographics := &UserDemographics{}
	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&demographics.TotalUsers, db.Model(&models.User{}).Where("role = ?", models.RoleUser)},
		{&demographics.ActiveUsers, db.Model(&models.Ticket{}).Distinct("user_id")},
		{&demographics.NewUsersThisMonth, db.Model(&models.User{}).
			Where("role = ? AND created_at >= ?", models.RoleUser, monthStart.UTC())},
		{&demographics.EngagedUsers, db.Model(&models.Ticket{}).Distinct("user_id").
			Where("created_at >= ?", now.Add(-engagementWindow).UTC())},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, apperr.Internal(err)
		}
	}

	demographics.EngagementRate = percentage(demographics.EngagedUsers, demographics.TotalUsers, 2)
	return demographics, nil
}

func (s *AnalyticsService) EventPerformance(ctx context.Context, requester *models.User) (*EventPerformance, error) {
	if err := policy.RequireAdmin(requester); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	var events []models.Event
	if err := db.Order("date DESC").Find(&events).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	var rows []struct {
		EventID uuid.UUID
		Total   int64
	}
	if err := db.Model(&models.Ticket{}).
		Select("event_id, COUNT(*) AS total").
		Where("status = ?", models.TicketActive).
		Group("event_id").
		Scan(&rows).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	sold := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		sold[row.EventID] = row.Total
	}

	performance := &EventPerformance{Events: make([]EventPerformanceEntry, 0, len(events))}
	for _, event := range events {
		booked := sold[event.ID]
		performance.Events = append(performance.Events, EventPerformanceEntry{
			ID:             event.ID,
			Name:           event.Name,
			Date:           event.Date,
			Venue:          event.Venue,
			Status:         event.Status,
			TotalSeats:     event.Seats,
			BookedSeats:    booked,
			AvailableSeats: int64(event.Seats) - booked,
			OccupancyRate:  percentage(booked, int64(event.Seats), 2),
			Revenue:        event.Price.Mul(decimal.NewFromInt(booked)),
		})
		performance.Overall.TotalSeats += int64(event.Seats)
		performance.Overall.TotalBookedSeats += int64(event.Booked)
	}
	performance.Overall.OverallOccupancyRate = percentage(
		performance.Overall.TotalBookedSeats, performance.Overall.TotalSeats, 2)

	return performance, nil
}
