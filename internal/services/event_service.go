package services

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/eventstudio/eventstudio-api/internal/apperr"
	"github.com/eventstudio/eventstudio-api/internal/helpers"
	"github.com/eventstudio/eventstudio-api/internal/models"
	"github.com/eventstudio/eventstudio-api/internal/policy"
)

// ImageURLPrefix is where uploaded files are served from.
const ImageURLPrefix = "/uploads/"

const eventImageDir = "event_images"

type EventService struct {
	DB       *gorm.DB
	Location *time.Location
	Uploads  helpers.UploadConfig
}

func NewEventService(db *gorm.DB, uploads helpers.UploadConfig) *EventService {
	return &EventService{DB: db, Location: time.Local, Uploads: uploads}
}

type CreateEventInput struct {
	Name        string
	Date        string
	Time        string
	Venue       string
	Description string
	Price       *decimal.Decimal
	Seats       *int
	Tags        []string
	Image       string
}

// EventPatch holds optional event changes; nil fields are left unchanged.
type EventPatch struct {
	Name        *string
	Date        *string
	Time        *string
	Venue       *string
	Description *string
	Price       *decimal.Decimal
	Seats       *int
	Tags        *[]string
	Status      *string
	Image       *string
}

type EventFilter struct {
	Status string
	Search string
	helpers.Pagination
}

type EventPage struct {
	Events      []models.Event `json:"events"`
	TotalPages  int64          `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	TotalEvents int64          `json:"totalEvents"`
}

// EventDetail is an event together with the seats currently held on it.
type EventDetail struct {
	models.Event
	BookedSeats []string `json:"bookedSeats"`
}

func (s *EventService) Create(ctx context.Context, in CreateEventInput, creator *models.User) (*models.Event, error) {
	if creator == nil {
		return nil, apperr.Auth("Access denied. No token provided.")
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Venue = strings.TrimSpace(in.Venue)
	in.Time = strings.TrimSpace(in.Time)
	if in.Name == "" || strings.TrimSpace(in.Date) == "" || in.Time == "" || in.Venue == "" ||
		strings.TrimSpace(in.Description) == "" || in.Price == nil || in.Seats == nil {
		return nil, apperr.Validation("All required fields must be provided")
	}
	if in.Price.IsNegative() {
		return nil, apperr.Validation("Price cannot be negative")
	}
	if *in.Seats < 0 {
		return nil, apperr.Validation("Seats cannot be negative")
	}
	date, err := helpers.ParseEventDate(in.Date, s.Location)
	if err != nil {
		return nil, apperr.Validation("Invalid event date")
	}

	event := models.Event{
		Name:        in.Name,
		Date:        date,
		Time:        in.Time,
		Venue:       in.Venue,
		Description: in.Description,
		Price:       *in.Price,
		Seats:       *in.Seats,
		Tags:        normalizeTags(in.Tags),
		Image:       in.Image,
		CreatedByID: creator.ID,
		Status:      models.EventActive,
	}
	if err := s.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return s.load(ctx, event.ID)
}

func normalizeTags(tags []string) []string {
	return helpers.ParseTags(strings.Join(tags, ","))
}

func (s *EventService) List(ctx context.Context, filter EventFilter) (*EventPage, error) {
	return s.page(ctx, filter, func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
			db = db.Where(
				`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(venue) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`,
				pattern, pattern, pattern,
			)
		}
		return db
	})
}

// ListByCreator pages through the events created by the requester.
func (s *EventService) ListByCreator(ctx context.Context, creator *models.User, pagination helpers.Pagination) (*EventPage, error) {
	if creator == nil {
		return nil, apperr.Auth("Access denied. No token provided.")
	}
	return s.page(ctx, EventFilter{Pagination: pagination}, func(db *gorm.DB) *gorm.DB {
		return db.Where("created_by_id = ?", creator.ID)
	})
}

func (s *EventService) page(ctx context.Context, filter EventFilter, scope func(*gorm.DB) *gorm.DB) (*EventPage, error) {
	db := s.DB.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Event{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	events := []models.Event{}
	err := db.Scopes(scope).
		Preload("CreatedBy").
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit).
		Find(&events).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &EventPage{
		Events:      events,
		TotalPages:  filter.TotalPages(total),
		CurrentPage: filter.Page,
		TotalEvents: total,
	}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *EventService) Get(ctx context.Context, id string) (*EventDetail, error) {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("Event not found")
	}
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	seats := []string{}
	err = s.DB.WithContext(ctx).Model(&models.Ticket{}).
		Where("event_id = ? AND status IN ?", eventID, models.HeldStatuses).
		Order("created_at ASC").
		Pluck("seat_number", &seats).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &EventDetail{Event: *event, BookedSeats: seats}, nil
}

func (s *EventService) load(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := s.DB.WithContext(ctx).Preload("CreatedBy").First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Event not found")
		}
		return nil, apperr.Internal(err)
	}
	return &event, nil
}

func (s *EventService) Update(ctx context.Context, id string, patch EventPatch, requester *models.User) (*models.Event, error) {
	event, err := s.owned(ctx, id, requester, "Not authorized to update this event")
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, 10)
	set := func(column string) { columns = append(columns, column) }

	if patch.Name != nil {
		if event.Name = strings.TrimSpace(*patch.Name); event.Name == "" {
			return nil, apperr.Validation("Name cannot be empty")
		}
		set("name")
	}
	if patch.Date != nil {
		date, err := helpers.ParseEventDate(*patch.Date, s.Location)
		if err != nil {
			return nil, apperr.Validation("Invalid event date")
		}
		event.Date = date.UTC()
		set("date")
	}
	if patch.Time != nil {
		event.Time = strings.TrimSpace(*patch.Time)
		set("time")
	}
	if patch.Venue != nil {
		if event.Venue = strings.TrimSpace(*patch.Venue); event.Venue == "" {
			return nil, apperr.Validation("Venue cannot be empty")
		}
		set("venue")
	}
	if patch.Description != nil {
		event.Description = *patch.Description
		set("description")
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, apperr.Validation("Price cannot be negative")
		}
		event.Price = *patch.Price
		set("price")
	}
	if patch.Seats != nil {
		if *patch.Seats < 0 {
			return nil, apperr.Validation("Seats cannot be negative")
		}
		event.Seats = *patch.Seats
		set("seats")
	}
	if patch.Tags != nil {
		event.Tags = normalizeTags(*patch.Tags)
		set("tags")
	}
	if patch.Status != nil {
		status := models.EventStatus(*patch.Status)
		if !status.Valid() {
			return nil, apperr.Validation("Invalid event status")
		}
		event.Status = status
		set("status")
	}
	if patch.Image != nil {
		event.Image = *patch.Image
		set("image")
	}

	if len(columns) > 0 {
		event.CreatedBy = nil
		if err := s.DB.WithContext(ctx).Model(event).Select(columns).Updates(event).Error; err != nil {
			return nil, apperr.Internal(err)
		}
	}
	return s.load(ctx, event.ID)
}

func (s *EventService) Delete(ctx context.Context, id string, requester *models.User) error {
	event, err := s.owned(ctx, id, requester, "Not authorized to delete this event")
	if err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Delete(&models.Event{}, "id = ?", event.ID).Error; err != nil {
		return apperr.Internal(err)
	}
	s.removeImage(event.Image)
	return nil
}

// UploadImage stores an image file for the event and points the event at it.
func (s *EventService) UploadImage(ctx context.Context, id string, file *multipart.FileHeader, requester *models.User) (*models.Event, error) {
	event, err := s.owned(ctx, id, requester, "Not authorized to update this event")
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, apperr.Validation("Image file is required")
	}

	stored, err := helpers.UploadFile(file, eventImageDir, s.Uploads)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	previous := event.Image
	image := ImageURLPrefix + stored
	if err := s.DB.WithContext(ctx).Model(&models.Event{}).Where("id = ?", event.ID).Update("image", image).Error; err != nil {
		s.removeImage(image)
		return nil, apperr.Internal(err)
	}
	s.removeImage(previous)

	return s.load(ctx, event.ID)
}

// removeImage deletes a previously uploaded file. External image URLs are
// left alone.
func (s *EventService) removeImage(image string) {
	stored, ok := strings.CutPrefix(image, ImageURLPrefix)
	if !ok {
		return
	}
	if err := helpers.DeleteFile(s.Uploads.UploadBasePath, stored); err != nil {
		slog.Warn("failed to remove event image", "image", image, "error", err)
	}
}

func (s *EventService) owned(ctx context.Context, id string, requester *models.User, denied string) (*models.Event, error) {
	if requester == nil {
		return nil, apperr.Auth("Access denied. No token provided.")
	}
	eventID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("Event not found")
	}
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := policy.OwnerOrAdmin(requester, event.CreatedByID, denied); err != nil {
		return nil, err
	}
	return event, nil
}
