package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/cache"
	"github.com/spec-kit/event-service/internal/dispatch"
	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/repository"
)

// EventInput is the payload of create and update calls. On update empty fields are ignored.
type EventInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Venue       string `json:"venue"`
}

func (in EventInput) trimmed() EventInput {
	return EventInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Date:        strings.TrimSpace(in.Date),
		Venue:       strings.TrimSpace(in.Venue),
	}
}

// EventService manages the events collection.
type EventService struct {
	events     repository.EventRepository
	cache      *cache.EventCache
	dispatcher dispatch.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// EventDependencies bundles collaborators for the event service.
type EventDependencies struct {
	EventRepo  repository.EventRepository
	Cache      *cache.EventCache
	Dispatcher dispatch.Dispatcher
	Logger     *zap.Logger
	// Now overrides the clock used for date validation.
	Now func() time.Time
}

// NewEventService builds the service.
func NewEventService(deps EventDependencies) *EventService {
	s := &EventService{
		events:     deps.EventRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if s.dispatcher == nil {
		s.dispatcher = dispatch.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create validates and stores a new event.
func (s *EventService) Create(ctx context.Context, in EventInput) (*domain.Event, error) {
	in = in.trimmed()
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required.Error("event name is required")),
		validation.Field(&in.Description, validation.Required.Error("event description is required")),
		validation.Field(&in.Date, validation.Required.Error("valid date is required"), validation.By(s.futureDate)),
		validation.Field(&in.Venue, validation.Required.Error("event venue is required")),
	)
	if err := fromValidation(err); err != nil {
		return nil, err
	}

	date, _ := time.Parse(domain.DateLayout, in.Date)
	event := &domain.Event{
		Name:        in.Name,
		Description: in.Description,
		Date:        date,
		Venue:       in.Venue,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.publish(ctx, dispatch.TopicEventCreated, event.ID, event.Name)
	return event, nil
}

// List returns every event ordered by date.
func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	events, gen, ok := s.cache.GetList(ctx)
	if ok {
		return events, nil
	}
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	s.cache.SetList(ctx, gen, events)
	return events, nil
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id int64) (*domain.Event, error) {
	event, gen, ok := s.cache.GetEvent(ctx, id)
	if ok {
		return event, nil
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, mapEventErr(err)
	}
	s.cache.SetEvent(ctx, gen, event)
	return event, nil
}

// Update applies the non-empty fields of in. At least one field must be provided.
func (s *EventService) Update(ctx context.Context, id int64, in EventInput) error {
	in = in.trimmed()
	var patch domain.EventPatch
	if in.Name != "" {
		patch.Name = &in.Name
	}
	if in.Description != "" {
		patch.Description = &in.Description
	}
	if in.Venue != "" {
		patch.Venue = &in.Venue
	}
	if in.Date != "" {
		err := validation.ValidateStruct(&in, validation.Field(&in.Date, validation.By(s.futureDate)))
		if err := fromValidation(err); err != nil {
			return err
		}
		date, _ := time.Parse(domain.DateLayout, in.Date)
		patch.Date = &date
	}
	if patch.Empty() {
		return invalidInput("no valid fields to update")
	}

	if err := s.events.Update(ctx, id, patch); err != nil {
		return mapEventErr(err)
	}
	s.publish(ctx, dispatch.TopicEventUpdated, id, in.Name)
	return nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return mapEventErr(err)
	}
	s.publish(ctx, dispatch.TopicEventDeleted, id, "")
	return nil
}

// futureDate requires a YYYY-MM-DD date strictly after today.
func (s *EventService) futureDate(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	date, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return errors.New("valid date is required")
	}
	if !date.After(s.now()) {
		return errors.New("event date must be in the future")
	}
	return nil
}

func (s *EventService) publish(ctx context.Context, topic dispatch.Topic, id int64, name string) {
	msg := dispatch.NewMessage(topic, actorFromContext(ctx), dispatch.EventPayload{EventID: id, Name: name})
	if err := s.dispatcher.Publish(ctx, msg); err != nil {
		s.logger.Warn("notification handler failed", zap.String("topic", string(topic)), zap.Error(err))
	}
}

func actorFromContext(ctx context.Context) dispatch.Actor {
	claims, ok := auth.ClaimsFromCtx(ctx)
	if !ok {
		return dispatch.Actor{}
	}
	return dispatch.Actor{UserID: claims.UserID, Email: claims.Email, Role: string(claims.Role)}
}

func mapEventErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEventNotFound
	}
	return fmt.Errorf("event store: %w", err)
}
