package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/api/dto"
	"github.com/spec-kit/event-service/internal/service"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// EventsHandler manages the events collection.
type EventsHandler struct {
	service *service.EventService
}

// NewEventsHandler constructs handler.
func NewEventsHandler(eventService *service.EventService) *EventsHandler {
	return &EventsHandler{service: eventService}
}

// Create POST /api/events.
func (h *EventsHandler) Create(c *fiber.Ctx) error {
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	event, err := h.service.Create(c.UserContext(), toEventInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.EventCreatedResponse{
		Message: "Event created successfully",
		EventID: event.ID,
	})
}

// List GET /api/events.
func (h *EventsHandler) List(c *fiber.Ctx) error {
	events, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEventResponses(events))
}

// Get GET /api/events/:id.
func (h *EventsHandler) Get(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return err
	}
	event, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEventResponse(*event))
}

// Update PUT /api/events/:id.
func (h *EventsHandler) Update(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return err
	}
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.Update(c.UserContext(), id, toEventInput(req)); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Event updated successfully"})
}

// Delete DELETE /api/events/:id.
func (h *EventsHandler) Delete(c *fiber.Ctx) error {
	id, err := eventID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Event deleted successfully"})
}

func eventID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid event id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func toEventInput(req dto.EventRequest) service.EventInput {
	return service.EventInput{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		Venue:       req.Venue,
	}
}
