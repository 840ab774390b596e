package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/venue-calendar/internal/dto"
	"github.com/prohmpiriya/venue-calendar/internal/service"
	"github.com/prohmpiriya/venue-calendar/pkg/response"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventService service.EventService
	queryService service.EventQueryService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService service.EventService, queryService service.EventQueryService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		queryService: queryService,
	}
}

// List handles GET /events - lists events with pagination and filters
func (h *EventHandler) List(c *gin.Context) {
	var filter dto.EventListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}

	// Anonymous callers only see public and member events
	if !isStaff(c) {
		if restrictedStatus(filter.Status) {
			c.JSON(http.StatusForbidden, response.Forbidden("Insufficient permissions for this status"))
			return
		}
		if filter.Status == "" {
			filter.Status = "public,member"
		}
	}

	page, err := h.queryService.ListEvents(c.Request.Context(), &filter)
	if err != nil {
		respondError(c, err, "Failed to list events")
		return
	}

	opts := responseOptions(c)
	c.JSON(http.StatusOK, response.Paginated(dto.ToEventResponses(page.Events, opts), page.Page, page.Limit, int64(page.Total)))
}

// GetByID handles GET /events/:id - retrieves an event by ID
func (h *EventHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("ID is required"))
		return
	}

	event, err := h.eventService.GetEventByID(c.Request.Context(), id, c.Query("include_relations") == "true")
	if err != nil {
		respondError(c, err, "Failed to get event")
		return
	}
	if !isStaff(c) && !publiclyVisible(event) {
		c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.ToEventResponse(event, responseOptions(c))))
}

// Create handles POST /events - creates a new event (staff only)
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create event")
		return
	}

	c.JSON(http.StatusCreated, response.Success(dto.ToEventResponse(event, responseOptions(c))))
}

// Update handles PATCH /events/:id - applies a partial update
func (h *EventHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("ID is required"))
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update event")
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.ToEventResponse(event, responseOptions(c))))
}

// Delete handles DELETE /events/:id - hard deletes an event and its relations
func (h *EventHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("ID is required"))
		return
	}

	deleted, err := h.eventService.DeleteEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to delete event")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(map[string]string{"message": "Event deleted successfully"}))
}
