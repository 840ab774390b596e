package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/venue-calendar/internal/dto"
	"github.com/prohmpiriya/venue-calendar/internal/service"
	"github.com/prohmpiriya/venue-calendar/pkg/response"
)

// RelationHandler handles the event relation graph
type RelationHandler struct {
	relationService service.RelationService
}

// NewRelationHandler creates a new RelationHandler
func NewRelationHandler(relationService service.RelationService) *RelationHandler {
	return &RelationHandler{
		relationService: relationService,
	}
}

// List handles GET /events/:id/relations
func (h *RelationHandler) List(c *gin.Context) {
	event, err := h.relationService.ListRelations(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to list relations")
		return
	}
	if !isStaff(c) && !publiclyVisible(event) {
		c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.ToRelationsResponse(event, responseOptions(c))))
}

// Link handles POST /events/:id/relations
func (h *RelationHandler) Link(c *gin.Context) {
	var req dto.LinkEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	parentID := c.Param("id")
	if err := h.relationService.Link(c.Request.Context(), parentID, req.ChildEventIDs); err != nil {
		respondError(c, err, "Failed to link events")
		return
	}

	h.respondRelations(c, parentID, http.StatusCreated)
}

// Replace handles PUT /events/:id/relations. An empty list clears the set.
func (h *RelationHandler) Replace(c *gin.Context) {
	var req dto.LinkEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	parentID := c.Param("id")
	if err := h.relationService.ReplaceRelated(c.Request.Context(), parentID, req.ChildEventIDs); err != nil {
		respondError(c, err, "Failed to replace relations")
		return
	}

	h.respondRelations(c, parentID, http.StatusOK)
}

// UnlinkAll handles DELETE /events/:id/relations
func (h *RelationHandler) UnlinkAll(c *gin.Context) {
	if err := h.relationService.UnlinkAll(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to unlink events")
		return
	}

	c.JSON(http.StatusOK, response.Success(map[string]string{"message": "Relations removed successfully"}))
}

func (h *RelationHandler) respondRelations(c *gin.Context, eventID string, status int) {
	event, err := h.relationService.ListRelations(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err, "Failed to list relations")
		return
	}
	c.JSON(status, response.Success(dto.ToRelationsResponse(event, responseOptions(c))))
}
