package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/internal/dto"
	"github.com/prohmpiriya/venue-calendar/internal/ics"
	"github.com/prohmpiriya/venue-calendar/internal/service"
	"github.com/prohmpiriya/venue-calendar/pkg/response"
)

const icsContentType = "text/calendar; charset=utf-8"

// CalendarHandler serves the aggregated calendar
type CalendarHandler struct {
	calendarService service.CalendarService
	exporter        *ics.Exporter
}

// NewCalendarHandler creates a new CalendarHandler
func NewCalendarHandler(calendarService service.CalendarService, exporter *ics.Exporter) *CalendarHandler {
	if exporter == nil {
		exporter = ics.NewExporter("")
	}
	return &CalendarHandler{
		calendarService: calendarService,
		exporter:        exporter,
	}
}

// Get handles GET /calendar
func (h *CalendarHandler) Get(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	cal, err := h.calendarService.Build(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to build calendar")
		return
	}

	opts := responseOptions(c)
	opts.Lang = dto.ResolveLanguage(req.Lang, c.GetHeader("Accept-Language"))
	c.JSON(http.StatusOK, response.Success(dto.ToCalendarResponse(cal, opts)))
}

// ExportICS handles GET /calendar.ics
func (h *CalendarHandler) ExportICS(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	cal, err := h.calendarService.Build(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to build calendar")
		return
	}

	body, err := h.exporter.Export(cal, dto.ResolveLanguage(req.Lang, c.GetHeader("Accept-Language")))
	if err != nil {
		respondError(c, err, "Failed to export calendar")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="calendar-`+domain.FormatDate(cal.StartDate)+`.ics"`)
	c.Data(http.StatusOK, icsContentType, body)
}

// bind parses the query and checks that private data is only requested by
// staff
func (h *CalendarHandler) bind(c *gin.Context) (*dto.CalendarRequest, bool) {
	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters: "+err.Error()))
		return nil, false
	}

	if (req.IncludePrivate || restrictedStatus(req.Status)) && !isStaff(c) {
		c.JSON(http.StatusForbidden, response.Forbidden("Insufficient permissions"))
		return nil, false
	}
	return &req, true
}
