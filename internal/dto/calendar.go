package dto

import (
	"strings"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
)

// CalendarRequest represents the query of a calendar build
type CalendarRequest struct {
	View           string `form:"view"`
	StartDate      string `form:"start_date" binding:"required"`
	EndDate        string `form:"end_date"`
	Status         string `form:"status"`
	IncludePrivate bool   `form:"include_private"`
	// EventTypes is a comma separated list, empty means every type
	EventTypes string `form:"event_types"`
	Lang       string `form:"lang"`
}

// Types splits EventTypes, dropping blanks
func (r *CalendarRequest) Types() []string {
	if strings.TrimSpace(r.EventTypes) == "" {
		return nil
	}
	var types []string
	for _, t := range strings.Split(r.EventTypes, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// OpeningHoursResponse is one open window of a day
type OpeningHoursResponse struct {
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	AudienceType string  `json:"audience_type"`
	Description  string  `json:"description"`
}

// SpecialPeriodResponse is a holiday or closure overlapping a day
type SpecialPeriodResponse struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Zone      *string `json:"zone"`
}

// CalendarDayResponse is the aggregated view of one date
type CalendarDayResponse struct {
	Date             string                   `json:"date"`
	IsOpen           bool                     `json:"is_open"`
	OpeningHours     []OpeningHoursResponse   `json:"opening_hours"`
	PaidTicketsCount int                      `json:"paid_tickets_count"`
	Events           []*EventResponse         `json:"events"`
	HolidayPeriods   []*SpecialPeriodResponse `json:"holiday_periods"`
	ClosurePeriods   []*SpecialPeriodResponse `json:"closure_periods"`
}

// CalendarResponse represents the response of a calendar build
type CalendarResponse struct {
	StartDate string                 `json:"start_date"`
	EndDate   string                 `json:"end_date"`
	View      string                 `json:"view"`
	Days      []*CalendarDayResponse `json:"days"`
}

// ToCalendarResponse converts a built calendar
func ToCalendarResponse(cal *domain.CalendarResponse, opts ResponseOptions) *CalendarResponse {
	resp := &CalendarResponse{
		StartDate: domain.FormatDate(cal.StartDate),
		EndDate:   domain.FormatDate(cal.EndDate),
		View:      string(cal.View),
		Days:      make([]*CalendarDayResponse, 0, len(cal.Days)),
	}

	for _, day := range cal.Days {
		d := &CalendarDayResponse{
			Date:             domain.FormatDate(day.Date),
			IsOpen:           day.IsOpen,
			OpeningHours:     make([]OpeningHoursResponse, 0, len(day.OpeningHours)),
			PaidTicketsCount: day.PaidTicketsCount,
			Events:           make([]*EventResponse, 0, len(day.Events)),
			HolidayPeriods:   toSpecialPeriodResponses(day.HolidayPeriods),
			ClosurePeriods:   toSpecialPeriodResponses(day.ClosurePeriods),
		}
		for _, oh := range day.OpeningHours {
			d.OpeningHours = append(d.OpeningHours, OpeningHoursResponse(oh))
		}
		for _, e := range day.Events {
			d.Events = append(d.Events, toEventResponse(e, opts))
		}
		resp.Days = append(resp.Days, d)
	}

	return resp
}

func toSpecialPeriodResponses(periods []*domain.SpecialPeriod) []*SpecialPeriodResponse {
	out := make([]*SpecialPeriodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, &SpecialPeriodResponse{
			ID:        p.ID,
			Type:      string(p.Type),
			Name:      p.Name,
			StartDate: domain.FormatDate(p.StartDate),
			EndDate:   domain.FormatDate(p.EndDate),
			Zone:      p.Zone,
		})
	}
	return out
}
