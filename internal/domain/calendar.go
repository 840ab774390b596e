package domain

import (
	"time"
)

// View is the calendar zoom level
type View string

const (
	ViewDay    View = "day"
	ViewWeek   View = "week"
	ViewMonth  View = "month"
	ViewCustom View = "custom"
)

// ResolveRange expands an anchor date into the inclusive date range of a
// view. Weeks run Monday to Sunday. Any other view keeps the literal range,
// with end defaulting to the anchor.
func ResolveRange(view View, anchor time.Time, end *time.Time) (time.Time, time.Time, View) {
	anchor = NormalizeDate(anchor)

	switch view {
	case ViewDay:
		return anchor, anchor, ViewDay
	case ViewWeek:
		// time.Sunday is 0, shift so Monday is the first day
		offset := (int(anchor.Weekday()) + 6) % 7
		monday := AddDays(anchor, -offset)
		return monday, AddDays(monday, 6), ViewWeek
	case ViewMonth:
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first, first.AddDate(0, 1, -1), ViewMonth
	default:
		last := anchor
		if end != nil {
			last = NormalizeDate(*end)
		}
		return anchor, last, ViewCustom
	}
}

// Schedule is a weekly opening rule, or an exception window when
// IsException is set
type Schedule struct {
	ID           string     `json:"id"`
	DayOfWeek    *int       `json:"day_of_week"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	StartTime    *string    `json:"start_time"`
	EndTime      *string    `json:"end_time"`
	AudienceType string     `json:"audience_type"`
	Description  string     `json:"description"`
	IsClosed     bool       `json:"is_closed"`
	IsException  bool       `json:"is_exception"`
}

// SpecialPeriodType separates holidays from closures
type SpecialPeriodType string

const (
	SpecialPeriodHoliday SpecialPeriodType = "holiday"
	SpecialPeriodClosure SpecialPeriodType = "closure"
)

// SpecialPeriod is an administrator-defined date range
type SpecialPeriod struct {
	ID        string            `json:"id"`
	Type      SpecialPeriodType `json:"type"`
	Name      string            `json:"name"`
	StartDate time.Time         `json:"start_date"`
	EndDate   time.Time         `json:"end_date"`
	Zone      *string           `json:"zone"`
	IsActive  bool              `json:"is_active"`
}

// Covers reports whether day lies in the period
func (p *SpecialPeriod) Covers(day time.Time) bool {
	return !day.Before(p.StartDate) && !day.After(p.EndDate)
}

// OpeningHours is one open window of a day
type OpeningHours struct {
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	AudienceType string  `json:"audience_type"`
	Description  string  `json:"description"`
}

// CalendarDay is the aggregated view of one date
type CalendarDay struct {
	Date             time.Time        `json:"date"`
	IsOpen           bool             `json:"is_open"`
	OpeningHours     []OpeningHours   `json:"opening_hours"`
	PaidTicketsCount int              `json:"paid_tickets_count"`
	Events           []*Event         `json:"events"`
	HolidayPeriods   []*SpecialPeriod `json:"holiday_periods"`
	ClosurePeriods   []*SpecialPeriod `json:"closure_periods"`
}

// NewCalendarDay returns an empty day with non-nil lists
func NewCalendarDay(date time.Time) *CalendarDay {
	return &CalendarDay{
		Date:           date,
		OpeningHours:   []OpeningHours{},
		Events:         []*Event{},
		HolidayPeriods: []*SpecialPeriod{},
		ClosurePeriods: []*SpecialPeriod{},
	}
}

// CalendarResponse is a contiguous, ordered run of days
type CalendarResponse struct {
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	View      View           `json:"view"`
	Days      []*CalendarDay `json:"days"`
}
