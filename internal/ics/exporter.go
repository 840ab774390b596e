// Package ics renders a built calendar as an iCalendar document.
package ics

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/internal/dto"
)

const (
	// DefaultProductID is the PRODID used when none is configured
	DefaultProductID = "-//venue-calendar//calendar-service//FR"

	// floatingLayout writes DTSTART/DTEND without a zone: calendar dates
	// and opening hours are local to the venue
	floatingLayout = "20060102T150405"

	uidDomain = "venue-calendar"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Exporter renders CalendarResponse values
type Exporter struct {
	productID string
	now       func() time.Time
}

// NewExporter creates a new Exporter
func NewExporter(productID string) *Exporter {
	if productID == "" {
		productID = DefaultProductID
	}
	return &Exporter{
		productID: productID,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// openingGroup is one opening window repeated on some dates of a weekday
type openingGroup struct {
	weekday time.Weekday
	hours   domain.OpeningHours
	dates   []time.Time
}

func (g *openingGroup) key() string {
	return fmt.Sprintf("%d|%s|%s|%s", g.weekday, deref(g.hours.StartTime), deref(g.hours.EndTime), g.hours.AudienceType)
}

// Export writes one all-day VEVENT per event and per special period, and
// the opening hours grouped by weekday and window. A window present on
// every occurrence of its weekday in the range becomes a single weekly
// recurring VEVENT.
func (x *Exporter) Export(cal *domain.CalendarResponse, lang string) ([]byte, error) {
	if cal == nil {
		return nil, fmt.Errorf("nil calendar")
	}

	out := ical.NewCalendar()
	out.SetMethod(ical.MethodPublish)
	out.SetProductId(x.productID)
	stamp := x.now()

	seenEvents := make(map[string]bool)
	seenPeriods := make(map[string]bool)
	groups := make(map[string]*openingGroup)
	var groupOrder []string

	for _, day := range cal.Days {
		for _, e := range day.Events {
			if seenEvents[e.ID] {
				continue
			}
			seenEvents[e.ID] = true
			x.addEvent(out, e, lang, stamp)
		}
		for _, p := range append(append([]*domain.SpecialPeriod{}, day.HolidayPeriods...), day.ClosurePeriods...) {
			if seenPeriods[p.ID] {
				continue
			}
			seenPeriods[p.ID] = true
			x.addPeriod(out, p, stamp)
		}
		for _, oh := range day.OpeningHours {
			g := &openingGroup{weekday: day.Date.Weekday(), hours: oh}
			k := g.key()
			if existing, ok := groups[k]; ok {
				g = existing
			} else {
				groups[k] = g
				groupOrder = append(groupOrder, k)
			}
			g.dates = append(g.dates, day.Date)
		}
	}

	for _, k := range groupOrder {
		if err := x.addOpeningGroup(out, groups[k], cal.StartDate, cal.EndDate, lang, stamp); err != nil {
			return nil, err
		}
	}

	return []byte(out.Serialize()), nil
}

func (x *Exporter) addEvent(out *ical.Calendar, e *domain.Event, lang string, stamp time.Time) {
	ve := out.AddEvent(fmt.Sprintf("event-%s@%s", e.ID, uidDomain))
	ve.SetDtStampTime(stamp)
	ve.SetSummary(dto.Localized(e.TitleFr, e.TitleEn, lang))
	if desc := dto.Localized(e.DescriptionFr, e.DescriptionEn, lang); desc != "" {
		ve.SetDescription(desc)
	}
	if e.LocationName != "" {
		ve.SetLocation(e.LocationName)
	}
	ve.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(e.Type)))

	if e.StartTime != nil && e.EndDate == nil {
		ve.SetProperty(ical.ComponentPropertyDtStart, atTime(e.StartDate, *e.StartTime).Format(floatingLayout))
		if e.EndTime != nil {
			ve.SetProperty(ical.ComponentPropertyDtEnd, atTime(e.StartDate, *e.EndTime).Format(floatingLayout))
		}
		return
	}
	ve.SetAllDayStartAt(e.StartDate)
	// DTEND is exclusive for all-day events
	ve.SetAllDayEndAt(domain.AddDays(e.LastDate(), 1))
}

func (x *Exporter) addPeriod(out *ical.Calendar, p *domain.SpecialPeriod, stamp time.Time) {
	ve := out.AddEvent(fmt.Sprintf("period-%s@%s", p.ID, uidDomain))
	ve.SetDtStampTime(stamp)
	ve.SetSummary(p.Name)
	ve.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(p.Type)))
	ve.SetAllDayStartAt(p.StartDate)
	ve.SetAllDayEndAt(domain.AddDays(p.EndDate, 1))
}

func (x *Exporter) addOpeningGroup(out *ical.Calendar, g *openingGroup, start, end time.Time, lang string, stamp time.Time) error {
	sort.Slice(g.dates, func(i, j int) bool { return g.dates[i].Before(g.dates[j]) })

	weekly, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   firstWeekday(start, g.weekday),
		Until:     end,
		Byweekday: []rrule.Weekday{rruleWeekdays[g.weekday]},
	})
	if err != nil {
		return fmt.Errorf("failed to build weekly rule: %w", err)
	}
	// every occurrence of the weekday in the range
	occurrences := weekly.Between(start, end, true)

	if len(g.dates) > 1 && len(occurrences) == len(g.dates) {
		recurring, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Count:     len(g.dates),
			Byweekday: []rrule.Weekday{rruleWeekdays[g.weekday]},
		})
		if err != nil {
			return fmt.Errorf("failed to build weekly rule: %w", err)
		}
		ve := x.addOpening(out, g, g.dates[0], "weekly", lang, stamp)
		ve.AddRrule(recurring.OrigOptions.RRuleString())
		return nil
	}

	for _, d := range g.dates {
		x.addOpening(out, g, d, domain.FormatDate(d), lang, stamp)
	}
	return nil
}

func (x *Exporter) addOpening(out *ical.Calendar, g *openingGroup, date time.Time, suffix, lang string, stamp time.Time) *ical.VEvent {
	uid := fmt.Sprintf("opening-%s-%s@%s", strings.ToLower(g.weekday.String()[:3]), hashKey(g.key(), suffix), uidDomain)
	ve := out.AddEvent(uid)
	ve.SetDtStampTime(stamp)
	ve.SetSummary(openingSummary(g.hours, lang))
	if g.hours.Description != "" {
		ve.SetDescription(g.hours.Description)
	}
	ve.SetProperty(ical.ComponentPropertyCategories, "OPENING_HOURS")

	if g.hours.StartTime == nil || g.hours.EndTime == nil {
		ve.SetAllDayStartAt(date)
		ve.SetAllDayEndAt(domain.AddDays(date, 1))
		return ve
	}
	ve.SetProperty(ical.ComponentPropertyDtStart, atTime(date, *g.hours.StartTime).Format(floatingLayout))
	ve.SetProperty(ical.ComponentPropertyDtEnd, atTime(date, *g.hours.EndTime).Format(floatingLayout))
	return ve
}

func openingSummary(oh domain.OpeningHours, lang string) string {
	summary := dto.Localized("Ouverture", "Opening hours", lang)
	if oh.AudienceType != "" && oh.AudienceType != "all" {
		summary += " (" + oh.AudienceType + ")"
	}
	return summary
}

// atTime combines a calendar date with an HH:MM[:SS] time of day
func atTime(date time.Time, timeOfDay string) time.Time {
	canonical, err := domain.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return date
	}
	t, _ := time.Parse("15:04:05", canonical)
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// firstWeekday returns the first date on or after start falling on weekday
func firstWeekday(start time.Time, weekday time.Weekday) time.Time {
	offset := (int(weekday) - int(start.Weekday()) + 7) % 7
	return domain.AddDays(start, offset)
}

// hashKey keeps opening UIDs stable and free of separators
func hashKey(parts ...string) string {
	h := fnv.New32a()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
