package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/internal/dto"
	"github.com/prohmpiriya/venue-calendar/internal/provider"
	"github.com/prohmpiriya/venue-calendar/internal/repository"
	"github.com/prohmpiriya/venue-calendar/pkg/telemetry"
)

const (
	// maxConcurrentReads bounds the provider calls of one build
	maxConcurrentReads = 8

	// DefaultMaxRangeDays is used when no maximum is configured
	DefaultMaxRangeDays = 366
)

// defaultVisibility is shown to callers that ask for neither a status nor
// private events
var defaultVisibility = []domain.EventStatus{domain.EventStatusPublic, domain.EventStatusMember}

// CalendarDependencies groups the collaborators of the calendar builder
type CalendarDependencies struct {
	Events         EventQueryService
	Schedules      provider.ScheduleProvider
	SpecialPeriods provider.SpecialPeriodProvider
	Tickets        provider.TicketCountProvider
	MaxRangeDays   int
}

// calendarService implements CalendarService
type calendarService struct {
	events       EventQueryService
	schedules    provider.ScheduleProvider
	periods      provider.SpecialPeriodProvider
	tickets      provider.TicketCountProvider
	maxRangeDays int
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(deps CalendarDependencies) CalendarService {
	maxRange := deps.MaxRangeDays
	if maxRange <= 0 {
		maxRange = DefaultMaxRangeDays
	}
	return &calendarService{
		events:       deps.Events,
		schedules:    deps.Schedules,
		periods:      deps.SpecialPeriods,
		tickets:      deps.Tickets,
		maxRangeDays: maxRange,
	}
}

// calendarQuery is a validated CalendarRequest
type calendarQuery struct {
	start, end time.Time
	view       domain.View
	types      []domain.EventType
	// statuses is nil when every status is visible
	statuses []domain.EventStatus
}

// Build resolves the range, reads every collaborator concurrently and
// assembles one CalendarDay per date. Any failed read fails the build.
func (s *calendarService) Build(ctx context.Context, req *dto.CalendarRequest) (*domain.CalendarResponse, error) {
	const op = "calendar.build"
	ctx, span := telemetry.StartSpan(ctx, "service.calendar.build")
	defer span.End()

	q, err := s.parseRequest(op, req)
	if err != nil {
		return nil, err
	}
	dates := domain.DatesBetween(q.start, q.end)
	span.SetAttributes(
		attribute.String("view", string(q.view)),
		attribute.String("start_date", domain.FormatDate(q.start)),
		attribute.String("end_date", domain.FormatDate(q.end)),
		attribute.Int("days", len(dates)),
	)

	var (
		counts    map[string]int
		periods   []*domain.SpecialPeriod
		byType    = make([][]*domain.Event, len(q.types))
		schedules = make([][]*domain.Schedule, len(dates))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	g.Go(func() error {
		c, err := s.tickets.CountPaidByDate(gctx, q.start, q.end)
		if err != nil {
			return domain.NewDependencyError(op, "ticket_count_provider", err)
		}
		counts = c
		return nil
	})

	g.Go(func() error {
		active := true
		p, err := s.periods.GetActive(gctx, provider.SpecialPeriodFilter{IsActive: &active})
		if err != nil {
			return domain.NewDependencyError(op, "special_period_provider", err)
		}
		periods = p
		return nil
	})

	for i, t := range q.types {
		g.Go(func() error {
			events, err := s.gatherEvents(gctx, t, q)
			if err != nil {
				return domain.NewDependencyError(op, "event_query", err)
			}
			byType[i] = events
			return nil
		})
	}

	for i, d := range dates {
		g.Go(func() error {
			sch, err := s.schedules.GetApplicable(gctx, d.Weekday(), d, true)
			if err != nil {
				return domain.NewDependencyError(op, "schedule_provider", err)
			}
			schedules[i] = sch
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewDependencyError(op, "request", err)
	}

	events := filterStatuses(dedupByID(byType), q.statuses)
	sortEvents(events)

	cal := &domain.CalendarResponse{
		StartDate: q.start,
		EndDate:   q.end,
		View:      q.view,
		Days:      make([]*domain.CalendarDay, 0, len(dates)),
	}
	for i, d := range dates {
		cal.Days = append(cal.Days, assembleDay(d, schedules[i], periods, counts, events))
	}

	span.SetAttributes(attribute.Int("events", len(events)))
	return cal, nil
}

func (s *calendarService) parseRequest(op string, req *dto.CalendarRequest) (*calendarQuery, error) {
	anchor, err := domain.ParseDate(req.StartDate)
	if err != nil {
		return nil, domain.NewValidationError(op, "start_date", err.Error())
	}
	var end *time.Time
	if req.EndDate != "" {
		d, err := domain.ParseDate(req.EndDate)
		if err != nil {
			return nil, domain.NewValidationError(op, "end_date", err.Error())
		}
		end = &d
	}

	q := &calendarQuery{}
	q.start, q.end, q.view = domain.ResolveRange(domain.View(strings.ToLower(req.View)), anchor, end)
	if q.end.Before(q.start) {
		return nil, domain.NewValidationError(op, "end_date", "must be on or after start_date")
	}
	if days := domain.DaysInclusive(q.start, q.end); days > s.maxRangeDays {
		return nil, domain.NewValidationError(op, "end_date", fmt.Sprintf("range of %d days exceeds the maximum of %d", days, s.maxRangeDays))
	}

	for _, v := range req.Types() {
		t := domain.EventType(v)
		if !t.Valid() {
			return nil, domain.NewValidationError(op, "event_types", "unknown event type "+v)
		}
		q.types = append(q.types, t)
	}
	if len(q.types) == 0 {
		q.types = domain.AllEventTypes
	}

	var status *domain.EventStatus
	if req.Status != "" {
		st := domain.EventStatus(req.Status)
		if !st.Valid() {
			return nil, domain.NewValidationError(op, "status", "unknown status "+req.Status)
		}
		status = &st
	}
	q.statuses = ResolveVisibility(req.IncludePrivate, status)

	return q, nil
}

// ResolveVisibility returns the statuses a calendar shows: every status
// (nil) with includePrivate, the single requested status, or public and
// member by default
func ResolveVisibility(includePrivate bool, status *domain.EventStatus) []domain.EventStatus {
	switch {
	case includePrivate:
		return nil
	case status != nil:
		return []domain.EventStatus{*status}
	default:
		return defaultVisibility
	}
}

// gatherEvents reads every page of active events of one type overlapping
// the range. The query narrows by status only when a single one is visible.
func (s *calendarService) gatherEvents(ctx context.Context, t domain.EventType, q *calendarQuery) ([]*domain.Event, error) {
	active := true
	from, to := q.start, q.end
	filter := &repository.EventFilter{
		Types:    []domain.EventType{t},
		IsActive: &active,
		From:     &from,
		To:       &to,
	}
	if len(q.statuses) == 1 {
		filter.Statuses = q.statuses
	}

	var events []*domain.Event
	for page := 1; ; page++ {
		result, err := s.events.Query(ctx, filter, page, dto.MaxLimit, false)
		if err != nil {
			return nil, err
		}
		events = append(events, result.Events...)
		if len(result.Events) == 0 || page >= result.TotalPages {
			return events, nil
		}
	}
}

// dedupByID flattens the per-type results keeping the first copy of each id
func dedupByID(groups [][]*domain.Event) []*domain.Event {
	seen := make(map[string]bool)
	var out []*domain.Event
	for _, group := range groups {
		for _, e := range group {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out
}

// filterStatuses keeps events whose status is visible; nil keeps all
func filterStatuses(events []*domain.Event, statuses []domain.EventStatus) []*domain.Event {
	if statuses == nil {
		return events
	}
	visible := make(map[domain.EventStatus]bool, len(statuses))
	for _, st := range statuses {
		visible[st] = true
	}
	out := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if visible[e.Status] {
			out = append(out, e)
		}
	}
	return out
}

func sortEvents(events []*domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if c := domain.CompareTimeOfDay(a.StartTime, b.StartTime); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

// assembleDay merges the reads of one date
func assembleDay(date time.Time, schedules []*domain.Schedule, periods []*domain.SpecialPeriod, counts map[string]int, events []*domain.Event) *domain.CalendarDay {
	day := domain.NewCalendarDay(date)

	for _, sch := range schedules {
		if sch.IsClosed {
			continue
		}
		day.IsOpen = true
		day.OpeningHours = append(day.OpeningHours, domain.OpeningHours{
			StartTime:    sch.StartTime,
			EndTime:      sch.EndTime,
			AudienceType: sch.AudienceType,
			Description:  sch.Description,
		})
	}
	sort.SliceStable(day.OpeningHours, func(i, j int) bool {
		return domain.CompareTimeOfDay(day.OpeningHours[i].StartTime, day.OpeningHours[j].StartTime) < 0
	})

	for _, p := range periods {
		if !p.Covers(date) {
			continue
		}
		switch p.Type {
		case domain.SpecialPeriodHoliday:
			day.HolidayPeriods = append(day.HolidayPeriods, p)
		case domain.SpecialPeriodClosure:
			day.ClosurePeriods = append(day.ClosurePeriods, p)
		}
	}

	day.PaidTicketsCount = counts[domain.FormatDate(date)]

	for _, e := range events {
		if e.OccursOn(date) {
			day.Events = append(day.Events, e)
		}
	}

	return day
}
