package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/internal/dto"
	"github.com/prohmpiriya/venue-calendar/internal/repository"
	"github.com/prohmpiriya/venue-calendar/pkg/telemetry"
)

// eventQueryService implements EventQueryService
type eventQueryService struct {
	repos repository.Repositories
}

// NewEventQueryService creates a new EventQueryService
func NewEventQueryService(repos repository.Repositories) EventQueryService {
	return &eventQueryService{repos: repos}
}

// ListEvents lists events with filters and pagination
func (s *eventQueryService) ListEvents(ctx context.Context, filter *dto.EventListFilter) (*dto.EventPage, error) {
	filter.SetDefaults()

	repoFilter, err := BuildEventFilter("event.list", filter)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, repoFilter, filter.Page, filter.Limit, filter.IncludeRelations)
}

// Query returns one page of events matching filter. Enrichment covers the
// returned page only.
func (s *eventQueryService) Query(ctx context.Context, filter *repository.EventFilter, page, limit int, includeRelations bool) (*dto.EventPage, error) {
	const op = "event.list"
	ctx, span := telemetry.StartSpan(ctx, "service.event.list")
	defer span.End()

	if page <= 0 {
		page = dto.DefaultPage
	}
	if limit <= 0 {
		limit = dto.DefaultLimit
	}
	if limit > dto.MaxLimit {
		limit = dto.MaxLimit
	}
	span.SetAttributes(attribute.Int("page", page), attribute.Int("limit", limit))

	events, total, err := s.repos.Events.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewDependencyError(op, dependencyStore, err)
	}

	if includeRelations {
		if _, err := enrichEvents(ctx, s.repos, events); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, domain.NewDependencyError(op, dependencyStore, err)
		}
	}

	span.SetAttributes(attribute.Int("total", total))
	return dto.NewEventPage(events, total, page, limit), nil
}

// BuildEventFilter parses request filters. type and status accept a comma
// separated list of values.
func BuildEventFilter(op string, f *dto.EventListFilter) (*repository.EventFilter, error) {
	filter := &repository.EventFilter{IsActive: f.IsActive}

	for _, v := range splitList(f.Type) {
		t := domain.EventType(v)
		if !t.Valid() {
			return nil, domain.NewValidationError(op, "type", "unknown event type "+v)
		}
		filter.Types = append(filter.Types, t)
	}
	for _, v := range splitList(f.Status) {
		st := domain.EventStatus(v)
		if !st.Valid() {
			return nil, domain.NewValidationError(op, "status", "unknown status "+v)
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	if f.Category != "" {
		c := domain.EventCategory(f.Category)
		if !c.Valid() {
			return nil, domain.NewValidationError(op, "category", "unknown category "+f.Category)
		}
		filter.Category = &c
	}
	if f.LocationType != "" {
		l := domain.LocationType(f.LocationType)
		if !l.Valid() {
			return nil, domain.NewValidationError(op, "location_type", "must be museum or external")
		}
		filter.LocationType = &l
	}

	var err error
	if filter.From, err = parseFilterDate(op, "start_date", f.StartDate); err != nil {
		return nil, err
	}
	if filter.To, err = parseFilterDate(op, "end_date", f.EndDate); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.NewValidationError(op, "end_date", "must be on or after start_date")
	}
	if filter.Date, err = parseFilterDate(op, "date", f.Date); err != nil {
		return nil, err
	}

	return filter, nil
}

func parseFilterDate(op, field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return nil, domain.NewValidationError(op, field, err.Error())
	}
	return &d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
