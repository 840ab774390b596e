package service

import (
	"context"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/internal/dto"
	"github.com/prohmpiriya/venue-calendar/internal/repository"
)

// EventService defines the interface for event business logic
type EventService interface {
	// CreateEvent validates and inserts a new event, linking related events
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error)
	// GetEventByID retrieves an event by ID, with neighbours when includeRelations is set
	GetEventByID(ctx context.Context, id string, includeRelations bool) (*domain.Event, error)
	// UpdateEvent applies a partial update
	UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*domain.Event, error)
	// DeleteEvent hard deletes an event and its edges, reporting whether it existed
	DeleteEvent(ctx context.Context, id string) (bool, error)
}

// RelationService defines the interface for the event relation graph
type RelationService interface {
	// Link adds related edges from parentID to every child
	Link(ctx context.Context, parentID string, childIDs []string) error
	// UnlinkAll removes every edge touching eventID
	UnlinkAll(ctx context.Context, eventID string) error
	// ReplaceRelated replaces the outgoing related edges of parentID
	ReplaceRelated(ctx context.Context, parentID string, childIDs []string) error
	// Enrich attaches related and parent events to every event
	Enrich(ctx context.Context, events []*domain.Event) ([]*domain.Event, error)
	// ListRelations returns the event with its neighbours attached
	ListRelations(ctx context.Context, eventID string) (*domain.Event, error)
}

// EventQueryService defines the interface for filtered event listings
type EventQueryService interface {
	// ListEvents parses request filters and returns one page
	ListEvents(ctx context.Context, filter *dto.EventListFilter) (*dto.EventPage, error)
	// Query returns one page for an already parsed filter
	Query(ctx context.Context, filter *repository.EventFilter, page, limit int, includeRelations bool) (*dto.EventPage, error)
}

// CalendarService defines the interface for calendar aggregation
type CalendarService interface {
	// Build resolves the requested range and assembles one entry per day
	Build(ctx context.Context, req *dto.CalendarRequest) (*domain.CalendarResponse, error)
}
