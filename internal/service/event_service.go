package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/internal/dto"
	"github.com/prohmpiriya/venue-calendar/internal/repository"
	"github.com/prohmpiriya/venue-calendar/pkg/logger"
	"github.com/prohmpiriya/venue-calendar/pkg/telemetry"
)

// eventService implements EventService
type eventService struct {
	repos repository.Repositories
	tx    repository.Transactor
	now   func() time.Time
}

// NewEventService creates a new EventService
func NewEventService(repos repository.Repositories, tx repository.Transactor) EventService {
	return &eventService{
		repos: repos,
		tx:    tx,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateEvent validates and inserts a new event. Related events are linked
// in the same transaction, so a missing one aborts the creation.
func (s *eventService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error) {
	const op = "event.create"
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	// Validate request
	if valid, msg := req.Validate(); !valid {
		return nil, domain.NewValidationError(op, "", msg)
	}

	event, err := req.ToEvent(op)
	if err != nil {
		return nil, err
	}
	if err := event.Validate(op); err != nil {
		return nil, err
	}
	normalizeTimes(event)

	now := s.now()
	event.ID = uuid.New().String()
	event.CreatedAt = now
	event.UpdatedAt = now
	span.SetAttributes(attribute.String("event_id", event.ID), attribute.String("event_type", string(event.Type)))

	err = s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Events.Create(ctx, event); err != nil {
			return err
		}
		return linkEvents(ctx, repos, op, event.ID, req.RelatedEventIDs, domain.RelationTypeRelated)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewDependencyError(op, dependencyStore, err)
	}

	logger.Get().Info("Event created",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int("related", len(req.RelatedEventIDs)),
	)
	return event, nil
}

// GetEventByID retrieves an event by ID
func (s *eventService) GetEventByID(ctx context.Context, id string, includeRelations bool) (*domain.Event, error) {
	const op = "event.get"
	ctx, span := telemetry.StartSpan(ctx, "service.event.get")
	defer span.End()
	span.SetAttributes(attribute.String("event_id", id), attribute.Bool("include_relations", includeRelations))

	event, err := s.repos.Events.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewDependencyError(op, dependencyStore, err)
	}
	if event == nil {
		return nil, domain.NewNotFoundError(op, "event", id)
	}

	if includeRelations {
		if _, err := enrichEvents(ctx, s.repos, []*domain.Event{event}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, domain.NewDependencyError(op, dependencyStore, err)
		}
	}
	return event, nil
}

// UpdateEvent overlays the patch on the stored record and re-validates the
// effective values, so a patch touching only end_date is still checked
// against the stored start_date. An empty patch writes nothing.
func (s *eventService) UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*domain.Event, error) {
	const op = "event.update"
	ctx, span := telemetry.StartSpan(ctx, "service.event.update")
	defer span.End()
	span.SetAttributes(attribute.String("event_id", id))

	var result *domain.Event
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		existing, err := repos.Events.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.NewNotFoundError(op, "event", id)
		}
		if req.IsEmpty() {
			result = existing
			return nil
		}

		updated, err := req.ApplyTo(op, existing)
		if err != nil {
			return err
		}
		if err := updated.Validate(op); err != nil {
			return err
		}
		normalizeTimes(updated)
		updated.UpdatedAt = s.now()

		if err := repos.Events.Update(ctx, updated); err != nil {
			if errors.Is(err, repository.ErrEventNotFound) {
				return domain.NewNotFoundError(op, "event", id)
			}
			return err
		}

		if req.RelatedEventIDs.Set {
			if err := replaceRelated(ctx, repos, op, id, req.RelatedIDs()); err != nil {
				return err
			}
		}

		result = updated
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewDependencyError(op, dependencyStore, err)
	}
	return result, nil
}

// DeleteEvent removes the edges touching the event and then the event
func (s *eventService) DeleteEvent(ctx context.Context, id string) (bool, error) {
	const op = "event.delete"
	ctx, span := telemetry.StartSpan(ctx, "service.event.delete")
	defer span.End()
	span.SetAttributes(attribute.String("event_id", id))

	var deleted bool
	var edges int64
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		edges, err = repos.Relations.DeleteByEvent(ctx, id)
		if err != nil {
			return err
		}
		deleted, err = repos.Events.Delete(ctx, id)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, domain.NewDependencyError(op, dependencyStore, err)
	}

	if deleted {
		logger.Get().Info("Event deleted", zap.String("event_id", id), zap.Int64("edges_removed", edges))
	}
	return deleted, nil
}

// normalizeTimes stores times of day as HH:MM:SS. Invalid values were
// already rejected by Validate.
func normalizeTimes(e *domain.Event) {
	for _, t := range []**string{&e.StartTime, &e.EndTime} {
		if *t == nil {
			continue
		}
		if canonical, err := domain.ParseTimeOfDay(**t); err == nil {
			*t = &canonical
		}
	}
}
