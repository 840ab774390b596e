package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/internal/repository"
	"github.com/prohmpiriya/venue-calendar/pkg/logger"
	"github.com/prohmpiriya/venue-calendar/pkg/telemetry"
)

// dependencyStore names the relational store in DependencyUnavailableError
const dependencyStore = "postgres"

// relationService implements RelationService
type relationService struct {
	repos repository.Repositories
	tx    repository.Transactor
}

// NewRelationService creates a new RelationService
func NewRelationService(repos repository.Repositories, tx repository.Transactor) RelationService {
	return &relationService{
		repos: repos,
		tx:    tx,
	}
}

// Link adds related edges from parentID to every child
func (s *relationService) Link(ctx context.Context, parentID string, childIDs []string) error {
	const op = "relation.link"
	ctx, span := telemetry.StartSpan(ctx, "service.relation.link")
	defer span.End()
	span.SetAttributes(attribute.String("parent_id", parentID), attribute.Int("children", len(childIDs)))

	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		return linkEvents(ctx, repos, op, parentID, childIDs, domain.RelationTypeRelated)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.NewDependencyError(op, dependencyStore, err)
	}
	return nil
}

// UnlinkAll removes every edge touching eventID
func (s *relationService) UnlinkAll(ctx context.Context, eventID string) error {
	const op = "relation.unlink_all"
	ctx, span := telemetry.StartSpan(ctx, "service.relation.unlink_all")
	defer span.End()
	span.SetAttributes(attribute.String("event_id", eventID))

	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := requireEvent(ctx, repos, op, eventID); err != nil {
			return err
		}
		_, err := repos.Relations.DeleteByEvent(ctx, eventID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.NewDependencyError(op, dependencyStore, err)
	}
	return nil
}

// ReplaceRelated replaces the outgoing related edges of parentID. Incoming
// edges and sub_event edges are kept.
func (s *relationService) ReplaceRelated(ctx context.Context, parentID string, childIDs []string) error {
	const op = "relation.replace"
	ctx, span := telemetry.StartSpan(ctx, "service.relation.replace")
	defer span.End()
	span.SetAttributes(attribute.String("parent_id", parentID), attribute.Int("children", len(childIDs)))

	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		return replaceRelated(ctx, repos, op, parentID, childIDs)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.NewDependencyError(op, dependencyStore, err)
	}
	return nil
}

// Enrich attaches related and parent events to every event
func (s *relationService) Enrich(ctx context.Context, events []*domain.Event) ([]*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.relation.enrich")
	defer span.End()
	span.SetAttributes(attribute.Int("events", len(events)))

	enriched, err := enrichEvents(ctx, s.repos, events)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewDependencyError("relation.enrich", dependencyStore, err)
	}
	return enriched, nil
}

// ListRelations returns the event with its neighbours attached
func (s *relationService) ListRelations(ctx context.Context, eventID string) (*domain.Event, error) {
	const op = "relation.list"
	ctx, span := telemetry.StartSpan(ctx, "service.relation.list")
	defer span.End()

	event, err := s.repos.Events.GetByID(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewDependencyError(op, dependencyStore, err)
	}
	if event == nil {
		return nil, domain.NewNotFoundError(op, "event", eventID)
	}

	if _, err := enrichEvents(ctx, s.repos, []*domain.Event{event}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewDependencyError(op, dependencyStore, err)
	}
	return event, nil
}

// requireEvent fails with NotFoundError when id does not exist
func requireEvent(ctx context.Context, repos repository.Repositories, op, id string) error {
	event, err := repos.Events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event == nil {
		return domain.NewNotFoundError(op, "event", id)
	}
	return nil
}

// linkEvents validates every child before writing anything: a self
// reference or a missing event aborts the batch. Once validated, each edge
// is inserted independently and a failing edge is logged and skipped.
func linkEvents(ctx context.Context, repos repository.Repositories, op, parentID string, childIDs []string, relationType domain.RelationType) error {
	children := uniqueIDs(childIDs)
	if len(children) == 0 {
		return nil
	}

	for _, childID := range children {
		if childID == parentID {
			return domain.NewValidationError(op, "child_event_ids", "an event cannot be related to itself")
		}
	}

	existing, err := repos.Events.ExistingIDs(ctx, append([]string{parentID}, children...))
	if err != nil {
		return err
	}
	if !existing[parentID] {
		return domain.NewNotFoundError(op, "event", parentID)
	}
	for _, childID := range children {
		if !existing[childID] {
			return domain.NewNotFoundError(op, "event", childID)
		}
	}

	log := logger.Get()
	now := time.Now().UTC()
	for _, childID := range children {
		inserted, err := repos.Relations.Insert(ctx, &domain.EventRelation{
			ParentEventID: parentID,
			ChildEventID:  childID,
			RelationType:  relationType,
			CreatedAt:     now,
		})
		if err != nil {
			telemetry.AddSpanEvent(ctx, "relation.skipped",
				attribute.String("parent_id", parentID),
				attribute.String("child_id", childID),
			)
			log.WarnContext(ctx, "Skipping relation that failed to insert",
				zap.String("op", op),
				zap.String("parent_id", parentID),
				zap.String("child_id", childID),
				zap.Error(err),
			)
			continue
		}
		if !inserted {
			log.Debug("Relation already exists",
				zap.String("parent_id", parentID),
				zap.String("child_id", childID),
			)
		}
	}
	return nil
}

// replaceRelated clears every outgoing edge of parentID, sub_event included,
// then links childIDs as related.
// It must run inside the caller's transaction: a rejected batch rolls the
// delete back.
func replaceRelated(ctx context.Context, repos repository.Repositories, op, parentID string, childIDs []string) error {
	if err := requireEvent(ctx, repos, op, parentID); err != nil {
		return err
	}
	if _, err := repos.Relations.DeleteOutgoing(ctx, parentID); err != nil {
		return err
	}
	return linkEvents(ctx, repos, op, parentID, childIDs, domain.RelationTypeRelated)
}

// enrichEvents fetches the edges touching events once, fetches the missing
// neighbours once, then builds the outgoing and incoming lists in memory.
// Neighbours are flat copies without their own relation lists.
func enrichEvents(ctx context.Context, repos repository.Repositories, events []*domain.Event) ([]*domain.Event, error) {
	if len(events) == 0 {
		return events, nil
	}

	byID := make(map[string]*domain.Event, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		if _, ok := byID[e.ID]; !ok {
			byID[e.ID] = e
			ids = append(ids, e.ID)
		}
	}

	edges, err := repos.Relations.ListTouching(ctx, ids)
	if err != nil {
		return nil, err
	}

	var missing []string
	seen := make(map[string]bool)
	for _, edge := range edges {
		for _, id := range []string{edge.ParentEventID, edge.ChildEventID} {
			if _, ok := byID[id]; !ok && !seen[id] {
				seen[id] = true
				missing = append(missing, id)
			}
		}
	}

	neighbours := make(map[string]*domain.Event, len(byID)+len(missing))
	for id, e := range byID {
		neighbours[id] = flatEvent(e)
	}
	if len(missing) > 0 {
		fetched, err := repos.Events.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, e := range fetched {
			neighbours[e.ID] = flatEvent(e)
		}
	}

	for _, e := range byID {
		e.RelatedEvents = []*domain.Event{}
		e.ParentEvents = []*domain.Event{}
	}

	attached := make(map[[3]string]bool)
	for _, edge := range edges {
		if parent, ok := byID[edge.ParentEventID]; ok {
			key := [3]string{"out", edge.ParentEventID, edge.ChildEventID}
			if child, found := neighbours[edge.ChildEventID]; found && !attached[key] {
				attached[key] = true
				parent.RelatedEvents = append(parent.RelatedEvents, child)
			}
		}
		if child, ok := byID[edge.ChildEventID]; ok {
			key := [3]string{"in", edge.ChildEventID, edge.ParentEventID}
			if parent, found := neighbours[edge.ParentEventID]; found && !attached[key] {
				attached[key] = true
				child.ParentEvents = append(child.ParentEvents, parent)
			}
		}
	}

	return events, nil
}

func flatEvent(e *domain.Event) *domain.Event {
	flat := *e
	flat.RelatedEvents = nil
	flat.ParentEvents = nil
	return &flat
}

// uniqueIDs drops blanks and duplicates, keeping the first occurrence
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
