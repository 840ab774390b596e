package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prohmpiriya/venue-calendar/internal/domain"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so repositories run the
// same way inside or outside a transaction
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ErrEventNotFound is returned by writes whose target row does not exist
var ErrEventNotFound = errors.New("event not found")

// EventRepository defines the interface for event data access
type EventRepository interface {
	// Create inserts a new event
	Create(ctx context.Context, event *domain.Event) error
	// GetByID retrieves an event by ID, nil when absent
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// GetByIDs retrieves every existing event among ids
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Event, error)
	// ExistingIDs returns the subset of ids that exist
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	// Update writes every mutable column of an event, ErrEventNotFound
	// when the row is gone
	Update(ctx context.Context, event *domain.Event) error
	// Delete hard deletes an event, reporting whether a row was removed
	Delete(ctx context.Context, id string) (bool, error)
	// List lists events matching filter with the total match count
	List(ctx context.Context, filter *EventFilter, limit, offset int) ([]*domain.Event, int, error)
}

// EventFilter contains filter options for listing events. Every set field
// narrows the result.
type EventFilter struct {
	Types        []domain.EventType
	Category     *domain.EventCategory
	Statuses     []domain.EventStatus
	LocationType *domain.LocationType
	IsActive     *bool

	// From/To select events whose [start_date, end_date-or-start_date]
	// intersects the window; either bound may be open
	From *time.Time
	To   *time.Time

	// Date selects events spanning that day
	Date *time.Time
}

// RelationRepository defines the interface for event relation data access
type RelationRepository interface {
	// Insert adds an edge, reporting false when it already existed
	Insert(ctx context.Context, relation *domain.EventRelation) (bool, error)
	// DeleteByEvent removes every edge where the event is parent or child
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
	// DeleteOutgoing removes every edge whose parent is parentID
	DeleteOutgoing(ctx context.Context, parentID string) (int64, error)
	// ListTouching returns every edge with either endpoint in ids
	ListTouching(ctx context.Context, ids []string) ([]*domain.EventRelation, error)
}

// Repositories groups the repositories bound to one connection or transaction
type Repositories struct {
	Events    EventRepository
	Relations RelationRepository
}

// Transactor runs fn against repositories sharing one transaction. The
// transaction commits when fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
