package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/venue-calendar/internal/domain"
)

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	db DBTX
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(db DBTX) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// eventColumns defines the columns to select for events.
// TIME columns are read as text to keep the HH:MM:SS wire form.
const eventColumns = `id::text, type, category, status, start_date, end_date,
	start_time::text, end_time::text, location_type,
	COALESCE(location_name, '') as location_name,
	COALESCE(location_address, '') as location_address,
	COALESCE(title_fr, '') as title_fr,
	COALESCE(title_en, '') as title_en,
	COALESCE(description_fr, '') as description_fr,
	COALESCE(description_en, '') as description_en,
	COALESCE(private_notes, '') as private_notes,
	COALESCE(contact_name, '') as contact_name,
	COALESCE(contact_email, '') as contact_email,
	manager_dev, manager_bureau, manager_museum, manager_com,
	capacity, is_active, created_at, updated_at`

// eventOrder sorts by date, then time with untimed events last
const eventOrder = `start_date ASC, start_time ASC NULLS LAST, id ASC`

// scanEvent scans a row into an Event struct
func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	var (
		eventType, status, locationType string
		category                        *string
	)

	err := row.Scan(
		&event.ID,
		&eventType,
		&category,
		&status,
		&event.StartDate,
		&event.EndDate,
		&event.StartTime,
		&event.EndTime,
		&locationType,
		&event.LocationName,
		&event.LocationAddress,
		&event.TitleFr,
		&event.TitleEn,
		&event.DescriptionFr,
		&event.DescriptionEn,
		&event.PrivateNotes,
		&event.ContactName,
		&event.ContactEmail,
		&event.ManagerDev,
		&event.ManagerBureau,
		&event.ManagerMuseum,
		&event.ManagerCom,
		&event.Capacity,
		&event.IsActive,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Type = domain.EventType(eventType)
	event.Status = domain.EventStatus(status)
	event.LocationType = domain.LocationType(locationType)
	if category != nil {
		c := domain.EventCategory(*category)
		event.Category = &c
	}
	return event, nil
}

// scanEvents scans multiple rows into Event structs
func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	events := []*domain.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func categoryArg(c *domain.EventCategory) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

// validIDs drops ids that can never match the uuid primary key
func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// Create inserts a new event
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (
			id, type, category, status, start_date, end_date, start_time, end_time,
			location_type, location_name, location_address, title_fr, title_en,
			description_fr, description_en, private_notes, contact_name, contact_email,
			manager_dev, manager_bureau, manager_museum, manager_com, capacity, is_active,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7::text::time, $8::text::time, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		string(event.Type),
		categoryArg(event.Category),
		string(event.Status),
		event.StartDate,
		event.EndDate,
		event.StartTime,
		event.EndTime,
		string(event.LocationType),
		event.LocationName,
		event.LocationAddress,
		event.TitleFr,
		event.TitleEn,
		event.DescriptionFr,
		event.DescriptionEn,
		event.PrivateNotes,
		event.ContactName,
		event.ContactEmail,
		event.ManagerDev,
		event.ManagerBureau,
		event.ManagerMuseum,
		event.ManagerCom,
		event.Capacity,
		event.IsActive,
		event.CreatedAt,
		event.UpdatedAt,
	)
	return err
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	event, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

// GetByIDs retrieves every existing event among ids
func (r *PostgresEventRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Event, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return []*domain.Event{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = ANY($1::uuid[]) ORDER BY %s`, eventColumns, eventOrder)
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ExistingIDs returns the subset of ids that exist
func (r *PostgresEventRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	ids = validIDs(ids)
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id::text FROM events WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// Update writes every mutable column of an event
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events SET
			type = $2, category = $3, status = $4, start_date = $5, end_date = $6,
			start_time = $7::text::time, end_time = $8::text::time, location_type = $9,
			location_name = $10, location_address = $11, title_fr = $12, title_en = $13,
			description_fr = $14, description_en = $15, private_notes = $16,
			contact_name = $17, contact_email = $18, manager_dev = $19,
			manager_bureau = $20, manager_museum = $21, manager_com = $22,
			capacity = $23, is_active = $24, updated_at = $25
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		event.ID,
		string(event.Type),
		categoryArg(event.Category),
		string(event.Status),
		event.StartDate,
		event.EndDate,
		event.StartTime,
		event.EndTime,
		string(event.LocationType),
		event.LocationName,
		event.LocationAddress,
		event.TitleFr,
		event.TitleEn,
		event.DescriptionFr,
		event.DescriptionEn,
		event.PrivateNotes,
		event.ContactName,
		event.ContactEmail,
		event.ManagerDev,
		event.ManagerBureau,
		event.ManagerMuseum,
		event.ManagerCom,
		event.Capacity,
		event.IsActive,
		event.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// Delete hard deletes an event by ID
func (r *PostgresEventRepository) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	result, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// buildEventWhere renders filter as a conjunctive WHERE clause with
// positional arguments. The date window is an overlap test: an event is kept
// when it starts on or before To and ends (or starts) on or after From.
func buildEventWhere(filter *EventFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter != nil {
		if len(filter.Types) > 0 {
			types := make([]string, len(filter.Types))
			for i, t := range filter.Types {
				types[i] = string(t)
			}
			conditions = append(conditions, fmt.Sprintf("type = ANY($%d)", argIndex))
			args = append(args, types)
			argIndex++
		}
		if filter.Category != nil {
			conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
			args = append(args, string(*filter.Category))
			argIndex++
		}
		if len(filter.Statuses) > 0 {
			statuses := make([]string, len(filter.Statuses))
			for i, s := range filter.Statuses {
				statuses[i] = string(s)
			}
			conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", argIndex))
			args = append(args, statuses)
			argIndex++
		}
		if filter.LocationType != nil {
			conditions = append(conditions, fmt.Sprintf("location_type = $%d", argIndex))
			args = append(args, string(*filter.LocationType))
			argIndex++
		}
		if filter.IsActive != nil {
			conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
			args = append(args, *filter.IsActive)
			argIndex++
		}
		if filter.To != nil {
			conditions = append(conditions, fmt.Sprintf("start_date <= $%d", argIndex))
			args = append(args, *filter.To)
			argIndex++
		}
		if filter.From != nil {
			conditions = append(conditions, fmt.Sprintf("COALESCE(end_date, start_date) >= $%d", argIndex))
			args = append(args, *filter.From)
			argIndex++
		}
		if filter.Date != nil {
			conditions = append(conditions, fmt.Sprintf("start_date <= $%d AND COALESCE(end_date, start_date) >= $%d", argIndex, argIndex))
			args = append(args, *filter.Date)
			argIndex++
		}
	}

	if len(conditions) == 0 {
		return "TRUE", args
	}
	return strings.Join(conditions, " AND "), args
}

// List lists events with filters and pagination
func (r *PostgresEventRepository) List(ctx context.Context, filter *EventFilter, limit, offset int) ([]*domain.Event, int, error) {
	whereClause, args := buildEventWhere(filter)
	argIndex := len(args) + 1

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM events WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM events
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, eventColumns, whereClause, eventOrder, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
