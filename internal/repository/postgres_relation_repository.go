package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/pkg/database"
)

// PostgresRelationRepository implements RelationRepository using PostgreSQL
type PostgresRelationRepository struct {
	db DBTX
}

// NewPostgresRelationRepository creates a new PostgresRelationRepository
func NewPostgresRelationRepository(db DBTX) *PostgresRelationRepository {
	return &PostgresRelationRepository{db: db}
}

// Insert adds an edge under its own savepoint when db is a transaction, so a
// failed edge does not poison the enclosing transaction
func (r *PostgresRelationRepository) Insert(ctx context.Context, relation *domain.EventRelation) (bool, error) {
	query := `
		INSERT INTO event_relations (parent_event_id, child_event_id, relation_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (parent_event_id, child_event_id, relation_type) DO NOTHING
	`

	var inserted bool
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query,
			relation.ParentEventID,
			relation.ChildEventID,
			string(relation.RelationType),
			relation.CreatedAt,
		)
		if err != nil {
			return err
		}
		inserted = result.RowsAffected() > 0
		return nil
	})
	return inserted, err
}

// DeleteByEvent removes every edge where the event is parent or child
func (r *PostgresRelationRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	result, err := r.db.Exec(ctx,
		`DELETE FROM event_relations WHERE parent_event_id = $1 OR child_event_id = $1`,
		eventID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// DeleteOutgoing removes every edge whose parent is parentID, whatever its type
func (r *PostgresRelationRepository) DeleteOutgoing(ctx context.Context, parentID string) (int64, error) {
	result, err := r.db.Exec(ctx,
		`DELETE FROM event_relations WHERE parent_event_id = $1`,
		parentID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// ListTouching returns every edge with either endpoint in ids
func (r *PostgresRelationRepository) ListTouching(ctx context.Context, ids []string) ([]*domain.EventRelation, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return []*domain.EventRelation{}, nil
	}

	query := `
		SELECT parent_event_id::text, child_event_id::text, relation_type, created_at
		FROM event_relations
		WHERE parent_event_id = ANY($1::uuid[]) OR child_event_id = ANY($1::uuid[])
		ORDER BY created_at ASC, parent_event_id, child_event_id
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	relations := []*domain.EventRelation{}
	for rows.Next() {
		rel := &domain.EventRelation{}
		var relationType string
		if err := rows.Scan(&rel.ParentEventID, &rel.ChildEventID, &relationType, &rel.CreatedAt); err != nil {
			return nil, err
		}
		rel.RelationType = domain.RelationType(relationType)
		relations = append(relations, rel)
	}
	return relations, rows.Err()
}
