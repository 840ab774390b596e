package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/venue-calendar/pkg/database"
)

// PostgresTransactor binds repositories to a single pgx transaction
type PostgresTransactor struct {
	db database.Beginner
}

// NewPostgresTransactor creates a new PostgresTransactor
func NewPostgresTransactor(db database.Beginner) *PostgresTransactor {
	return &PostgresTransactor{db: db}
}

// WithinTx runs fn in a transaction, committing when it returns nil
func (t *PostgresTransactor) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	return database.WithTx(ctx, t.db, func(tx pgx.Tx) error {
		return fn(NewRepositories(tx))
	})
}

// NewRepositories builds the Postgres repositories over db
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Events:    NewPostgresEventRepository(db),
		Relations: NewPostgresRelationRepository(db),
	}
}
