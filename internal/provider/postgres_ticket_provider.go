package provider

import (
	"context"
	"time"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
)

// PostgresTicketCountProvider counts paid rows of the tickets table
type PostgresTicketCountProvider struct {
	db     Querier
	policy ReadPolicy
}

// NewPostgresTicketCountProvider creates a new PostgresTicketCountProvider
func NewPostgresTicketCountProvider(db Querier, policy ReadPolicy) *PostgresTicketCountProvider {
	return &PostgresTicketCountProvider{db: db, policy: policy}
}

// CountPaidByDate counts paid tickets per visit date in [start, end]
func (p *PostgresTicketCountProvider) CountPaidByDate(ctx context.Context, start, end time.Time) (map[string]int, error) {
	query := `
		SELECT visit_date, COUNT(*)
		FROM tickets
		WHERE status = 'paid' AND visit_date BETWEEN $1 AND $2
		GROUP BY visit_date
	`

	var counts map[string]int
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		rows, err := p.db.Query(ctx, query, domain.NormalizeDate(start), domain.NormalizeDate(end))
		if err != nil {
			return err
		}
		defer rows.Close()

		counts = make(map[string]int)
		for rows.Next() {
			var (
				day   time.Time
				count int
			)
			if err := rows.Scan(&day, &count); err != nil {
				return err
			}
			counts[domain.FormatDate(day)] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
