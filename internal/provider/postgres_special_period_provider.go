package provider

import (
	"context"
	"fmt"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
)

// PostgresSpecialPeriodProvider reads the special_periods table
type PostgresSpecialPeriodProvider struct {
	db     Querier
	policy ReadPolicy
}

// NewPostgresSpecialPeriodProvider creates a new PostgresSpecialPeriodProvider
func NewPostgresSpecialPeriodProvider(db Querier, policy ReadPolicy) *PostgresSpecialPeriodProvider {
	return &PostgresSpecialPeriodProvider{db: db, policy: policy}
}

// GetActive lists special periods, ordered by start date
func (p *PostgresSpecialPeriodProvider) GetActive(ctx context.Context, filter SpecialPeriodFilter) ([]*domain.SpecialPeriod, error) {
	where := "TRUE"
	var args []interface{}
	if filter.IsActive != nil {
		where = "is_active = $1"
		args = append(args, *filter.IsActive)
	}

	query := fmt.Sprintf(`
		SELECT id::text, type, name, start_date, end_date, zone, is_active
		FROM special_periods
		WHERE %s
		ORDER BY start_date ASC, id ASC
	`, where)

	var periods []*domain.SpecialPeriod
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		rows, err := p.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		periods = []*domain.SpecialPeriod{}
		for rows.Next() {
			sp := &domain.SpecialPeriod{}
			var periodType string
			if err := rows.Scan(&sp.ID, &periodType, &sp.Name, &sp.StartDate, &sp.EndDate, &sp.Zone, &sp.IsActive); err != nil {
				return err
			}
			sp.Type = domain.SpecialPeriodType(periodType)
			periods = append(periods, sp)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return periods, nil
}
