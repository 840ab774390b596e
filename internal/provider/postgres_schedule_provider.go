package provider

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/venue-calendar/internal/domain"
)

// PostgresScheduleProvider reads the schedules table
type PostgresScheduleProvider struct {
	db     Querier
	policy ReadPolicy
}

// NewPostgresScheduleProvider creates a new PostgresScheduleProvider
func NewPostgresScheduleProvider(db Querier, policy ReadPolicy) *PostgresScheduleProvider {
	return &PostgresScheduleProvider{db: db, policy: policy}
}

// day_of_week follows time.Weekday: 0 is Sunday
const scheduleQuery = `
	SELECT id::text, day_of_week, start_date, end_date,
		start_time::text, end_time::text,
		COALESCE(audience_type, 'all'), COALESCE(description, ''),
		is_closed, is_exception
	FROM schedules
	WHERE (NOT is_exception AND day_of_week = $1)
	   OR ($3 AND is_exception AND start_date <= $2 AND COALESCE(end_date, start_date) >= $2)
	ORDER BY start_time ASC NULLS LAST, id ASC
`

// GetApplicable returns the schedules of weekday, or the exceptions
// covering date when there are any
func (p *PostgresScheduleProvider) GetApplicable(ctx context.Context, weekday time.Weekday, date time.Time, includeExceptions bool) ([]*domain.Schedule, error) {
	var schedules []*domain.Schedule
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		rows, err := p.db.Query(ctx, scheduleQuery, int(weekday), domain.NormalizeDate(date), includeExceptions)
		if err != nil {
			return err
		}
		schedules, err = scanSchedules(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return SelectApplicable(schedules), nil
}

// SelectApplicable applies the exception policy: exception windows covering
// a date replace that weekday's rules entirely. This intentionally differs
// from a union of weekly and exception rows, so a closed exception day never
// also reports its weekly opening hours.
func SelectApplicable(schedules []*domain.Schedule) []*domain.Schedule {
	var weekly, exceptions []*domain.Schedule
	for _, s := range schedules {
		if s.IsException {
			exceptions = append(exceptions, s)
		} else {
			weekly = append(weekly, s)
		}
	}
	if len(exceptions) > 0 {
		return exceptions
	}
	if weekly == nil {
		return []*domain.Schedule{}
	}
	return weekly
}

func scanSchedules(rows pgx.Rows) ([]*domain.Schedule, error) {
	defer rows.Close()

	schedules := []*domain.Schedule{}
	for rows.Next() {
		s := &domain.Schedule{}
		var dayOfWeek *int16
		if err := rows.Scan(
			&s.ID,
			&dayOfWeek,
			&s.StartDate,
			&s.EndDate,
			&s.StartTime,
			&s.EndTime,
			&s.AudienceType,
			&s.Description,
			&s.IsClosed,
			&s.IsException,
		); err != nil {
			return nil, err
		}
		if dayOfWeek != nil {
			d := int(*dayOfWeek)
			s.DayOfWeek = &d
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}
