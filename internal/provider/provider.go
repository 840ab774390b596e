// Package provider holds the read-only collaborators of the calendar
// builder: opening schedules, special periods and paid ticket counts.
package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/pkg/retry"
)

// ScheduleProvider resolves the opening rules applying to one date
type ScheduleProvider interface {
	// GetApplicable returns the weekly rules of weekday, replaced by the
	// exception windows covering date when includeExceptions is set
	GetApplicable(ctx context.Context, weekday time.Weekday, date time.Time, includeExceptions bool) ([]*domain.Schedule, error)
}

// SpecialPeriodFilter narrows special period reads
type SpecialPeriodFilter struct {
	IsActive *bool
}

// SpecialPeriodProvider lists holidays and closures
type SpecialPeriodProvider interface {
	GetActive(ctx context.Context, filter SpecialPeriodFilter) ([]*domain.SpecialPeriod, error)
}

// TicketCountProvider counts paid reservations per visit date
type TicketCountProvider interface {
	// CountPaidByDate returns counts keyed by YYYY-MM-DD; dates without
	// paid tickets are absent
	CountPaidByDate(ctx context.Context, start, end time.Time) (map[string]int, error)
}

// Querier is satisfied by *pgxpool.Pool
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ReadPolicy bounds and retries a provider read
type ReadPolicy struct {
	Timeout time.Duration
	Retry   *retry.Config
}

// DefaultReadPolicy returns a 3s timeout with the default backoff
func DefaultReadPolicy() ReadPolicy {
	return ReadPolicy{
		Timeout: 3 * time.Second,
		Retry:   retry.DefaultConfig(),
	}
}

// Do runs op with a per-attempt timeout, retrying transient failures.
// Anything IsTransient rejects is marked permanent and returned at once.
func (p ReadPolicy) Do(ctx context.Context, op retry.Operation) error {
	result := retry.Do(ctx, p.Retry, func(ctx context.Context) error {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		defer cancel()

		err := op(callCtx)
		if err != nil && !IsTransient(err) {
			return retry.Permanent(err)
		}
		return err
	})
	if err := ctx.Err(); err != nil {
		return err
	}
	return result.Error()
}

// IsTransient reports whether a read error is worth retrying. Query errors
// reported by the server (bad SQL, constraint, permission) are not.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08 connection exceptions, 40001 serialization, 57P01 shutdown
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "40001" || pgErr.Code == "57P01"
	}
	return true
}
