package ranking

import (
	"context"
	"time"
)

// Source delivers the raw weekly aggregates out of primary storage.
type Source interface {
	// CompletedGoalTotals sums questions over goals completed in [from, to)
	// with at least one question, grouped by student. Students with no
	// qualifying goals are absent from the result.
	CompletedGoalTotals(ctx context.Context, from, to time.Time) ([]StudentTotals, error)
}

// Cache holds computed rankings keyed by week. A miss is reported as
// (nil, nil); errors are reserved for transport failures.
type Cache interface {
	GetWeek(ctx context.Context, week Week) (*Ranking, error)
	SetWeek(ctx context.Context, r *Ranking, ttl time.Duration) error
	InvalidateWeek(ctx context.Context, week Week) error
}
