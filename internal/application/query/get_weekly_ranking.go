package query

import (
	"context"
	"fmt"
	"time"

	"github.com/studyforge/studyforge-backend/internal/domain/ranking"
	"github.com/studyforge/studyforge-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET WEEKLY RANKING QUERY
// Cache-aside read: serve the week's board from the cache when present,
// otherwise aggregate from storage, rank, and fill the cache. A cache
// failure degrades to a direct read, it never fails the request.
// ══════════════════════════════════════════════════════════════════════════════

// GetWeeklyRankingQuery selects the week. The zero value means the current
// week.
type GetWeeklyRankingQuery struct {
	// At is any instant inside the requested week.
	At time.Time
}

// Validate validates the query.
func (q GetWeeklyRankingQuery) Validate() error {
	return nil
}

// GetWeeklyRankingHandler handles the GetWeeklyRankingQuery.
type GetWeeklyRankingHandler struct {
	source ranking.Source
	cache  ranking.Cache
	ttl    time.Duration
	log    *logger.Logger
}

// NewGetWeeklyRankingHandler creates a new GetWeeklyRankingHandler.
// cache may be nil; the handler then always reads through.
func NewGetWeeklyRankingHandler(source ranking.Source, cache ranking.Cache, ttl time.Duration, log *logger.Logger) *GetWeeklyRankingHandler {
	return &GetWeeklyRankingHandler{source: source, cache: cache, ttl: ttl, log: log}
}

// Handle executes the get weekly ranking query.
func (h *GetWeeklyRankingHandler) Handle(ctx context.Context, q GetWeeklyRankingQuery) (*ranking.Ranking, error) {
	at := q.At
	if at.IsZero() {
		at = time.Now()
	}
	week := ranking.WeekOf(at)

	if h.cache != nil {
		cached, err := h.cache.GetWeek(ctx, week)
		if err != nil {
			h.log.Warn("ranking cache read failed", logger.Err(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	totals, err := h.source.CompletedGoalTotals(ctx, week.Start, week.End)
	if err != nil {
		return nil, fmt.Errorf("get_weekly_ranking: %w", err)
	}
	board := ranking.Build(week, totals)

	if h.cache != nil {
		if err := h.cache.SetWeek(ctx, board, h.ttl); err != nil {
			h.log.Warn("ranking cache write failed", logger.Err(err))
		}
	}
	return board, nil
}
