package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/studyforge/studyforge-backend/internal/domain/ranking"
	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
)

// RankingSource aggregates weekly totals directly off the in-memory
// instance-tier store, the way the postgres source does with one GROUP BY.
type RankingSource struct {
	repo *StudyPlanRepository
}

// NewRankingSource binds the source to the study-plan repository it reads.
func NewRankingSource(repo *StudyPlanRepository) *RankingSource {
	return &RankingSource{repo: repo}
}

// CompletedGoalTotals sums questions over goals completed in [from, to).
func (s *RankingSource) CompletedGoalTotals(_ context.Context, from, to time.Time) ([]ranking.StudentTotals, error) {
	store := s.repo.store
	store.mu.Lock()
	defer store.mu.Unlock()

	byStudent := make(map[string]*ranking.StudentTotals)
	for _, g := range store.goals {
		if g.Status != studyplan.GoalStatusCompleted || g.CompletedAt == nil || g.TotalQuestions <= 0 {
			continue
		}
		if g.CompletedAt.Before(from) || !g.CompletedAt.Before(to) {
			continue
		}

		sprint, ok := store.sprints[g.StudentSprintID]
		if !ok {
			continue
		}
		plan, ok := store.plans[sprint.StudentPlanID]
		if !ok {
			continue
		}

		t := byStudent[plan.StudentID]
		if t == nil {
			t = &ranking.StudentTotals{StudentID: plan.StudentID}
			byStudent[plan.StudentID] = t
		}
		t.TotalQuestions += g.TotalQuestions
		t.TotalCorrect += g.CorrectQuestions
	}

	out := make([]ranking.StudentTotals, 0, len(byStudent))
	for _, t := range byStudent {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

// RankingCache is a map-backed ranking.Cache. Entries expire lazily on read.
type RankingCache struct {
	mu      sync.RWMutex
	entries map[string]cachedRanking
}

type cachedRanking struct {
	ranking   *ranking.Ranking
	expiresAt time.Time
}

// NewRankingCache creates an empty cache.
func NewRankingCache() *RankingCache {
	return &RankingCache{entries: make(map[string]cachedRanking)}
}

// GetWeek returns the cached ranking for a week, or (nil, nil) on a miss.
func (c *RankingCache) GetWeek(_ context.Context, week ranking.Week) (*ranking.Ranking, error) {
	c.mu.RLock()
	entry, ok := c.entries[week.Key()]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.ranking, nil
}

// SetWeek stores a ranking with a TTL.
func (c *RankingCache) SetWeek(_ context.Context, r *ranking.Ranking, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[r.Week.Key()] = cachedRanking{ranking: r, expiresAt: time.Now().Add(ttl)}
	return nil
}

// InvalidateWeek drops the cached ranking for a week.
func (c *RankingCache) InvalidateWeek(_ context.Context, week ranking.Week) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, week.Key())
	return nil
}
