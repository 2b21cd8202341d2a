// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SPRINT STATS QUERY
// Rolls a sprint's goals up into two numbers: completion progress over all
// goals, and average performance over graded completed goals. Performance
// distinguishes "no data" (nil) from a measured zero.
// ══════════════════════════════════════════════════════════════════════════════

// GetSprintStatsQuery identifies the sprint.
type GetSprintStatsQuery struct {
	SprintID string
}

// Validate validates the query.
func (q GetSprintStatsQuery) Validate() error {
	if q.SprintID == "" {
		return errors.New("get_sprint_stats: sprint_id is required")
	}
	return nil
}

// SprintStats is the rolled-up view of one sprint.
type SprintStats struct {
	SprintID string `json:"sprint_id"`
	Position int    `json:"position"`

	GoalCount      int `json:"goal_count"`
	CompletedCount int `json:"completed_count"`

	// ProgressPercent - share of completed goals, two decimals.
	ProgressPercent shared.Percent `json:"progress_percent"`

	// PerformancePercent - average accuracy over graded completed goals;
	// nil when the sprint has no graded completions yet.
	PerformancePercent *shared.Percent `json:"performance_percent"`
}

// GetSprintStatsHandler handles the GetSprintStatsQuery.
type GetSprintStatsHandler struct {
	planRepo studyplan.Repository
}

// NewGetSprintStatsHandler creates a new GetSprintStatsHandler.
func NewGetSprintStatsHandler(planRepo studyplan.Repository) *GetSprintStatsHandler {
	return &GetSprintStatsHandler{planRepo: planRepo}
}

// Handle executes the get sprint stats query.
func (h *GetSprintStatsHandler) Handle(ctx context.Context, q GetSprintStatsQuery) (*SprintStats, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_sprint_stats: validation failed: %w", err)
	}

	sprint, err := h.planRepo.GetSprint(ctx, q.SprintID)
	if err != nil {
		return nil, fmt.Errorf("get_sprint_stats: %w", err)
	}
	goals, err := h.planRepo.ListGoalsBySprint(ctx, sprint.ID)
	if err != nil {
		return nil, fmt.Errorf("get_sprint_stats: %w", err)
	}

	return &SprintStats{
		SprintID:           sprint.ID,
		Position:           sprint.Position,
		GoalCount:          len(goals),
		CompletedCount:     countCompleted(goals),
		ProgressPercent:    studyplan.Progress(goals),
		PerformancePercent: studyplan.Performance(goals),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET PLAN STATS QUERY
// Same rollup across a whole plan, with a per-sprint breakdown.
// ══════════════════════════════════════════════════════════════════════════════

// GetPlanStatsQuery identifies the plan.
type GetPlanStatsQuery struct {
	PlanID string
}

// Validate validates the query.
func (q GetPlanStatsQuery) Validate() error {
	if q.PlanID == "" {
		return errors.New("get_plan_stats: plan_id is required")
	}
	return nil
}

// PlanStats is the rolled-up view of a whole plan.
type PlanStats struct {
	PlanID string               `json:"plan_id"`
	Status studyplan.PlanStatus `json:"status"`

	GoalCount      int `json:"goal_count"`
	CompletedCount int `json:"completed_count"`

	ProgressPercent    shared.Percent  `json:"progress_percent"`
	PerformancePercent *shared.Percent `json:"performance_percent"`

	Sprints []SprintStats `json:"sprints"`
}

// GetPlanStatsHandler handles the GetPlanStatsQuery.
type GetPlanStatsHandler struct {
	planRepo studyplan.Repository
}

// NewGetPlanStatsHandler creates a new GetPlanStatsHandler.
func NewGetPlanStatsHandler(planRepo studyplan.Repository) *GetPlanStatsHandler {
	return &GetPlanStatsHandler{planRepo: planRepo}
}

// Handle executes the get plan stats query.
func (h *GetPlanStatsHandler) Handle(ctx context.Context, q GetPlanStatsQuery) (*PlanStats, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_plan_stats: validation failed: %w", err)
	}

	plan, err := h.planRepo.GetPlan(ctx, q.PlanID)
	if err != nil {
		return nil, fmt.Errorf("get_plan_stats: %w", err)
	}
	sprints, err := h.planRepo.ListSprints(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("get_plan_stats: %w", err)
	}

	stats := &PlanStats{PlanID: plan.ID, Status: plan.Status}
	var allGoals []*studyplan.StudentGoal

	for _, s := range sprints {
		goals, err := h.planRepo.ListGoalsBySprint(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("get_plan_stats: %w", err)
		}
		allGoals = append(allGoals, goals...)
		stats.Sprints = append(stats.Sprints, SprintStats{
			SprintID:           s.ID,
			Position:           s.Position,
			GoalCount:          len(goals),
			CompletedCount:     countCompleted(goals),
			ProgressPercent:    studyplan.Progress(goals),
			PerformancePercent: studyplan.Performance(goals),
		})
	}

	stats.GoalCount = len(allGoals)
	stats.CompletedCount = countCompleted(allGoals)
	stats.ProgressPercent = studyplan.Progress(allGoals)
	stats.PerformancePercent = studyplan.Performance(allGoals)
	return stats, nil
}

func countCompleted(goals []*studyplan.StudentGoal) int {
	n := 0
	for _, g := range goals {
		if g.IsCompleted() {
			n++
		}
	}
	return n
}
