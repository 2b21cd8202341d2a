package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CURRENT SPRINT QUERY
// Resolves the student's pointer to the sprint they are working on, together
// with its goals. NotFound means either no plan or a finished plan.
// ══════════════════════════════════════════════════════════════════════════════

// GetCurrentSprintQuery identifies the student.
type GetCurrentSprintQuery struct {
	StudentID string
}

// Validate validates the query.
func (q GetCurrentSprintQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("get_current_sprint: student_id is required")
	}
	return nil
}

// CurrentSprintView is the student's active sprint with its goals.
type CurrentSprintView struct {
	Sprint *studyplan.StudentSprint `json:"sprint"`
	Goals  []*studyplan.StudentGoal `json:"goals"`
}

// GetCurrentSprintHandler handles the GetCurrentSprintQuery.
type GetCurrentSprintHandler struct {
	planRepo studyplan.Repository
}

// NewGetCurrentSprintHandler creates a new GetCurrentSprintHandler.
func NewGetCurrentSprintHandler(planRepo studyplan.Repository) *GetCurrentSprintHandler {
	return &GetCurrentSprintHandler{planRepo: planRepo}
}

// Handle executes the get current sprint query.
func (h *GetCurrentSprintHandler) Handle(ctx context.Context, q GetCurrentSprintQuery) (*CurrentSprintView, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_current_sprint: validation failed: %w", err)
	}

	ptr, err := h.planRepo.GetPointer(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get_current_sprint: %w", err)
	}
	sprint, err := h.planRepo.GetSprint(ctx, ptr.StudentSprintID)
	if err != nil {
		return nil, fmt.Errorf("get_current_sprint: %w", err)
	}
	goals, err := h.planRepo.ListGoalsBySprint(ctx, sprint.ID)
	if err != nil {
		return nil, fmt.Errorf("get_current_sprint: %w", err)
	}

	return &CurrentSprintView{Sprint: sprint, Goals: goals}, nil
}
