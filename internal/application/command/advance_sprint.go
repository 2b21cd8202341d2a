package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
	"github.com/studyforge/studyforge-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADVANCE SPRINT COMMAND
// Moves the student's current-sprint pointer to the next position. Gated:
// every goal of the current sprint must be completed first. Advancing past
// the last sprint finishes the plan and clears the pointer. The check and
// the move happen in one transaction with the plan locked, so two
// concurrent advances cannot both pass the gate.
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceSprintCommand identifies the student whose pointer advances.
type AdvanceSprintCommand struct {
	StudentID string
}

// Validate validates the command.
func (c AdvanceSprintCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("advance_sprint: student_id is required")
	}
	return nil
}

// AdvanceSprintResult describes where the pointer ended up.
type AdvanceSprintResult struct {
	// NextSprint is the sprint the pointer moved to; nil when the plan
	// finished instead.
	NextSprint *studyplan.StudentSprint

	// PlanFinished is true when the last sprint was closed out.
	PlanFinished bool
}

// AdvanceSprintHandler handles the AdvanceSprintCommand.
type AdvanceSprintHandler struct {
	planRepo studyplan.Repository
}

// NewAdvanceSprintHandler creates a new AdvanceSprintHandler.
func NewAdvanceSprintHandler(planRepo studyplan.Repository) *AdvanceSprintHandler {
	return &AdvanceSprintHandler{planRepo: planRepo}
}

// Handle executes the advance sprint command.
func (h *AdvanceSprintHandler) Handle(ctx context.Context, cmd AdvanceSprintCommand) (*AdvanceSprintResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("advance_sprint: validation failed: %w", err)
	}

	var result *AdvanceSprintResult
	err := h.planRepo.InTx(ctx, func(tx studyplan.Repository) error {
		if err := tx.LockStudentPlan(ctx, cmd.StudentID); err != nil {
			return err
		}

		ptr, err := tx.GetPointer(ctx, cmd.StudentID)
		if err != nil {
			return err
		}
		current, err := tx.GetSprint(ctx, ptr.StudentSprintID)
		if err != nil {
			return err
		}

		goals, err := tx.ListGoalsBySprint(ctx, current.ID)
		if err != nil {
			return err
		}
		if !studyplan.AllCompleted(goals) {
			return shared.NewDomainError("studyplan", "AdvanceSprint", shared.ErrSprintIncomplete, "current sprint has unfinished goals")
		}

		sprints, err := tx.ListSprints(ctx, current.StudentPlanID)
		if err != nil {
			return err
		}

		now := timeutil.Now()
		next := nextSprint(sprints, current.Position)
		if next == nil {
			// Last sprint closed: the plan is done.
			plan, err := tx.GetPlan(ctx, current.StudentPlanID)
			if err != nil {
				return err
			}
			plan.Finish(now)
			if err := tx.UpdatePlan(ctx, plan); err != nil {
				return err
			}
			if err := tx.ClearPointer(ctx, cmd.StudentID); err != nil {
				return err
			}
			result = &AdvanceSprintResult{PlanFinished: true}
			return nil
		}

		if err := tx.SetPointer(ctx, &studyplan.CurrentSprintPointer{
			StudentID:       cmd.StudentID,
			StudentSprintID: next.ID,
			UpdatedAt:       now,
		}); err != nil {
			return err
		}
		result = &AdvanceSprintResult{NextSprint: next}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// nextSprint returns the sprint with the lowest position above current.
// Sprints arrive ordered by position; gaps in the numbering are fine.
func nextSprint(sprints []*studyplan.StudentSprint, currentPosition int) *studyplan.StudentSprint {
	for _, s := range sprints {
		if s.Position > currentPosition {
			return s
		}
	}
	return nil
}
