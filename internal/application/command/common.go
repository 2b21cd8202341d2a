package command

import (
	"context"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
)

// loadOwnedGoal loads a goal and verifies it belongs to the student by
// walking goal -> sprint -> plan. A goal owned by someone else reads as
// NotFound so the response never confirms the goal exists.
func loadOwnedGoal(ctx context.Context, repo studyplan.Repository, goalID, studentID string) (*studyplan.StudentGoal, error) {
	goal, err := repo.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	sprint, err := repo.GetSprint(ctx, goal.StudentSprintID)
	if err != nil {
		return nil, err
	}
	plan, err := repo.GetPlan(ctx, sprint.StudentPlanID)
	if err != nil {
		return nil, err
	}
	if plan.StudentID != studentID {
		return nil, shared.NewDomainError("studyplan", "loadOwnedGoal", shared.ErrNotFound, "student goal not found")
	}
	return goal, nil
}
