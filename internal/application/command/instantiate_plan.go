package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
	"github.com/studyforge/studyforge-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// INSTANTIATE PLAN COMMAND
// Clones a master plan into a personal study plan: every sprint and goal
// gets an instance copy, sprint windows resolve to concrete dates, and the
// current-sprint pointer lands on position 1. The whole tree is written in
// one transaction, so a failure leaves no partial instance behind.
// ══════════════════════════════════════════════════════════════════════════════

// InstantiatePlanCommand contains the data to instantiate a plan.
type InstantiatePlanCommand struct {
	// MasterPlanID is the template to clone; it must be the active version.
	MasterPlanID string

	// StudentID is the future owner of the instance.
	StudentID string

	// StartDate anchors sprint windows. Zero value means "today".
	StartDate time.Time
}

// Validate validates the command.
func (c InstantiatePlanCommand) Validate() error {
	if c.MasterPlanID == "" {
		return errors.New("instantiate_plan: master_plan_id is required")
	}
	if c.StudentID == "" {
		return errors.New("instantiate_plan: student_id is required")
	}
	return nil
}

// InstantiatePlanResult contains the created instance tree.
type InstantiatePlanResult struct {
	Plan        *studyplan.StudentPlan
	SprintCount int
	GoalCount   int
}

// InstantiatePlanHandler handles the InstantiatePlanCommand.
type InstantiatePlanHandler struct {
	templateRepo template.Repository
	planRepo     studyplan.Repository
}

// NewInstantiatePlanHandler creates a new InstantiatePlanHandler.
func NewInstantiatePlanHandler(
	templateRepo template.Repository,
	planRepo studyplan.Repository,
) *InstantiatePlanHandler {
	return &InstantiatePlanHandler{templateRepo: templateRepo, planRepo: planRepo}
}

// Handle executes the instantiate plan command.
func (h *InstantiatePlanHandler) Handle(ctx context.Context, cmd InstantiatePlanCommand) (*InstantiatePlanResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("instantiate_plan: validation failed: %w", err)
	}

	tmpl, err := h.templateRepo.GetTree(ctx, cmd.MasterPlanID)
	if err != nil {
		return nil, fmt.Errorf("instantiate_plan: %w", err)
	}

	// One active plan per student: a second instantiation is a conflict,
	// not a silent replacement.
	if _, err := h.planRepo.GetActivePlanByStudent(ctx, cmd.StudentID); err == nil {
		return nil, shared.NewDomainError("studyplan", "InstantiatePlan", shared.ErrConflict, "student already has an active plan")
	} else if !shared.IsNotFound(err) {
		return nil, fmt.Errorf("instantiate_plan: %w", err)
	}

	now := timeutil.Now()
	startDate := cmd.StartDate
	if startDate.IsZero() {
		startDate = timeutil.StartOfDay(now)
	}

	tree, err := studyplan.Clone(tmpl, cmd.StudentID, startDate, uuid.NewString, now)
	if err != nil {
		return nil, err
	}

	if err := h.planRepo.CreateTree(ctx, tree); err != nil {
		return nil, fmt.Errorf("instantiate_plan: %w", err)
	}

	return &InstantiatePlanResult{
		Plan:        tree.Plan,
		SprintCount: len(tree.Sprints),
		GoalCount:   tree.GoalCount(),
	}, nil
}
