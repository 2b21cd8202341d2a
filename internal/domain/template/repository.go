package template

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines storage operations for the template tier.
type Repository interface {
	// CreatePlan stores a new master plan.
	// Returns Conflict if an active plan already holds the same code.
	CreatePlan(ctx context.Context, p *MasterPlan) error

	// GetPlan returns a master plan by ID.
	// Returns NotFound if the plan does not exist.
	GetPlan(ctx context.Context, id string) (*MasterPlan, error)

	// UpdatePlan persists plan mutations (e.g. deactivation on versioning).
	UpdatePlan(ctx context.Context, p *MasterPlan) error

	// ReplacePlanVersion atomically persists a version bump: the superseded
	// plan (now inactive) and its successor, in one transaction.
	ReplacePlanVersion(ctx context.Context, superseded, successor *MasterPlan) error

	// ListActivePlans returns active plans ordered by name.
	ListActivePlans(ctx context.Context) ([]*MasterPlan, error)

	// ListAllPlans returns all plans ordered by ID (backfill pass).
	ListAllPlans(ctx context.Context) ([]*MasterPlan, error)

	// AssignPlanCodes atomically assigns codes from a backfill plan.
	AssignPlanCodes(ctx context.Context, codes map[string]string) error

	// AddSprint stores a new master sprint.
	// Returns Conflict if (plan, position) is already taken,
	// InvalidReference if the plan does not exist.
	AddSprint(ctx context.Context, s *MasterSprint) error

	// GetSprint returns a sprint by ID.
	GetSprint(ctx context.Context, id string) (*MasterSprint, error)

	// ListSprints returns a plan's sprints ordered by position.
	ListSprints(ctx context.Context, planID string) ([]*MasterSprint, error)

	// AddGoal stores a new master goal.
	// Returns InvalidReference if the sprint does not exist.
	AddGoal(ctx context.Context, g *MasterGoal) error

	// ListGoals returns a sprint's goals ordered by creation.
	ListGoals(ctx context.Context, sprintID string) ([]*MasterGoal, error)

	// GetTree loads the full plan tree: plan, ordered sprints, goals.
	// Returns NotFound if the plan does not exist.
	GetTree(ctx context.Context, planID string) (*PlanTree, error)

	// LinkDiscipline records that a plan covers a discipline (many-to-many,
	// independent of per-sprint goal content). Idempotent.
	LinkDiscipline(ctx context.Context, planID, disciplineID string) error

	// ListPlanDisciplines returns discipline IDs linked to a plan.
	ListPlanDisciplines(ctx context.Context, planID string) ([]string, error)
}
