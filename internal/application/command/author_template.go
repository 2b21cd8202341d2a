package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/taxonomy"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
	"github.com/studyforge/studyforge-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE MASTER PLAN COMMAND
// Authors a new reusable study-plan template. The plan code is derived from
// the name and stays with the lineage across versions.
// ══════════════════════════════════════════════════════════════════════════════

// CreateMasterPlanCommand contains the data to author a master plan.
type CreateMasterPlanCommand struct {
	// Name is the plan name, e.g. "Plano TJ-SP Escrevente".
	Name string

	// Role is the target position the plan prepares for.
	Role string

	// Description is a free-text description.
	Description string

	// DurationMonths is the expected total duration.
	DurationMonths int

	// DisciplineIDs links the plan to the disciplines it covers.
	DisciplineIDs []string
}

// Validate validates the command.
func (c CreateMasterPlanCommand) Validate() error {
	if c.Name == "" {
		return errors.New("create_master_plan: name is required")
	}
	if c.DurationMonths <= 0 {
		return errors.New("create_master_plan: duration_months must be positive")
	}
	return nil
}

// CreateMasterPlanResult contains the created plan.
type CreateMasterPlanResult struct {
	Plan *template.MasterPlan
}

// CreateMasterPlanHandler handles the CreateMasterPlanCommand.
type CreateMasterPlanHandler struct {
	templateRepo   template.Repository
	disciplineRepo taxonomy.DisciplineRepository
}

// NewCreateMasterPlanHandler creates a new CreateMasterPlanHandler.
func NewCreateMasterPlanHandler(
	templateRepo template.Repository,
	disciplineRepo taxonomy.DisciplineRepository,
) *CreateMasterPlanHandler {
	return &CreateMasterPlanHandler{templateRepo: templateRepo, disciplineRepo: disciplineRepo}
}

// Handle executes the create master plan command.
func (h *CreateMasterPlanHandler) Handle(ctx context.Context, cmd CreateMasterPlanCommand) (*CreateMasterPlanResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_master_plan: validation failed: %w", err)
	}

	// Linked disciplines must exist before the plan references them.
	for _, id := range cmd.DisciplineIDs {
		if _, err := h.disciplineRepo.GetByID(ctx, id); err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewDomainError("template", "CreateMasterPlan", shared.ErrInvalidReference, "discipline does not exist: "+id)
			}
			return nil, fmt.Errorf("create_master_plan: %w", err)
		}
	}

	p, err := template.NewMasterPlan(uuid.NewString(), cmd.Name, cmd.Role, cmd.Description, cmd.DurationMonths, timeutil.Now())
	if err != nil {
		return nil, err
	}

	if err := h.templateRepo.CreatePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("create_master_plan: %w", err)
	}
	for _, id := range cmd.DisciplineIDs {
		if err := h.templateRepo.LinkDiscipline(ctx, p.ID, id); err != nil {
			return nil, fmt.Errorf("create_master_plan: %w", err)
		}
	}

	return &CreateMasterPlanResult{Plan: p}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ADD MASTER SPRINT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// AddMasterSprintCommand contains the data to add a sprint to a plan.
type AddMasterSprintCommand struct {
	MasterPlanID string
	Name         string

	// Position is the 1-based slot inside the plan; must be unused.
	Position int

	// StartOffsetDays / EndOffsetDays schedule the sprint relative to the
	// instance start date.
	StartOffsetDays int
	EndOffsetDays   int
}

// Validate validates the command.
func (c AddMasterSprintCommand) Validate() error {
	if c.MasterPlanID == "" {
		return errors.New("add_master_sprint: master_plan_id is required")
	}
	if c.Position < 1 {
		return errors.New("add_master_sprint: position must be 1-based")
	}
	return nil
}

// AddMasterSprintResult contains the created sprint.
type AddMasterSprintResult struct {
	Sprint *template.MasterSprint
}

// AddMasterSprintHandler handles the AddMasterSprintCommand.
type AddMasterSprintHandler struct {
	templateRepo template.Repository
}

// NewAddMasterSprintHandler creates a new AddMasterSprintHandler.
func NewAddMasterSprintHandler(templateRepo template.Repository) *AddMasterSprintHandler {
	return &AddMasterSprintHandler{templateRepo: templateRepo}
}

// Handle executes the add master sprint command.
func (h *AddMasterSprintHandler) Handle(ctx context.Context, cmd AddMasterSprintCommand) (*AddMasterSprintResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("add_master_sprint: validation failed: %w", err)
	}

	plan, err := h.templateRepo.GetPlan(ctx, cmd.MasterPlanID)
	if err != nil {
		return nil, fmt.Errorf("add_master_sprint: %w", err)
	}
	if !plan.Active {
		return nil, shared.NewDomainError("template", "AddMasterSprint", shared.ErrMasterPlanInactive, "cannot edit a superseded plan version")
	}

	window := template.SprintWindow{StartOffsetDays: cmd.StartOffsetDays, EndOffsetDays: cmd.EndOffsetDays}
	s, err := template.NewMasterSprint(uuid.NewString(), plan.ID, cmd.Name, cmd.Position, window, timeutil.Now())
	if err != nil {
		return nil, err
	}

	if err := h.templateRepo.AddSprint(ctx, s); err != nil {
		return nil, fmt.Errorf("add_master_sprint: %w", err)
	}

	return &AddMasterSprintResult{Sprint: s}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ADD MASTER GOAL COMMAND
// The referenced discipline and subject must exist at authoring time; they
// are not required to be active, so deactivating taxonomy later never
// blocks editing plans that already use it.
// ══════════════════════════════════════════════════════════════════════════════

// AddMasterGoalCommand contains the data to add a goal to a sprint.
type AddMasterGoalCommand struct {
	MasterSprintID string
	DisciplineID   string
	SubjectID      string

	// Type is one of theory, exercises, review, reinforcement.
	Type template.GoalType

	Instructions string
	ExternalLink string

	// Relevance is the importance on the 1-3 scale.
	Relevance int
}

// Validate validates the command.
func (c AddMasterGoalCommand) Validate() error {
	if c.MasterSprintID == "" {
		return errors.New("add_master_goal: master_sprint_id is required")
	}
	if c.DisciplineID == "" {
		return errors.New("add_master_goal: discipline_id is required")
	}
	if c.SubjectID == "" {
		return errors.New("add_master_goal: subject_id is required")
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("add_master_goal: invalid goal type: %s", c.Type)
	}
	return nil
}

// AddMasterGoalResult contains the created goal.
type AddMasterGoalResult struct {
	Goal *template.MasterGoal
}

// AddMasterGoalHandler handles the AddMasterGoalCommand.
type AddMasterGoalHandler struct {
	templateRepo   template.Repository
	disciplineRepo taxonomy.DisciplineRepository
	subjectRepo    taxonomy.SubjectRepository
}

// NewAddMasterGoalHandler creates a new AddMasterGoalHandler.
func NewAddMasterGoalHandler(
	templateRepo template.Repository,
	disciplineRepo taxonomy.DisciplineRepository,
	subjectRepo taxonomy.SubjectRepository,
) *AddMasterGoalHandler {
	return &AddMasterGoalHandler{
		templateRepo:   templateRepo,
		disciplineRepo: disciplineRepo,
		subjectRepo:    subjectRepo,
	}
}

// Handle executes the add master goal command.
func (h *AddMasterGoalHandler) Handle(ctx context.Context, cmd AddMasterGoalCommand) (*AddMasterGoalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("add_master_goal: validation failed: %w", err)
	}

	if _, err := h.disciplineRepo.GetByID(ctx, cmd.DisciplineID); err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("template", "AddMasterGoal", shared.ErrInvalidReference, "discipline does not exist")
		}
		return nil, fmt.Errorf("add_master_goal: %w", err)
	}
	subject, err := h.subjectRepo.GetByID(ctx, cmd.SubjectID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("template", "AddMasterGoal", shared.ErrInvalidReference, "subject does not exist")
		}
		return nil, fmt.Errorf("add_master_goal: %w", err)
	}
	if subject.DisciplineID != cmd.DisciplineID {
		return nil, shared.NewDomainError("template", "AddMasterGoal", shared.ErrInvalidReference, "subject belongs to another discipline")
	}

	g, err := template.NewMasterGoal(
		uuid.NewString(), cmd.MasterSprintID, cmd.DisciplineID, cmd.SubjectID,
		cmd.Type, cmd.Instructions, cmd.ExternalLink, cmd.Relevance, timeutil.Now())
	if err != nil {
		return nil, err
	}

	if err := h.templateRepo.AddGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("add_master_goal: %w", err)
	}

	return &AddMasterGoalResult{Goal: g}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PUBLISH NEW VERSION COMMAND
// Published plans referenced by students are never edited in place. This
// command freezes the current version and opens a successor carrying the
// same lineage code. In-flight student instances stay on the old version.
// ══════════════════════════════════════════════════════════════════════════════

// PublishNewVersionCommand identifies the plan to version.
type PublishNewVersionCommand struct {
	MasterPlanID string
}

// Validate validates the command.
func (c PublishNewVersionCommand) Validate() error {
	if c.MasterPlanID == "" {
		return errors.New("publish_new_version: master_plan_id is required")
	}
	return nil
}

// PublishNewVersionResult contains both sides of the version bump.
type PublishNewVersionResult struct {
	Superseded *template.MasterPlan
	Successor  *template.MasterPlan

	// SprintCount / GoalCount - size of the tree copied onto the successor.
	SprintCount int
	GoalCount   int
}

// PublishNewVersionHandler handles the PublishNewVersionCommand.
type PublishNewVersionHandler struct {
	templateRepo template.Repository
}

// NewPublishNewVersionHandler creates a new PublishNewVersionHandler.
func NewPublishNewVersionHandler(templateRepo template.Repository) *PublishNewVersionHandler {
	return &PublishNewVersionHandler{templateRepo: templateRepo}
}

// Handle executes the publish new version command.
func (h *PublishNewVersionHandler) Handle(ctx context.Context, cmd PublishNewVersionCommand) (*PublishNewVersionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("publish_new_version: validation failed: %w", err)
	}

	tree, err := h.templateRepo.GetTree(ctx, cmd.MasterPlanID)
	if err != nil {
		return nil, fmt.Errorf("publish_new_version: %w", err)
	}
	plan := tree.Plan

	now := timeutil.Now()
	successor, err := plan.NewVersion(uuid.NewString(), now)
	if err != nil {
		return nil, err
	}

	if err := h.templateRepo.ReplacePlanVersion(ctx, plan, successor); err != nil {
		return nil, fmt.Errorf("publish_new_version: %w", err)
	}

	// The whole tree carries over: the successor is the editable copy, so
	// it starts as an exact replica of the frozen version, with fresh IDs.
	goalCount := 0
	for _, node := range tree.Sprints {
		src := node.Sprint
		sprint, err := template.NewMasterSprint(uuid.NewString(), successor.ID, src.Name, src.Position, src.Window, now)
		if err != nil {
			return nil, fmt.Errorf("publish_new_version: %w", err)
		}
		if err := h.templateRepo.AddSprint(ctx, sprint); err != nil {
			return nil, fmt.Errorf("publish_new_version: %w", err)
		}

		for _, g := range node.Goals {
			goal, err := template.NewMasterGoal(uuid.NewString(), sprint.ID, g.DisciplineID, g.SubjectID, g.Type, g.Instructions, g.ExternalLink, g.Relevance, now)
			if err != nil {
				return nil, fmt.Errorf("publish_new_version: %w", err)
			}
			if err := h.templateRepo.AddGoal(ctx, goal); err != nil {
				return nil, fmt.Errorf("publish_new_version: %w", err)
			}
			goalCount++
		}
	}

	// Discipline links carry over to the successor.
	links, err := h.templateRepo.ListPlanDisciplines(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("publish_new_version: %w", err)
	}
	for _, id := range links {
		if err := h.templateRepo.LinkDiscipline(ctx, successor.ID, id); err != nil {
			return nil, fmt.Errorf("publish_new_version: %w", err)
		}
	}

	return &PublishNewVersionResult{
		Superseded:  plan,
		Successor:   successor,
		SprintCount: len(tree.Sprints),
		GoalCount:   goalCount,
	}, nil
}
