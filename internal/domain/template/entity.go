// Package template contains the master (template) tier of study plans:
// plans, sprints and goals authored by admins and never worked on directly
// by students. Student instances are cloned from these records.
package template

import (
	"strings"
	"time"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/pkg/shortcode"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS & VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// GoalType defines the kind of work a goal represents.
type GoalType string

const (
	// GoalTypeTheory - study theory material.
	GoalTypeTheory GoalType = "theory"
	// GoalTypeExercises - solve exercises.
	GoalTypeExercises GoalType = "exercises"
	// GoalTypeReview - review previously studied material.
	GoalTypeReview GoalType = "review"
	// GoalTypeReinforcement - reinforcement after weak performance.
	GoalTypeReinforcement GoalType = "reinforcement"
)

// IsValid checks that the goal type is one of the closed set.
func (t GoalType) IsValid() bool {
	switch t {
	case GoalTypeTheory, GoalTypeExercises, GoalTypeReview, GoalTypeReinforcement:
		return true
	default:
		return false
	}
}

// Relevance bounds. The canonical scale is 1-3; legacy data on the old 1-5
// scale is folded in via ClampRelevance.
const (
	RelevanceMin = 1
	RelevanceMax = 3
)

// ClampRelevance maps legacy 1-5 relevance values onto the canonical 1-3
// scale: 4 and 5 become 3, everything below 1 becomes 1.
func ClampRelevance(r int) int {
	if r < RelevanceMin {
		return RelevanceMin
	}
	if r > RelevanceMax {
		return RelevanceMax
	}
	return r
}

// SprintWindow holds a sprint's schedule relative to the plan start date,
// in whole days. A window of {0, 6} is the plan's first week.
type SprintWindow struct {
	// StartOffsetDays - days from plan start to sprint start.
	StartOffsetDays int

	// EndOffsetDays - days from plan start to sprint end (inclusive).
	EndOffsetDays int
}

// Validate checks window consistency.
func (w SprintWindow) Validate() error {
	if w.StartOffsetDays < 0 {
		return shared.NewDomainError("template", "SprintWindow", shared.ErrInvalidRange, "start offset cannot be negative")
	}
	if w.EndOffsetDays < w.StartOffsetDays {
		return shared.NewDomainError("template", "SprintWindow", shared.ErrInvalidRange, "end offset before start offset")
	}
	return nil
}

// Resolve maps the relative window onto concrete dates given the plan start.
func (w SprintWindow) Resolve(planStart time.Time) (start, end time.Time) {
	return planStart.AddDate(0, 0, w.StartOffsetDays), planStart.AddDate(0, 0, w.EndOffsetDays)
}

// ══════════════════════════════════════════════════════════════════════════════
// MASTER PLAN
// ══════════════════════════════════════════════════════════════════════════════

// MasterPlan is a reusable study-plan template. Published plans referenced by
// student instances are never edited in place: changes produce a successor
// version and the old version stays frozen for in-flight students.
type MasterPlan struct {
	// ID - internal unique identifier (UUID string).
	ID string

	// Name - human-readable plan name.
	Name string

	// Code - generated short code; shared across versions of the same plan,
	// unique among active plans.
	Code string

	// Role - the target role/position this plan prepares for.
	Role string

	// Description - free-text description.
	Description string

	// DurationMonths - expected total duration.
	DurationMonths int

	// Version - 1-based version number within the plan lineage.
	Version int

	// Active - false once superseded by a newer version; inactive plans
	// cannot be instantiated.
	Active bool

	// CreatedAt / UpdatedAt - record timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMasterPlan creates a first-version master plan, deriving its code.
func NewMasterPlan(id, name, role, description string, durationMonths int, now time.Time) (*MasterPlan, error) {
	name = strings.TrimSpace(name)
	if id == "" {
		return nil, shared.NewDomainError("template", "NewMasterPlan", shared.ErrInvalidInput, "plan id is required")
	}
	if name == "" {
		return nil, shared.NewDomainError("template", "NewMasterPlan", shared.ErrInvalidInput, "plan name is required")
	}
	if durationMonths <= 0 {
		return nil, shared.NewDomainError("template", "NewMasterPlan", shared.ErrInvalidRange, "duration must be positive")
	}

	code, err := shortcode.Generate(name)
	if err != nil {
		return nil, shared.WrapError("template", "NewMasterPlan", shared.ErrInvalidInput, "cannot derive code from name", err)
	}

	return &MasterPlan{
		ID:             id,
		Name:           name,
		Code:           code,
		Role:           role,
		Description:    strings.TrimSpace(description),
		DurationMonths: durationMonths,
		Version:        1,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NewVersion builds the successor of a plan: same lineage code, version+1.
// The receiver is marked inactive; callers persist both records in one
// transaction so the lineage never has two active versions.
func (p *MasterPlan) NewVersion(successorID string, now time.Time) (*MasterPlan, error) {
	if successorID == "" {
		return nil, shared.NewDomainError("template", "NewVersion", shared.ErrInvalidInput, "successor id is required")
	}
	if !p.Active {
		return nil, shared.NewDomainError("template", "NewVersion", shared.ErrMasterPlanInactive, "cannot version an inactive plan")
	}

	successor := &MasterPlan{
		ID:             successorID,
		Name:           p.Name,
		Code:           p.Code,
		Role:           p.Role,
		Description:    p.Description,
		DurationMonths: p.DurationMonths,
		Version:        p.Version + 1,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	p.Active = false
	p.UpdatedAt = now

	return successor, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MASTER SPRINT
// ══════════════════════════════════════════════════════════════════════════════

// MasterSprint is an ordered slice of a master plan. Positions are 1-based
// and unique per plan; gaps are tolerated, duplicates are not.
type MasterSprint struct {
	// ID - internal unique identifier.
	ID string

	// MasterPlanID - owning plan.
	MasterPlanID string

	// Position - 1-based ordering within the plan.
	Position int

	// Name - sprint name.
	Name string

	// Window - schedule relative to plan start.
	Window SprintWindow

	// CreatedAt - record timestamp.
	CreatedAt time.Time
}

// NewMasterSprint creates a sprint with validation.
func NewMasterSprint(id, planID, name string, position int, window SprintWindow, now time.Time) (*MasterSprint, error) {
	if id == "" || planID == "" {
		return nil, shared.NewDomainError("template", "NewMasterSprint", shared.ErrInvalidInput, "sprint and plan ids are required")
	}
	if position < 1 {
		return nil, shared.NewDomainError("template", "NewMasterSprint", shared.ErrInvalidRange, "position must be 1-based")
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	return &MasterSprint{
		ID:           id,
		MasterPlanID: planID,
		Position:     position,
		Name:         strings.TrimSpace(name),
		Window:       window,
		CreatedAt:    now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MASTER GOAL
// ══════════════════════════════════════════════════════════════════════════════

// MasterGoal is a unit of work inside a master sprint, tagged with a
// discipline and subject. The references must exist at creation time but are
// not required to be active: deactivating taxonomy later never rewrites
// history.
type MasterGoal struct {
	// ID - internal unique identifier.
	ID string

	// MasterSprintID - owning sprint.
	MasterSprintID string

	// DisciplineID / SubjectID - taxonomy references.
	DisciplineID string
	SubjectID    string

	// Type - kind of work.
	Type GoalType

	// Instructions - free-text instructions for the student.
	Instructions string

	// ExternalLink - optional link to material.
	ExternalLink string

	// Relevance - importance on the canonical 1-3 scale.
	Relevance int

	// CreatedAt - record timestamp.
	CreatedAt time.Time
}

// NewMasterGoal creates a goal with validation.
func NewMasterGoal(id, sprintID, disciplineID, subjectID string, goalType GoalType, instructions, externalLink string, relevance int, now time.Time) (*MasterGoal, error) {
	if id == "" || sprintID == "" {
		return nil, shared.NewDomainError("template", "NewMasterGoal", shared.ErrInvalidInput, "goal and sprint ids are required")
	}
	if disciplineID == "" || subjectID == "" {
		return nil, shared.NewDomainError("template", "NewMasterGoal", shared.ErrInvalidReference, "discipline and subject ids are required")
	}
	if !goalType.IsValid() {
		return nil, shared.NewDomainError("template", "NewMasterGoal", shared.ErrInvalidInput, "unknown goal type")
	}
	if relevance < RelevanceMin || relevance > RelevanceMax {
		return nil, shared.NewDomainError("template", "NewMasterGoal", shared.ErrInvalidRange, "relevance must be between 1 and 3")
	}

	return &MasterGoal{
		ID:             id,
		MasterSprintID: sprintID,
		DisciplineID:   disciplineID,
		SubjectID:      subjectID,
		Type:           goalType,
		Instructions:   strings.TrimSpace(instructions),
		ExternalLink:   strings.TrimSpace(externalLink),
		Relevance:      relevance,
		CreatedAt:      now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PLAN TREE
// ══════════════════════════════════════════════════════════════════════════════

// SprintNode pairs a sprint with its goals.
type SprintNode struct {
	Sprint *MasterSprint
	Goals  []*MasterGoal
}

// PlanTree is a fully loaded master plan: the plan, its sprints ordered by
// position, and each sprint's goals. The instantiation engine consumes this.
type PlanTree struct {
	Plan    *MasterPlan
	Sprints []SprintNode
}

// GoalCount returns the total number of goals across all sprints.
func (t *PlanTree) GoalCount() int {
	total := 0
	for _, node := range t.Sprints {
		total += len(node.Goals)
	}
	return total
}
