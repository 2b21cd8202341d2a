package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
)

// TemplateRepository is a map-backed template.Repository.
type TemplateRepository struct {
	mu          sync.RWMutex
	plans       map[string]*template.MasterPlan
	sprints     map[string]*template.MasterSprint
	goals       map[string]*template.MasterGoal
	goalOrder   []string            // insertion order of goal ids
	planLinks   map[string][]string // plan id -> discipline ids
	activeCodes map[string]string   // code -> active plan id
}

// NewTemplateRepository creates an empty repository.
func NewTemplateRepository() *TemplateRepository {
	return &TemplateRepository{
		plans:       make(map[string]*template.MasterPlan),
		sprints:     make(map[string]*template.MasterSprint),
		goals:       make(map[string]*template.MasterGoal),
		planLinks:   make(map[string][]string),
		activeCodes: make(map[string]string),
	}
}

func copyPlan(p *template.MasterPlan) *template.MasterPlan {
	cp := *p
	return &cp
}

func copyMasterSprint(s *template.MasterSprint) *template.MasterSprint {
	cp := *s
	return &cp
}

func copyMasterGoal(g *template.MasterGoal) *template.MasterGoal {
	cp := *g
	return &cp
}

// CreatePlan stores a new master plan.
func (r *TemplateRepository) CreatePlan(_ context.Context, p *template.MasterPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createPlanLocked(p)
}

func (r *TemplateRepository) createPlanLocked(p *template.MasterPlan) error {
	if _, ok := r.plans[p.ID]; ok {
		return shared.NewDomainError("template", "CreatePlan", shared.ErrConflict, "plan id already exists")
	}
	if p.Active && p.Code != "" {
		if _, ok := r.activeCodes[p.Code]; ok {
			return shared.NewDomainError("template", "CreatePlan", shared.ErrConflict, "an active plan already holds this code")
		}
	}

	r.plans[p.ID] = copyPlan(p)
	if p.Active && p.Code != "" {
		r.activeCodes[p.Code] = p.ID
	}
	return nil
}

// GetPlan returns a master plan by ID.
func (r *TemplateRepository) GetPlan(_ context.Context, id string) (*template.MasterPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[id]
	if !ok {
		return nil, shared.NewDomainError("template", "GetPlan", shared.ErrNotFound, "master plan not found")
	}
	return copyPlan(p), nil
}

// UpdatePlan persists plan mutations.
func (r *TemplateRepository) UpdatePlan(_ context.Context, p *template.MasterPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updatePlanLocked(p)
}

func (r *TemplateRepository) updatePlanLocked(p *template.MasterPlan) error {
	old, ok := r.plans[p.ID]
	if !ok {
		return shared.NewDomainError("template", "UpdatePlan", shared.ErrNotFound, "master plan not found")
	}
	if old.Active && old.Code != "" && r.activeCodes[old.Code] == p.ID {
		delete(r.activeCodes, old.Code)
	}

	r.plans[p.ID] = copyPlan(p)
	if p.Active && p.Code != "" {
		r.activeCodes[p.Code] = p.ID
	}
	return nil
}

// ReplacePlanVersion atomically persists a version bump.
func (r *TemplateRepository) ReplacePlanVersion(_ context.Context, superseded, successor *template.MasterPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.updatePlanLocked(superseded); err != nil {
		return err
	}
	if err := r.createPlanLocked(successor); err != nil {
		// Roll the deactivation back so a failed bump leaves no trace.
		restored := copyPlan(superseded)
		restored.Active = true
		_ = r.updatePlanLocked(restored)
		return err
	}
	return nil
}

// ListActivePlans returns active plans ordered by name.
func (r *TemplateRepository) ListActivePlans(_ context.Context) ([]*template.MasterPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*template.MasterPlan, 0, len(r.plans))
	for _, p := range r.plans {
		if p.Active {
			out = append(out, copyPlan(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListAllPlans returns every plan ordered by ID.
func (r *TemplateRepository) ListAllPlans(_ context.Context) ([]*template.MasterPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*template.MasterPlan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, copyPlan(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AssignPlanCodes applies a backfill plan atomically.
func (r *TemplateRepository) AssignPlanCodes(_ context.Context, codes map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, code := range codes {
		p, ok := r.plans[id]
		if !ok {
			return shared.NewDomainError("template", "AssignPlanCodes", shared.ErrNotFound, "master plan not found: "+id)
		}
		if p.Active {
			if takenBy, taken := r.activeCodes[code]; taken && takenBy != id {
				return shared.NewDomainError("template", "AssignPlanCodes", shared.ErrConflict, "code already taken: "+code)
			}
		}
	}
	for id, code := range codes {
		p := r.plans[id]
		if p.Active && p.Code != "" {
			delete(r.activeCodes, p.Code)
		}
		p.Code = code
		if p.Active {
			r.activeCodes[code] = id
		}
	}
	return nil
}

// AddSprint stores a new master sprint.
func (r *TemplateRepository) AddSprint(_ context.Context, s *template.MasterSprint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plans[s.MasterPlanID]; !ok {
		return shared.NewDomainError("template", "AddSprint", shared.ErrInvalidReference, "master plan does not exist")
	}
	if _, ok := r.sprints[s.ID]; ok {
		return shared.NewDomainError("template", "AddSprint", shared.ErrConflict, "sprint id already exists")
	}
	for _, existing := range r.sprints {
		if existing.MasterPlanID == s.MasterPlanID && existing.Position == s.Position {
			return shared.NewDomainError("template", "AddSprint", shared.ErrConflict, "sprint position already taken")
		}
	}

	r.sprints[s.ID] = copyMasterSprint(s)
	return nil
}

// GetSprint returns a sprint by ID.
func (r *TemplateRepository) GetSprint(_ context.Context, id string) (*template.MasterSprint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sprints[id]
	if !ok {
		return nil, shared.NewDomainError("template", "GetSprint", shared.ErrNotFound, "master sprint not found")
	}
	return copyMasterSprint(s), nil
}

// ListSprints returns a plan's sprints ordered by position.
func (r *TemplateRepository) ListSprints(_ context.Context, planID string) ([]*template.MasterSprint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listSprintsLocked(planID), nil
}

func (r *TemplateRepository) listSprintsLocked(planID string) []*template.MasterSprint {
	out := make([]*template.MasterSprint, 0)
	for _, s := range r.sprints {
		if s.MasterPlanID == planID {
			out = append(out, copyMasterSprint(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// AddGoal stores a new master goal.
func (r *TemplateRepository) AddGoal(_ context.Context, g *template.MasterGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sprints[g.MasterSprintID]; !ok {
		return shared.NewDomainError("template", "AddGoal", shared.ErrInvalidReference, "master sprint does not exist")
	}
	if _, ok := r.goals[g.ID]; ok {
		return shared.NewDomainError("template", "AddGoal", shared.ErrConflict, "goal id already exists")
	}

	r.goals[g.ID] = copyMasterGoal(g)
	r.goalOrder = append(r.goalOrder, g.ID)
	return nil
}

// ListGoals returns a sprint's goals in creation order.
func (r *TemplateRepository) ListGoals(_ context.Context, sprintID string) ([]*template.MasterGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listGoalsLocked(sprintID), nil
}

func (r *TemplateRepository) listGoalsLocked(sprintID string) []*template.MasterGoal {
	out := make([]*template.MasterGoal, 0)
	for _, id := range r.goalOrder {
		g := r.goals[id]
		if g.MasterSprintID == sprintID {
			out = append(out, copyMasterGoal(g))
		}
	}
	return out
}

// GetTree loads the full plan tree.
func (r *TemplateRepository) GetTree(_ context.Context, planID string) (*template.PlanTree, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[planID]
	if !ok {
		return nil, shared.NewDomainError("template", "GetTree", shared.ErrNotFound, "master plan not found")
	}

	tree := &template.PlanTree{Plan: copyPlan(p)}
	for _, s := range r.listSprintsLocked(planID) {
		tree.Sprints = append(tree.Sprints, template.SprintNode{
			Sprint: s,
			Goals:  r.listGoalsLocked(s.ID),
		})
	}
	return tree, nil
}

// LinkDiscipline records a plan-discipline link. Idempotent.
func (r *TemplateRepository) LinkDiscipline(_ context.Context, planID, disciplineID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plans[planID]; !ok {
		return shared.NewDomainError("template", "LinkDiscipline", shared.ErrInvalidReference, "master plan does not exist")
	}
	for _, id := range r.planLinks[planID] {
		if id == disciplineID {
			return nil
		}
	}
	r.planLinks[planID] = append(r.planLinks[planID], disciplineID)
	return nil
}

// ListPlanDisciplines returns discipline IDs linked to a plan.
func (r *TemplateRepository) ListPlanDisciplines(_ context.Context, planID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.planLinks[planID]))
	copy(out, r.planLinks[planID])
	sort.Strings(out)
	return out, nil
}
