package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
)

// studyPlanStore holds the instance-tier state shared by the root repository
// and its transaction views.
type studyPlanStore struct {
	mu        sync.Mutex
	plans     map[string]*studyplan.StudentPlan
	sprints   map[string]*studyplan.StudentSprint
	goals     map[string]*studyplan.StudentGoal
	goalOrder []string
	pointers  map[string]*studyplan.CurrentSprintPointer

	// failGoalInsert aborts CreateTree mid-insert when it returns true.
	// Test hook for exercising transactional rollback.
	failGoalInsert func(goalID string) bool
}

// StudyPlanRepository is a map-backed studyplan.Repository. Transactions are
// modelled with one global mutex plus a full-store snapshot: InTx serializes
// writers, and an error from fn restores the snapshot, so partially created
// trees are impossible, matching the postgres implementation's contract.
type StudyPlanRepository struct {
	store *studyPlanStore
	inTx  bool
}

// NewStudyPlanRepository creates an empty repository.
func NewStudyPlanRepository() *StudyPlanRepository {
	return &StudyPlanRepository{store: &studyPlanStore{
		plans:    make(map[string]*studyplan.StudentPlan),
		sprints:  make(map[string]*studyplan.StudentSprint),
		goals:    make(map[string]*studyplan.StudentGoal),
		pointers: make(map[string]*studyplan.CurrentSprintPointer),
	}}
}

// SetGoalInsertHook installs a CreateTree failure hook. Tests only.
func (r *StudyPlanRepository) SetGoalInsertHook(fn func(goalID string) bool) {
	r.store.failGoalInsert = fn
}

func (r *StudyPlanRepository) lock() {
	if !r.inTx {
		r.store.mu.Lock()
	}
}

func (r *StudyPlanRepository) unlock() {
	if !r.inTx {
		r.store.mu.Unlock()
	}
}

func copyStudentPlan(p *studyplan.StudentPlan) *studyplan.StudentPlan {
	cp := *p
	return &cp
}

func copyStudentSprint(s *studyplan.StudentSprint) *studyplan.StudentSprint {
	cp := *s
	return &cp
}

func copyStudentGoal(g *studyplan.StudentGoal) *studyplan.StudentGoal {
	cp := *g
	if g.CompletedAt != nil {
		at := *g.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}

func copyPointer(p *studyplan.CurrentSprintPointer) *studyplan.CurrentSprintPointer {
	cp := *p
	return &cp
}

func (s *studyPlanStore) snapshot() *studyPlanStore {
	snap := &studyPlanStore{
		plans:     make(map[string]*studyplan.StudentPlan, len(s.plans)),
		sprints:   make(map[string]*studyplan.StudentSprint, len(s.sprints)),
		goals:     make(map[string]*studyplan.StudentGoal, len(s.goals)),
		goalOrder: append([]string(nil), s.goalOrder...),
		pointers:  make(map[string]*studyplan.CurrentSprintPointer, len(s.pointers)),
	}
	for id, p := range s.plans {
		snap.plans[id] = copyStudentPlan(p)
	}
	for id, sp := range s.sprints {
		snap.sprints[id] = copyStudentSprint(sp)
	}
	for id, g := range s.goals {
		snap.goals[id] = copyStudentGoal(g)
	}
	for id, ptr := range s.pointers {
		snap.pointers[id] = copyPointer(ptr)
	}
	return snap
}

func (s *studyPlanStore) restore(snap *studyPlanStore) {
	s.plans = snap.plans
	s.sprints = snap.sprints
	s.goals = snap.goals
	s.goalOrder = snap.goalOrder
	s.pointers = snap.pointers
}

// InTx runs fn against a transaction view. An error rolls every change back.
func (r *StudyPlanRepository) InTx(_ context.Context, fn func(tx studyplan.Repository) error) error {
	if r.inTx {
		// Nested transactions join the outer one.
		return fn(r)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap := r.store.snapshot()
	if err := fn(&StudyPlanRepository{store: r.store, inTx: true}); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// LockStudentPlan is a no-op: the global transaction mutex already serializes
// concurrent commands on the same student.
func (r *StudyPlanRepository) LockStudentPlan(_ context.Context, _ string) error {
	return nil
}

// CreateTree atomically stores a whole instance tree.
func (r *StudyPlanRepository) CreateTree(ctx context.Context, tree *studyplan.Tree) error {
	if !r.inTx {
		return r.InTx(ctx, func(tx studyplan.Repository) error {
			return tx.CreateTree(ctx, tree)
		})
	}

	if _, ok := r.store.plans[tree.Plan.ID]; ok {
		return shared.NewDomainError("studyplan", "CreateTree", shared.ErrConflict, "plan id already exists")
	}

	r.store.plans[tree.Plan.ID] = copyStudentPlan(tree.Plan)
	for _, sg := range tree.Sprints {
		if _, ok := r.store.sprints[sg.Sprint.ID]; ok {
			return shared.NewDomainError("studyplan", "CreateTree", shared.ErrConflict, "sprint id already exists")
		}
		r.store.sprints[sg.Sprint.ID] = copyStudentSprint(sg.Sprint)
		for _, g := range sg.Goals {
			if r.store.failGoalInsert != nil && r.store.failGoalInsert(g.ID) {
				return shared.NewDomainError("studyplan", "CreateTree", shared.ErrInternal, "goal insert failed")
			}
			r.store.goals[g.ID] = copyStudentGoal(g)
			r.store.goalOrder = append(r.store.goalOrder, g.ID)
		}
	}
	if tree.Pointer != nil {
		r.store.pointers[tree.Pointer.StudentID] = copyPointer(tree.Pointer)
	}
	return nil
}

// GetPlan returns a plan by ID.
func (r *StudyPlanRepository) GetPlan(_ context.Context, id string) (*studyplan.StudentPlan, error) {
	r.lock()
	defer r.unlock()

	p, ok := r.store.plans[id]
	if !ok {
		return nil, shared.NewDomainError("studyplan", "GetPlan", shared.ErrNotFound, "student plan not found")
	}
	return copyStudentPlan(p), nil
}

// GetActivePlanByStudent returns the student's active plan.
func (r *StudyPlanRepository) GetActivePlanByStudent(_ context.Context, studentID string) (*studyplan.StudentPlan, error) {
	r.lock()
	defer r.unlock()

	for _, p := range r.store.plans {
		if p.StudentID == studentID && p.Status == studyplan.PlanStatusActive {
			return copyStudentPlan(p), nil
		}
	}
	return nil, shared.NewDomainError("studyplan", "GetActivePlanByStudent", shared.ErrNotFound, "student has no active plan")
}

// UpdatePlan persists plan mutations.
func (r *StudyPlanRepository) UpdatePlan(_ context.Context, p *studyplan.StudentPlan) error {
	r.lock()
	defer r.unlock()

	if _, ok := r.store.plans[p.ID]; !ok {
		return shared.NewDomainError("studyplan", "UpdatePlan", shared.ErrNotFound, "student plan not found")
	}
	r.store.plans[p.ID] = copyStudentPlan(p)
	return nil
}

// DeletePlan removes a plan and cascades to sprints, goals and the pointer.
func (r *StudyPlanRepository) DeletePlan(_ context.Context, id string) error {
	r.lock()
	defer r.unlock()

	p, ok := r.store.plans[id]
	if !ok {
		return shared.NewDomainError("studyplan", "DeletePlan", shared.ErrNotFound, "student plan not found")
	}

	for sid, s := range r.store.sprints {
		if s.StudentPlanID != id {
			continue
		}
		for gid, g := range r.store.goals {
			if g.StudentSprintID == sid {
				delete(r.store.goals, gid)
			}
		}
		if ptr, has := r.store.pointers[p.StudentID]; has && ptr.StudentSprintID == sid {
			delete(r.store.pointers, p.StudentID)
		}
		delete(r.store.sprints, sid)
	}
	delete(r.store.plans, id)

	kept := r.store.goalOrder[:0]
	for _, gid := range r.store.goalOrder {
		if _, alive := r.store.goals[gid]; alive {
			kept = append(kept, gid)
		}
	}
	r.store.goalOrder = kept
	return nil
}

// GetSprint returns a sprint by ID.
func (r *StudyPlanRepository) GetSprint(_ context.Context, id string) (*studyplan.StudentSprint, error) {
	r.lock()
	defer r.unlock()

	s, ok := r.store.sprints[id]
	if !ok {
		return nil, shared.NewDomainError("studyplan", "GetSprint", shared.ErrNotFound, "student sprint not found")
	}
	return copyStudentSprint(s), nil
}

// ListSprints returns a plan's sprints ordered by position.
func (r *StudyPlanRepository) ListSprints(_ context.Context, planID string) ([]*studyplan.StudentSprint, error) {
	r.lock()
	defer r.unlock()

	out := make([]*studyplan.StudentSprint, 0)
	for _, s := range r.store.sprints {
		if s.StudentPlanID == planID {
			out = append(out, copyStudentSprint(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// GetGoal returns a goal by ID.
func (r *StudyPlanRepository) GetGoal(_ context.Context, id string) (*studyplan.StudentGoal, error) {
	r.lock()
	defer r.unlock()

	g, ok := r.store.goals[id]
	if !ok {
		return nil, shared.NewDomainError("studyplan", "GetGoal", shared.ErrNotFound, "student goal not found")
	}
	return copyStudentGoal(g), nil
}

// ListGoalsBySprint returns a sprint's goals in creation order.
func (r *StudyPlanRepository) ListGoalsBySprint(_ context.Context, sprintID string) ([]*studyplan.StudentGoal, error) {
	r.lock()
	defer r.unlock()

	out := make([]*studyplan.StudentGoal, 0)
	for _, gid := range r.store.goalOrder {
		g := r.store.goals[gid]
		if g != nil && g.StudentSprintID == sprintID {
			out = append(out, copyStudentGoal(g))
		}
	}
	return out, nil
}

// ListGoalsByPlan returns every goal of a plan in creation order.
func (r *StudyPlanRepository) ListGoalsByPlan(_ context.Context, planID string) ([]*studyplan.StudentGoal, error) {
	r.lock()
	defer r.unlock()

	sprintIDs := make(map[string]bool)
	for id, s := range r.store.sprints {
		if s.StudentPlanID == planID {
			sprintIDs[id] = true
		}
	}

	out := make([]*studyplan.StudentGoal, 0)
	for _, gid := range r.store.goalOrder {
		g := r.store.goals[gid]
		if g != nil && sprintIDs[g.StudentSprintID] {
			out = append(out, copyStudentGoal(g))
		}
	}
	return out, nil
}

// UpdateGoal persists goal mutations.
func (r *StudyPlanRepository) UpdateGoal(_ context.Context, g *studyplan.StudentGoal) error {
	r.lock()
	defer r.unlock()

	if _, ok := r.store.goals[g.ID]; !ok {
		return shared.NewDomainError("studyplan", "UpdateGoal", shared.ErrNotFound, "student goal not found")
	}
	r.store.goals[g.ID] = copyStudentGoal(g)
	return nil
}

// GetPointer returns the student's current sprint pointer.
func (r *StudyPlanRepository) GetPointer(_ context.Context, studentID string) (*studyplan.CurrentSprintPointer, error) {
	r.lock()
	defer r.unlock()

	ptr, ok := r.store.pointers[studentID]
	if !ok {
		return nil, shared.NewDomainError("studyplan", "GetPointer", shared.ErrNotFound, "student has no current sprint")
	}
	return copyPointer(ptr), nil
}

// SetPointer creates or moves the pointer.
func (r *StudyPlanRepository) SetPointer(_ context.Context, ptr *studyplan.CurrentSprintPointer) error {
	r.lock()
	defer r.unlock()

	r.store.pointers[ptr.StudentID] = copyPointer(ptr)
	return nil
}

// ClearPointer removes the student's pointer.
func (r *StudyPlanRepository) ClearPointer(_ context.Context, studentID string) error {
	r.lock()
	defer r.unlock()

	delete(r.store.pointers, studentID)
	return nil
}
