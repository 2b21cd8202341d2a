package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/studyforge/studyforge-backend/internal/domain/taxonomy"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST TAXONOMY QUERY
// Catalog reads for plan authoring: active disciplines, each with its
// active subjects.
// ══════════════════════════════════════════════════════════════════════════════

// ListTaxonomyQuery has no parameters.
type ListTaxonomyQuery struct{}

// DisciplineView is a discipline with its subjects.
type DisciplineView struct {
	Discipline *taxonomy.Discipline `json:"discipline"`
	Subjects   []*taxonomy.Subject  `json:"subjects"`
}

// ListTaxonomyHandler handles the ListTaxonomyQuery.
type ListTaxonomyHandler struct {
	disciplineRepo taxonomy.DisciplineRepository
	subjectRepo    taxonomy.SubjectRepository
}

// NewListTaxonomyHandler creates a new ListTaxonomyHandler.
func NewListTaxonomyHandler(
	disciplineRepo taxonomy.DisciplineRepository,
	subjectRepo taxonomy.SubjectRepository,
) *ListTaxonomyHandler {
	return &ListTaxonomyHandler{disciplineRepo: disciplineRepo, subjectRepo: subjectRepo}
}

// Handle executes the list taxonomy query.
func (h *ListTaxonomyHandler) Handle(ctx context.Context, _ ListTaxonomyQuery) ([]DisciplineView, error) {
	disciplines, err := h.disciplineRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_taxonomy: %w", err)
	}

	views := make([]DisciplineView, 0, len(disciplines))
	for _, d := range disciplines {
		subjects, err := h.subjectRepo.ListByDiscipline(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("list_taxonomy: %w", err)
		}
		active := subjects[:0]
		for _, s := range subjects {
			if s.Active {
				active = append(active, s)
			}
		}
		views = append(views, DisciplineView{Discipline: d, Subjects: active})
	}
	return views, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST MASTER PLANS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListMasterPlansQuery selects the catalog scope.
type ListMasterPlansQuery struct {
	// IncludeInactive also returns superseded versions.
	IncludeInactive bool
}

// ListMasterPlansHandler handles the ListMasterPlansQuery.
type ListMasterPlansHandler struct {
	templateRepo template.Repository
}

// NewListMasterPlansHandler creates a new ListMasterPlansHandler.
func NewListMasterPlansHandler(templateRepo template.Repository) *ListMasterPlansHandler {
	return &ListMasterPlansHandler{templateRepo: templateRepo}
}

// Handle executes the list master plans query.
func (h *ListMasterPlansHandler) Handle(ctx context.Context, q ListMasterPlansQuery) ([]*template.MasterPlan, error) {
	if q.IncludeInactive {
		plans, err := h.templateRepo.ListAllPlans(ctx)
		if err != nil {
			return nil, fmt.Errorf("list_master_plans: %w", err)
		}
		return plans, nil
	}
	plans, err := h.templateRepo.ListActivePlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_master_plans: %w", err)
	}
	return plans, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET MASTER PLAN TREE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetMasterPlanTreeQuery identifies the plan.
type GetMasterPlanTreeQuery struct {
	MasterPlanID string
}

// Validate validates the query.
func (q GetMasterPlanTreeQuery) Validate() error {
	if q.MasterPlanID == "" {
		return errors.New("get_master_plan_tree: master_plan_id is required")
	}
	return nil
}

// GetMasterPlanTreeHandler handles the GetMasterPlanTreeQuery.
type GetMasterPlanTreeHandler struct {
	templateRepo template.Repository
}

// NewGetMasterPlanTreeHandler creates a new GetMasterPlanTreeHandler.
func NewGetMasterPlanTreeHandler(templateRepo template.Repository) *GetMasterPlanTreeHandler {
	return &GetMasterPlanTreeHandler{templateRepo: templateRepo}
}

// Handle executes the get master plan tree query.
func (h *GetMasterPlanTreeHandler) Handle(ctx context.Context, q GetMasterPlanTreeQuery) (*template.PlanTree, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_master_plan_tree: validation failed: %w", err)
	}

	tree, err := h.templateRepo.GetTree(ctx, q.MasterPlanID)
	if err != nil {
		return nil, fmt.Errorf("get_master_plan_tree: %w", err)
	}
	return tree, nil
}
