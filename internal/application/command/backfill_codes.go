package command

import (
	"context"
	"fmt"

	"github.com/studyforge/studyforge-backend/internal/domain/taxonomy"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
)

// ══════════════════════════════════════════════════════════════════════════════
// BACKFILL CODES COMMAND
// Assigns short codes to legacy rows created before code generation existed.
// Idempotent: rows that already carry a code are skipped, and running the
// pass on a fully coded dataset is a no-op. Any collision aborts the whole
// pass for its entity kind; nothing is assigned partially.
// ══════════════════════════════════════════════════════════════════════════════

// BackfillCodesCommand selects which entity kinds to backfill.
// The zero value backfills everything.
type BackfillCodesCommand struct {
	// SkipDisciplines / SkipSubjects / SkipPlans exclude an entity kind.
	SkipDisciplines bool
	SkipSubjects    bool
	SkipPlans       bool
}

// Validate validates the command.
func (c BackfillCodesCommand) Validate() error {
	return nil
}

// BackfillCodesResult reports how many codes each pass assigned.
type BackfillCodesResult struct {
	DisciplinesAssigned int
	SubjectsAssigned    int
	PlansAssigned       int
}

// BackfillCodesHandler handles the BackfillCodesCommand.
type BackfillCodesHandler struct {
	disciplineRepo taxonomy.DisciplineRepository
	subjectRepo    taxonomy.SubjectRepository
	templateRepo   template.Repository
}

// NewBackfillCodesHandler creates a new BackfillCodesHandler.
func NewBackfillCodesHandler(
	disciplineRepo taxonomy.DisciplineRepository,
	subjectRepo taxonomy.SubjectRepository,
	templateRepo template.Repository,
) *BackfillCodesHandler {
	return &BackfillCodesHandler{
		disciplineRepo: disciplineRepo,
		subjectRepo:    subjectRepo,
		templateRepo:   templateRepo,
	}
}

// Handle executes the backfill codes command.
func (h *BackfillCodesHandler) Handle(ctx context.Context, cmd BackfillCodesCommand) (*BackfillCodesResult, error) {
	result := &BackfillCodesResult{}

	if !cmd.SkipDisciplines {
		disciplines, err := h.disciplineRepo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("backfill_codes: %w", err)
		}
		rows := make([]taxonomy.BackfillRow, len(disciplines))
		for i, d := range disciplines {
			rows[i] = taxonomy.BackfillRow{ID: d.ID, Name: d.Name, Code: d.Code}
		}
		n, err := h.applyPlan(ctx, rows, h.disciplineRepo.AssignCodes)
		if err != nil {
			return nil, err
		}
		result.DisciplinesAssigned = n
	}

	if !cmd.SkipSubjects {
		subjects, err := h.subjectRepo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("backfill_codes: %w", err)
		}
		rows := make([]taxonomy.BackfillRow, len(subjects))
		for i, s := range subjects {
			rows[i] = taxonomy.BackfillRow{ID: s.ID, Name: s.Name, Code: s.Code}
		}
		n, err := h.applyPlan(ctx, rows, h.subjectRepo.AssignCodes)
		if err != nil {
			return nil, err
		}
		result.SubjectsAssigned = n
	}

	if !cmd.SkipPlans {
		plans, err := h.templateRepo.ListAllPlans(ctx)
		if err != nil {
			return nil, fmt.Errorf("backfill_codes: %w", err)
		}
		rows := make([]taxonomy.BackfillRow, len(plans))
		for i, p := range plans {
			rows[i] = taxonomy.BackfillRow{ID: p.ID, Name: p.Name, Code: p.Code}
		}
		n, err := h.applyPlan(ctx, rows, h.templateRepo.AssignPlanCodes)
		if err != nil {
			return nil, err
		}
		result.PlansAssigned = n
	}

	return result, nil
}

func (h *BackfillCodesHandler) applyPlan(
	ctx context.Context,
	rows []taxonomy.BackfillRow,
	assign func(ctx context.Context, codes map[string]string) error,
) (int, error) {
	plan, err := taxonomy.PlanCodeBackfill(rows)
	if err != nil {
		return 0, err
	}
	if plan.IsNoop() {
		return 0, nil
	}
	if err := assign(ctx, plan.Assignments); err != nil {
		return 0, fmt.Errorf("backfill_codes: %w", err)
	}
	return len(plan.Assignments), nil
}
