package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TemplateRepository implements template.Repository for PostgreSQL.
type TemplateRepository struct {
	conn *Connection
}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(conn *Connection) *TemplateRepository {
	return &TemplateRepository{conn: conn}
}

const masterPlanColumns = `id, name, code, role, description, duration_months, version, active, created_at, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// Plans
// ─────────────────────────────────────────────────────────────────────────────

// CreatePlan stores a new master plan.
func (r *TemplateRepository) CreatePlan(ctx context.Context, p *template.MasterPlan) error {
	query := `
		INSERT INTO master_plans (
			id, name, code, role, description, duration_months, version, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ID, p.Name, nullIfEmpty(p.Code), p.Role, p.Description,
		p.DurationMonths, p.Version, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("template", "CreatePlan", shared.ErrConflict, "an active plan already holds this code")
		}
		return fmt.Errorf("failed to create master plan: %w", err)
	}
	return nil
}

// GetPlan returns a master plan by ID.
func (r *TemplateRepository) GetPlan(ctx context.Context, id string) (*template.MasterPlan, error) {
	query := `SELECT ` + masterPlanColumns + ` FROM master_plans WHERE id = $1`
	return scanMasterPlan(r.conn.QueryRow(ctx, query, id))
}

// UpdatePlan persists plan mutations.
func (r *TemplateRepository) UpdatePlan(ctx context.Context, p *template.MasterPlan) error {
	tag, err := r.conn.Exec(ctx, updateMasterPlanSQL,
		p.ID, p.Name, nullIfEmpty(p.Code), p.Role, p.Description,
		p.DurationMonths, p.Version, p.Active, p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("template", "UpdatePlan", shared.ErrConflict, "an active plan already holds this code")
		}
		return fmt.Errorf("failed to update master plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("template", "UpdatePlan", shared.ErrNotFound, "master plan not found")
	}
	return nil
}

const updateMasterPlanSQL = `
	UPDATE master_plans
	SET name = $2, code = $3, role = $4, description = $5,
	    duration_months = $6, version = $7, active = $8, updated_at = $9
	WHERE id = $1
`

// ReplacePlanVersion atomically deactivates the superseded version and
// inserts its successor. The partial unique index on active codes admits
// the successor only once the predecessor row is inactive, which is why
// the update must run first.
func (r *TemplateRepository) ReplacePlanVersion(ctx context.Context, superseded, successor *template.MasterPlan) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateMasterPlanSQL,
			superseded.ID, superseded.Name, nullIfEmpty(superseded.Code), superseded.Role, superseded.Description,
			superseded.DurationMonths, superseded.Version, superseded.Active, superseded.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to supersede master plan: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.NewDomainError("template", "ReplacePlanVersion", shared.ErrNotFound, "master plan not found")
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO master_plans (
				id, name, code, role, description, duration_months, version, active, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			successor.ID, successor.Name, nullIfEmpty(successor.Code), successor.Role, successor.Description,
			successor.DurationMonths, successor.Version, successor.Active, successor.CreatedAt, successor.UpdatedAt,
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.NewDomainError("template", "ReplacePlanVersion", shared.ErrConflict, "successor version already exists")
			}
			return fmt.Errorf("failed to insert successor plan: %w", err)
		}
		return nil
	})
}

// ListActivePlans returns active plans ordered by name.
func (r *TemplateRepository) ListActivePlans(ctx context.Context) ([]*template.MasterPlan, error) {
	query := `SELECT ` + masterPlanColumns + ` FROM master_plans WHERE active ORDER BY name`
	return r.listPlans(ctx, query)
}

// ListAllPlans returns every plan ordered by ID.
func (r *TemplateRepository) ListAllPlans(ctx context.Context) ([]*template.MasterPlan, error) {
	query := `SELECT ` + masterPlanColumns + ` FROM master_plans ORDER BY id`
	return r.listPlans(ctx, query)
}

func (r *TemplateRepository) listPlans(ctx context.Context, query string) ([]*template.MasterPlan, error) {
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list master plans: %w", err)
	}
	defer rows.Close()

	var out []*template.MasterPlan
	for rows.Next() {
		p, err := scanMasterPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AssignPlanCodes applies a backfill plan in one transaction.
func (r *TemplateRepository) AssignPlanCodes(ctx context.Context, codes map[string]string) error {
	return assignCodesTx(ctx, r.conn, "master_plans", codes)
}

// ─────────────────────────────────────────────────────────────────────────────
// Sprints
// ─────────────────────────────────────────────────────────────────────────────

// AddSprint stores a new master sprint.
func (r *TemplateRepository) AddSprint(ctx context.Context, s *template.MasterSprint) error {
	query := `
		INSERT INTO master_sprints (id, master_plan_id, position, name, start_offset_days, end_offset_days, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID, s.MasterPlanID, s.Position, s.Name,
		s.Window.StartOffsetDays, s.Window.EndOffsetDays, s.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("template", "AddSprint", shared.ErrConflict, "sprint position already taken")
		}
		if IsForeignKeyViolation(err) {
			return shared.NewDomainError("template", "AddSprint", shared.ErrInvalidReference, "master plan does not exist")
		}
		return fmt.Errorf("failed to add master sprint: %w", err)
	}
	return nil
}

const masterSprintColumns = `id, master_plan_id, position, name, start_offset_days, end_offset_days, created_at`

// GetSprint returns a sprint by ID.
func (r *TemplateRepository) GetSprint(ctx context.Context, id string) (*template.MasterSprint, error) {
	query := `SELECT ` + masterSprintColumns + ` FROM master_sprints WHERE id = $1`
	return scanMasterSprint(r.conn.QueryRow(ctx, query, id))
}

// ListSprints returns a plan's sprints ordered by position.
func (r *TemplateRepository) ListSprints(ctx context.Context, planID string) ([]*template.MasterSprint, error) {
	query := `SELECT ` + masterSprintColumns + ` FROM master_sprints WHERE master_plan_id = $1 ORDER BY position`

	rows, err := r.conn.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list master sprints: %w", err)
	}
	defer rows.Close()

	var out []*template.MasterSprint
	for rows.Next() {
		s, err := scanMasterSprint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Goals
// ─────────────────────────────────────────────────────────────────────────────

// AddGoal stores a new master goal.
func (r *TemplateRepository) AddGoal(ctx context.Context, g *template.MasterGoal) error {
	query := `
		INSERT INTO master_goals (
			id, master_sprint_id, discipline_id, subject_id, goal_type,
			instructions, external_link, relevance, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		g.ID, g.MasterSprintID, g.DisciplineID, g.SubjectID, string(g.Type),
		g.Instructions, g.ExternalLink, g.Relevance, g.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.NewDomainError("template", "AddGoal", shared.ErrInvalidReference, "sprint, discipline or subject does not exist")
		}
		return fmt.Errorf("failed to add master goal: %w", err)
	}
	return nil
}

const masterGoalColumns = `id, master_sprint_id, discipline_id, subject_id, goal_type, instructions, external_link, relevance, created_at`

// ListGoals returns a sprint's goals in creation order.
func (r *TemplateRepository) ListGoals(ctx context.Context, sprintID string) ([]*template.MasterGoal, error) {
	query := `SELECT ` + masterGoalColumns + ` FROM master_goals WHERE master_sprint_id = $1 ORDER BY created_at, id`

	rows, err := r.conn.Query(ctx, query, sprintID)
	if err != nil {
		return nil, fmt.Errorf("failed to list master goals: %w", err)
	}
	defer rows.Close()

	var out []*template.MasterGoal
	for rows.Next() {
		g, err := scanMasterGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetTree loads the full plan tree: plan, ordered sprints, goals. Goals are
// fetched in one pass and grouped in memory, one round-trip per tier.
func (r *TemplateRepository) GetTree(ctx context.Context, planID string) (*template.PlanTree, error) {
	plan, err := r.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	sprints, err := r.ListSprints(ctx, planID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + masterGoalColumns + `
		FROM master_goals
		WHERE master_sprint_id IN (SELECT id FROM master_sprints WHERE master_plan_id = $1)
		ORDER BY created_at, id
	`
	rows, err := r.conn.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan tree goals: %w", err)
	}
	defer rows.Close()

	bySprint := make(map[string][]*template.MasterGoal)
	for rows.Next() {
		g, err := scanMasterGoal(rows)
		if err != nil {
			return nil, err
		}
		bySprint[g.MasterSprintID] = append(bySprint[g.MasterSprintID], g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tree := &template.PlanTree{Plan: plan}
	for _, s := range sprints {
		tree.Sprints = append(tree.Sprints, template.SprintNode{Sprint: s, Goals: bySprint[s.ID]})
	}
	return tree, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Discipline links
// ─────────────────────────────────────────────────────────────────────────────

// LinkDiscipline records a plan-discipline link. Idempotent.
func (r *TemplateRepository) LinkDiscipline(ctx context.Context, planID, disciplineID string) error {
	query := `
		INSERT INTO master_plan_disciplines (master_plan_id, discipline_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query, planID, disciplineID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.NewDomainError("template", "LinkDiscipline", shared.ErrInvalidReference, "plan or discipline does not exist")
		}
		return fmt.Errorf("failed to link discipline: %w", err)
	}
	return nil
}

// ListPlanDisciplines returns discipline IDs linked to a plan.
func (r *TemplateRepository) ListPlanDisciplines(ctx context.Context, planID string) ([]string, error) {
	query := `SELECT discipline_id FROM master_plan_disciplines WHERE master_plan_id = $1 ORDER BY discipline_id`

	rows, err := r.conn.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan disciplines: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan discipline link: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ──────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ──────────────────────────────────────────────────────────────────────────────

func scanMasterPlan(row pgx.Row) (*template.MasterPlan, error) {
	var p template.MasterPlan
	var code sql.NullString

	err := row.Scan(&p.ID, &p.Name, &code, &p.Role, &p.Description,
		&p.DurationMonths, &p.Version, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("template", "Get", shared.ErrNotFound, "master plan not found")
		}
		return nil, fmt.Errorf("failed to scan master plan: %w", err)
	}
	p.Code = code.String
	return &p, nil
}

func scanMasterSprint(row pgx.Row) (*template.MasterSprint, error) {
	var s template.MasterSprint

	err := row.Scan(&s.ID, &s.MasterPlanID, &s.Position, &s.Name,
		&s.Window.StartOffsetDays, &s.Window.EndOffsetDays, &s.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("template", "Get", shared.ErrNotFound, "master sprint not found")
		}
		return nil, fmt.Errorf("failed to scan master sprint: %w", err)
	}
	return &s, nil
}

func scanMasterGoal(row pgx.Row) (*template.MasterGoal, error) {
	var g template.MasterGoal
	var goalType string

	err := row.Scan(&g.ID, &g.MasterSprintID, &g.DisciplineID, &g.SubjectID, &goalType,
		&g.Instructions, &g.ExternalLink, &g.Relevance, &g.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("template", "Get", shared.ErrNotFound, "master goal not found")
		}
		return nil, fmt.Errorf("failed to scan master goal: %w", err)
	}
	g.Type = template.GoalType(goalType)
	return &g, nil
}
