package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDY PLAN REPOSITORY IMPLEMENTATION
// Транзакционный контракт: InTx передаёт в fn репозиторий, привязанный к
// pgx.Tx; LockStudentPlan берёт SELECT ... FOR UPDATE на строки планов
// студента, сериализуя конкурентные команды трекера.
// ══════════════════════════════════════════════════════════════════════════════

// StudyPlanRepository implements studyplan.Repository for PostgreSQL.
type StudyPlanRepository struct {
	conn *Connection

	// tx is set only on the repository handed to an InTx callback.
	tx pgx.Tx
}

// NewStudyPlanRepository creates a new StudyPlanRepository.
func NewStudyPlanRepository(conn *Connection) *StudyPlanRepository {
	return &StudyPlanRepository{conn: conn}
}

func (r *StudyPlanRepository) querier() Querier {
	if r.tx != nil {
		return r.tx
	}
	return r.conn
}

// InTx runs fn with a transaction-bound repository. Nested calls join the
// ambient transaction.
func (r *StudyPlanRepository) InTx(ctx context.Context, fn func(tx studyplan.Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return fn(&StudyPlanRepository{conn: r.conn, tx: tx})
	})
}

// LockStudentPlan locks the student's plan rows until the transaction ends.
// Outside a transaction the lock would be released immediately, so this is
// an error there rather than a silent no-op.
func (r *StudyPlanRepository) LockStudentPlan(ctx context.Context, studentID string) error {
	if r.tx == nil {
		return shared.NewDomainError("studyplan", "LockStudentPlan", shared.ErrInternal, "lock requested outside a transaction")
	}

	rows, err := r.tx.Query(ctx, `SELECT id FROM student_plans WHERE student_id = $1 FOR UPDATE`, studentID)
	if err != nil {
		return fmt.Errorf("failed to lock student plans: %w", err)
	}
	rows.Close()
	return rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Tree creation
// ─────────────────────────────────────────────────────────────────────────────

// CreateTree inserts the whole instance tree in a single batch inside one
// transaction: plan, sprints, goals and the pointer, or nothing at all.
func (r *StudyPlanRepository) CreateTree(ctx context.Context, tree *studyplan.Tree) error {
	if r.tx == nil {
		return r.InTx(ctx, func(tx studyplan.Repository) error {
			return tx.CreateTree(ctx, tree)
		})
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO student_plans (id, student_id, master_plan_id, name, role, description, start_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		tree.Plan.ID, tree.Plan.StudentID, nullIfEmpty(tree.Plan.MasterPlanID),
		tree.Plan.Name, tree.Plan.Role, tree.Plan.Description,
		tree.Plan.StartDate, string(tree.Plan.Status), tree.Plan.CreatedAt, tree.Plan.UpdatedAt,
	)

	for _, sg := range tree.Sprints {
		s := sg.Sprint
		batch.Queue(`
			INSERT INTO student_sprints (id, student_plan_id, master_sprint_id, position, name, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			s.ID, s.StudentPlanID, nullIfEmpty(s.MasterSprintID),
			s.Position, s.Name, s.StartDate, s.EndDate,
		)

		for _, g := range sg.Goals {
			batch.Queue(`
				INSERT INTO student_goals (
					id, student_sprint_id, discipline_id, subject_id, goal_type,
					instructions, external_link, relevance, status,
					study_minutes, total_questions, correct_questions,
					performance_percent, completed_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			`,
				g.ID, g.StudentSprintID, g.DisciplineID, g.SubjectID, string(g.Type),
				g.Instructions, g.ExternalLink, g.Relevance, string(g.Status),
				g.StudyMinutes, g.TotalQuestions, g.CorrectQuestions,
				float64(g.PerformancePercent), g.CompletedAt, g.UpdatedAt,
			)
		}
	}

	if tree.Pointer != nil {
		batch.Queue(`
			INSERT INTO current_sprint_pointers (student_id, student_sprint_id, updated_at)
			VALUES ($1, $2, $3)
		`, tree.Pointer.StudentID, tree.Pointer.StudentSprintID, tree.Pointer.UpdatedAt)
	}

	results := r.tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			if IsUniqueViolation(err) {
				return shared.NewDomainError("studyplan", "CreateTree", shared.ErrConflict, "student already has an active plan")
			}
			if IsForeignKeyViolation(err) {
				return shared.NewDomainError("studyplan", "CreateTree", shared.ErrInvalidReference, "tree references a missing row")
			}
			return fmt.Errorf("failed to insert plan tree: %w", err)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Plans
// ─────────────────────────────────────────────────────────────────────────────

const studentPlanColumns = `id, student_id, master_plan_id, name, role, description, start_date, status, created_at, updated_at`

// GetPlan returns a student plan by ID.
func (r *StudyPlanRepository) GetPlan(ctx context.Context, id string) (*studyplan.StudentPlan, error) {
	query := `SELECT ` + studentPlanColumns + ` FROM student_plans WHERE id = $1`
	return scanStudentPlan(r.querier().QueryRow(ctx, query, id))
}

// GetActivePlanByStudent returns the student's active plan.
func (r *StudyPlanRepository) GetActivePlanByStudent(ctx context.Context, studentID string) (*studyplan.StudentPlan, error) {
	query := `SELECT ` + studentPlanColumns + ` FROM student_plans WHERE student_id = $1 AND status = 'active'`
	return scanStudentPlan(r.querier().QueryRow(ctx, query, studentID))
}

// UpdatePlan persists plan mutations.
func (r *StudyPlanRepository) UpdatePlan(ctx context.Context, p *studyplan.StudentPlan) error {
	query := `
		UPDATE student_plans
		SET name = $2, role = $3, description = $4, start_date = $5, status = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := r.querier().Exec(ctx, query,
		p.ID, p.Name, p.Role, p.Description, p.StartDate, string(p.Status), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update student plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("studyplan", "UpdatePlan", shared.ErrNotFound, "student plan not found")
	}
	return nil
}

// DeletePlan removes a plan; sprints, goals and the pointer go with it
// through ON DELETE CASCADE.
func (r *StudyPlanRepository) DeletePlan(ctx context.Context, id string) error {
	tag, err := r.querier().Exec(ctx, `DELETE FROM student_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("studyplan", "DeletePlan", shared.ErrNotFound, "student plan not found")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Sprints
// ─────────────────────────────────────────────────────────────────────────────

const studentSprintColumns = `id, student_plan_id, master_sprint_id, position, name, start_date, end_date`

// GetSprint returns a student sprint by ID.
func (r *StudyPlanRepository) GetSprint(ctx context.Context, id string) (*studyplan.StudentSprint, error) {
	query := `SELECT ` + studentSprintColumns + ` FROM student_sprints WHERE id = $1`
	return scanStudentSprint(r.querier().QueryRow(ctx, query, id))
}

// ListSprints returns a plan's sprints ordered by position.
func (r *StudyPlanRepository) ListSprints(ctx context.Context, planID string) ([]*studyplan.StudentSprint, error) {
	query := `SELECT ` + studentSprintColumns + ` FROM student_sprints WHERE student_plan_id = $1 ORDER BY position`

	rows, err := r.querier().Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student sprints: %w", err)
	}
	defer rows.Close()

	var out []*studyplan.StudentSprint
	for rows.Next() {
		s, err := scanStudentSprint(rows)
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

const studentGoalColumns = `id, student_sprint_id, discipline_id, subject_id, goal_type, instructions, external_link, relevance, status, study_minutes, total_questions, correct_questions, performance_percent, completed_at, updated_at`

// GetGoal returns a student goal by ID.
func (r *StudyPlanRepository) GetGoal(ctx context.Context, id string) (*studyplan.StudentGoal, error) {
	query := `SELECT ` + studentGoalColumns + ` FROM student_goals WHERE id = $1`
	return scanStudentGoal(r.querier().QueryRow(ctx, query, id))
}

// ListGoalsBySprint returns a sprint's goals.
func (r *StudyPlanRepository) ListGoalsBySprint(ctx context.Context, sprintID string) ([]*studyplan.StudentGoal, error) {
	query := `SELECT ` + studentGoalColumns + ` FROM student_goals WHERE student_sprint_id = $1 ORDER BY updated_at, id`
	return r.listGoals(ctx, query, sprintID)
}

// ListGoalsByPlan returns all goals in a plan.
func (r *StudyPlanRepository) ListGoalsByPlan(ctx context.Context, planID string) ([]*studyplan.StudentGoal, error) {
	query := `
		SELECT ` + studentGoalColumns + `
		FROM student_goals
		WHERE student_sprint_id IN (SELECT id FROM student_sprints WHERE student_plan_id = $1)
		ORDER BY updated_at, id
	`
	return r.listGoals(ctx, query, planID)
}

func (r *StudyPlanRepository) listGoals(ctx context.Context, query string, arg interface{}) ([]*studyplan.StudentGoal, error) {
	rows, err := r.querier().Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list student goals: %w", err)
	}
	defer rows.Close()

	var out []*studyplan.StudentGoal
	for rows.Next() {
		g, err := scanStudentGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateGoal persists goal progress mutations.
func (r *StudyPlanRepository) UpdateGoal(ctx context.Context, g *studyplan.StudentGoal) error {
	query := `
		UPDATE student_goals
		SET status = $2, study_minutes = $3, total_questions = $4, correct_questions = $5,
		    performance_percent = $6, completed_at = $7, updated_at = $8
		WHERE id = $1
	`

	tag, err := r.querier().Exec(ctx, query,
		g.ID, string(g.Status), g.StudyMinutes, g.TotalQuestions, g.CorrectQuestions,
		float64(g.PerformancePercent), g.CompletedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update student goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("studyplan", "UpdateGoal", shared.ErrNotFound, "student goal not found")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Current sprint pointer
// ─────────────────────────────────────────────────────────────────────────────

// GetPointer returns the student's current sprint pointer.
func (r *StudyPlanRepository) GetPointer(ctx context.Context, studentID string) (*studyplan.CurrentSprintPointer, error) {
	query := `SELECT student_id, student_sprint_id, updated_at FROM current_sprint_pointers WHERE student_id = $1`

	var ptr studyplan.CurrentSprintPointer
	err := r.querier().QueryRow(ctx, query, studentID).Scan(&ptr.StudentID, &ptr.StudentSprintID, &ptr.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("studyplan", "GetPointer", shared.ErrNotFound, "no current sprint")
		}
		return nil, fmt.Errorf("failed to get sprint pointer: %w", err)
	}
	return &ptr, nil
}

// SetPointer creates or moves the pointer.
func (r *StudyPlanRepository) SetPointer(ctx context.Context, ptr *studyplan.CurrentSprintPointer) error {
	query := `
		INSERT INTO current_sprint_pointers (student_id, student_sprint_id, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id) DO UPDATE
		SET student_sprint_id = EXCLUDED.student_sprint_id, updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier().Exec(ctx, query, ptr.StudentID, ptr.StudentSprintID, ptr.UpdatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.NewDomainError("studyplan", "SetPointer", shared.ErrInvalidReference, "sprint does not exist")
		}
		return fmt.Errorf("failed to set sprint pointer: %w", err)
	}
	return nil
}

// ClearPointer removes the student's pointer. Idempotent.
func (r *StudyPlanRepository) ClearPointer(ctx context.Context, studentID string) error {
	_, err := r.querier().Exec(ctx, `DELETE FROM current_sprint_pointers WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("failed to clear sprint pointer: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ──────────────────────────────────────────────────────────────────────────────

func scanStudentPlan(row pgx.Row) (*studyplan.StudentPlan, error) {
	var p studyplan.StudentPlan
	var masterPlanID sql.NullString
	var status string

	err := row.Scan(&p.ID, &p.StudentID, &masterPlanID, &p.Name, &p.Role, &p.Description,
		&p.StartDate, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("studyplan", "Get", shared.ErrNotFound, "student plan not found")
		}
		return nil, fmt.Errorf("failed to scan student plan: %w", err)
	}
	p.MasterPlanID = masterPlanID.String
	p.Status = studyplan.PlanStatus(status)
	return &p, nil
}

func scanStudentSprint(row pgx.Row) (*studyplan.StudentSprint, error) {
	var s studyplan.StudentSprint
	var masterSprintID sql.NullString

	err := row.Scan(&s.ID, &s.StudentPlanID, &masterSprintID, &s.Position, &s.Name,
		&s.StartDate, &s.EndDate)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("studyplan", "Get", shared.ErrNotFound, "student sprint not found")
		}
		return nil, fmt.Errorf("failed to scan student sprint: %w", err)
	}
	s.MasterSprintID = masterSprintID.String
	return &s, nil
}

func scanStudentGoal(row pgx.Row) (*studyplan.StudentGoal, error) {
	var g studyplan.StudentGoal
	var goalType, status string
	var performance float64

	err := row.Scan(&g.ID, &g.StudentSprintID, &g.DisciplineID, &g.SubjectID, &goalType,
		&g.Instructions, &g.ExternalLink, &g.Relevance, &status,
		&g.StudyMinutes, &g.TotalQuestions, &g.CorrectQuestions,
		&performance, &g.CompletedAt, &g.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("studyplan", "Get", shared.ErrNotFound, "student goal not found")
		}
		return nil, fmt.Errorf("failed to scan student goal: %w", err)
	}
	g.Type = template.GoalType(goalType)
	g.Status = studyplan.GoalStatus(status)
	g.PerformancePercent = shared.Percent(performance)
	return &g, nil
}
