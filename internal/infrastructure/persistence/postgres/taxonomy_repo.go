package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/taxonomy"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISCIPLINE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// DisciplineRepository implements taxonomy.DisciplineRepository for PostgreSQL.
type DisciplineRepository struct {
	conn *Connection
}

// NewDisciplineRepository creates a new DisciplineRepository.
func NewDisciplineRepository(conn *Connection) *DisciplineRepository {
	return &DisciplineRepository{conn: conn}
}

const disciplineColumns = `id, name, code, active, version, created_at, updated_at`

// Create creates a new discipline.
func (r *DisciplineRepository) Create(ctx context.Context, d *taxonomy.Discipline) error {
	query := `
		INSERT INTO disciplines (id, name, code, active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		d.ID, d.Name, nullIfEmpty(d.Code), d.Active, d.Version, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("taxonomy", "Create", shared.ErrConflict, "discipline name or code already exists")
		}
		return fmt.Errorf("failed to create discipline: %w", err)
	}
	return nil
}

// GetByID returns a discipline by ID.
func (r *DisciplineRepository) GetByID(ctx context.Context, id string) (*taxonomy.Discipline, error) {
	query := `SELECT ` + disciplineColumns + ` FROM disciplines WHERE id = $1`
	return scanDiscipline(r.conn.QueryRow(ctx, query, id))
}

// GetByName returns a discipline by exact name.
func (r *DisciplineRepository) GetByName(ctx context.Context, name string) (*taxonomy.Discipline, error) {
	query := `SELECT ` + disciplineColumns + ` FROM disciplines WHERE lower(name) = lower($1)`
	return scanDiscipline(r.conn.QueryRow(ctx, query, name))
}

// ListActive returns active disciplines ordered by name.
func (r *DisciplineRepository) ListActive(ctx context.Context) ([]*taxonomy.Discipline, error) {
	query := `SELECT ` + disciplineColumns + ` FROM disciplines WHERE active ORDER BY name`
	return r.list(ctx, query)
}

// ListAll returns every discipline ordered by ID.
func (r *DisciplineRepository) ListAll(ctx context.Context) ([]*taxonomy.Discipline, error) {
	query := `SELECT ` + disciplineColumns + ` FROM disciplines ORDER BY id`
	return r.list(ctx, query)
}

func (r *DisciplineRepository) list(ctx context.Context, query string) ([]*taxonomy.Discipline, error) {
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list disciplines: %w", err)
	}
	defer rows.Close()

	var out []*taxonomy.Discipline
	for rows.Next() {
		d, err := scanDiscipline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update persists discipline mutations.
func (r *DisciplineRepository) Update(ctx context.Context, d *taxonomy.Discipline) error {
	query := `
		UPDATE disciplines
		SET name = $2, code = $3, active = $4, version = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query,
		d.ID, d.Name, nullIfEmpty(d.Code), d.Active, d.Version, d.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("taxonomy", "Update", shared.ErrConflict, "discipline name or code already exists")
		}
		return fmt.Errorf("failed to update discipline: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("taxonomy", "Update", shared.ErrNotFound, "discipline not found")
	}
	return nil
}

// AssignCodes applies a backfill plan in one transaction.
func (r *DisciplineRepository) AssignCodes(ctx context.Context, codes map[string]string) error {
	return assignCodesTx(ctx, r.conn, "disciplines", codes)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubjectRepository implements taxonomy.SubjectRepository for PostgreSQL.
type SubjectRepository struct {
	conn *Connection
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(conn *Connection) *SubjectRepository {
	return &SubjectRepository{conn: conn}
}

const subjectColumns = `id, name, code, discipline_id, active, created_at, updated_at`

// Create creates a new subject.
func (r *SubjectRepository) Create(ctx context.Context, s *taxonomy.Subject) error {
	query := `
		INSERT INTO subjects (id, name, code, discipline_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID, s.Name, nullIfEmpty(s.Code), s.DisciplineID, s.Active, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("taxonomy", "Create", shared.ErrConflict, "subject name or code already exists")
		}
		if IsForeignKeyViolation(err) {
			return shared.NewDomainError("taxonomy", "Create", shared.ErrInvalidReference, "discipline does not exist")
		}
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

// GetByID returns a subject by ID.
func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*taxonomy.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`
	return scanSubject(r.conn.QueryRow(ctx, query, id))
}

// GetByName returns a subject by exact name.
func (r *SubjectRepository) GetByName(ctx context.Context, name string) (*taxonomy.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE lower(name) = lower($1)`
	return scanSubject(r.conn.QueryRow(ctx, query, name))
}

// ListActive returns active subjects ordered by name.
func (r *SubjectRepository) ListActive(ctx context.Context) ([]*taxonomy.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE active ORDER BY name`
	return r.list(ctx, query)
}

// ListByDiscipline returns a discipline's subjects ordered by name.
func (r *SubjectRepository) ListByDiscipline(ctx context.Context, disciplineID string) ([]*taxonomy.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE discipline_id = $1 ORDER BY name`
	return r.list(ctx, query, disciplineID)
}

// ListAll returns every subject ordered by ID.
func (r *SubjectRepository) ListAll(ctx context.Context) ([]*taxonomy.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects ORDER BY id`
	return r.list(ctx, query)
}

func (r *SubjectRepository) list(ctx context.Context, query string, args ...interface{}) ([]*taxonomy.Subject, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	var out []*taxonomy.Subject
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update persists subject mutations.
func (r *SubjectRepository) Update(ctx context.Context, s *taxonomy.Subject) error {
	query := `
		UPDATE subjects
		SET name = $2, code = $3, discipline_id = $4, active = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query,
		s.ID, s.Name, nullIfEmpty(s.Code), s.DisciplineID, s.Active, s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("taxonomy", "Update", shared.ErrConflict, "subject name or code already exists")
		}
		return fmt.Errorf("failed to update subject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("taxonomy", "Update", shared.ErrNotFound, "subject not found")
	}
	return nil
}

// AssignCodes applies a backfill plan in one transaction.
func (r *SubjectRepository) AssignCodes(ctx context.Context, codes map[string]string) error {
	return assignCodesTx(ctx, r.conn, "subjects", codes)
}

// ──────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ──────────────────────────────────────────────────────────────────────────────

func scanDiscipline(row pgx.Row) (*taxonomy.Discipline, error) {
	var d taxonomy.Discipline
	var code sql.NullString

	err := row.Scan(&d.ID, &d.Name, &code, &d.Active, &d.Version, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("taxonomy", "Get", shared.ErrNotFound, "discipline not found")
		}
		return nil, fmt.Errorf("failed to scan discipline: %w", err)
	}
	d.Code = code.String
	return &d, nil
}

func scanSubject(row pgx.Row) (*taxonomy.Subject, error) {
	var s taxonomy.Subject
	var code sql.NullString

	err := row.Scan(&s.ID, &s.Name, &code, &s.DisciplineID, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("taxonomy", "Get", shared.ErrNotFound, "subject not found")
		}
		return nil, fmt.Errorf("failed to scan subject: %w", err)
	}
	s.Code = code.String
	return &s, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// assignCodesTx applies a map of row id -> code as one transaction: every
// update must touch a row, and a unique violation aborts everything.
func assignCodesTx(ctx context.Context, conn *Connection, table string, codes map[string]string) error {
	if len(codes) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE %s SET code = $2, updated_at = NOW() WHERE id = $1 AND code IS NULL", table)

	return conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for id, code := range codes {
			batch.Queue(query, id, code)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range codes {
			tag, err := results.Exec()
			if err != nil {
				if IsUniqueViolation(err) {
					return shared.NewDomainError("taxonomy", "AssignCodes", shared.ErrConflict, "code already taken")
				}
				return fmt.Errorf("failed to assign code: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return shared.NewDomainError("taxonomy", "AssignCodes", shared.ErrConflict, "row missing or already coded")
			}
		}
		return nil
	})
}
