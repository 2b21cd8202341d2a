// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/studyforge/studyforge-backend/internal/domain/taxonomy"
	"github.com/studyforge/studyforge-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE DISCIPLINE COMMAND
// Registers a taxonomy discipline and derives its immutable short code from
// the name. The code is assigned exactly once, at creation.
// ══════════════════════════════════════════════════════════════════════════════

// CreateDisciplineCommand contains the data to create a discipline.
type CreateDisciplineCommand struct {
	// Name is the human-readable discipline name.
	Name string
}

// Validate validates the command.
func (c CreateDisciplineCommand) Validate() error {
	if c.Name == "" {
		return errors.New("create_discipline: name is required")
	}
	return nil
}

// CreateDisciplineResult contains the created discipline.
type CreateDisciplineResult struct {
	Discipline *taxonomy.Discipline
}

// CreateDisciplineHandler handles the CreateDisciplineCommand.
type CreateDisciplineHandler struct {
	disciplineRepo taxonomy.DisciplineRepository
}

// NewCreateDisciplineHandler creates a new CreateDisciplineHandler.
func NewCreateDisciplineHandler(disciplineRepo taxonomy.DisciplineRepository) *CreateDisciplineHandler {
	return &CreateDisciplineHandler{disciplineRepo: disciplineRepo}
}

// Handle executes the create discipline command.
func (h *CreateDisciplineHandler) Handle(ctx context.Context, cmd CreateDisciplineCommand) (*CreateDisciplineResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_discipline: validation failed: %w", err)
	}

	d, err := taxonomy.NewDiscipline(uuid.NewString(), cmd.Name, timeutil.Now())
	if err != nil {
		return nil, err
	}

	if err := h.disciplineRepo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create_discipline: %w", err)
	}

	return &CreateDisciplineResult{Discipline: d}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DEACTIVATE DISCIPLINE COMMAND
// Soft delete: the discipline stops appearing in new templates, but existing
// goals keep their references.
// ══════════════════════════════════════════════════════════════════════════════

// DeactivateDisciplineCommand identifies the discipline to deactivate.
type DeactivateDisciplineCommand struct {
	DisciplineID string
}

// Validate validates the command.
func (c DeactivateDisciplineCommand) Validate() error {
	if c.DisciplineID == "" {
		return errors.New("deactivate_discipline: discipline_id is required")
	}
	return nil
}

// DeactivateDisciplineHandler handles the DeactivateDisciplineCommand.
type DeactivateDisciplineHandler struct {
	disciplineRepo taxonomy.DisciplineRepository
}

// NewDeactivateDisciplineHandler creates a new DeactivateDisciplineHandler.
func NewDeactivateDisciplineHandler(disciplineRepo taxonomy.DisciplineRepository) *DeactivateDisciplineHandler {
	return &DeactivateDisciplineHandler{disciplineRepo: disciplineRepo}
}

// Handle executes the deactivate discipline command. Idempotent.
func (h *DeactivateDisciplineHandler) Handle(ctx context.Context, cmd DeactivateDisciplineCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("deactivate_discipline: validation failed: %w", err)
	}

	d, err := h.disciplineRepo.GetByID(ctx, cmd.DisciplineID)
	if err != nil {
		return fmt.Errorf("deactivate_discipline: %w", err)
	}
	if !d.Active {
		return nil
	}

	d.Deactivate(timeutil.Now())
	if err := h.disciplineRepo.Update(ctx, d); err != nil {
		return fmt.Errorf("deactivate_discipline: %w", err)
	}
	return nil
}
