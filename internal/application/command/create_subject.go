package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/taxonomy"
	"github.com/studyforge/studyforge-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE SUBJECT COMMAND
// Registers a subject under an existing discipline. The parent must exist
// and be active; the subject's code is derived from its own name.
// ══════════════════════════════════════════════════════════════════════════════

// CreateSubjectCommand contains the data to create a subject.
type CreateSubjectCommand struct {
	// Name is the human-readable subject name.
	Name string

	// DisciplineID is the parent discipline.
	DisciplineID string
}

// Validate validates the command.
func (c CreateSubjectCommand) Validate() error {
	if c.Name == "" {
		return errors.New("create_subject: name is required")
	}
	if c.DisciplineID == "" {
		return errors.New("create_subject: discipline_id is required")
	}
	return nil
}

// CreateSubjectResult contains the created subject.
type CreateSubjectResult struct {
	Subject *taxonomy.Subject
}

// CreateSubjectHandler handles the CreateSubjectCommand.
type CreateSubjectHandler struct {
	disciplineRepo taxonomy.DisciplineRepository
	subjectRepo    taxonomy.SubjectRepository
}

// NewCreateSubjectHandler creates a new CreateSubjectHandler.
func NewCreateSubjectHandler(
	disciplineRepo taxonomy.DisciplineRepository,
	subjectRepo taxonomy.SubjectRepository,
) *CreateSubjectHandler {
	return &CreateSubjectHandler{disciplineRepo: disciplineRepo, subjectRepo: subjectRepo}
}

// Handle executes the create subject command.
func (h *CreateSubjectHandler) Handle(ctx context.Context, cmd CreateSubjectCommand) (*CreateSubjectResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_subject: validation failed: %w", err)
	}

	parent, err := h.disciplineRepo.GetByID(ctx, cmd.DisciplineID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("taxonomy", "CreateSubject", shared.ErrInvalidReference, "discipline does not exist")
		}
		return nil, fmt.Errorf("create_subject: %w", err)
	}
	if !parent.Active {
		return nil, shared.NewDomainError("taxonomy", "CreateSubject", shared.ErrInvalidReference, "discipline is deactivated")
	}

	s, err := taxonomy.NewSubject(uuid.NewString(), cmd.Name, cmd.DisciplineID, timeutil.Now())
	if err != nil {
		return nil, err
	}

	if err := h.subjectRepo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create_subject: %w", err)
	}

	return &CreateSubjectResult{Subject: s}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DEACTIVATE SUBJECT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeactivateSubjectCommand identifies the subject to deactivate.
type DeactivateSubjectCommand struct {
	SubjectID string
}

// Validate validates the command.
func (c DeactivateSubjectCommand) Validate() error {
	if c.SubjectID == "" {
		return errors.New("deactivate_subject: subject_id is required")
	}
	return nil
}

// DeactivateSubjectHandler handles the DeactivateSubjectCommand.
type DeactivateSubjectHandler struct {
	subjectRepo taxonomy.SubjectRepository
}

// NewDeactivateSubjectHandler creates a new DeactivateSubjectHandler.
func NewDeactivateSubjectHandler(subjectRepo taxonomy.SubjectRepository) *DeactivateSubjectHandler {
	return &DeactivateSubjectHandler{subjectRepo: subjectRepo}
}

// Handle executes the deactivate subject command. Idempotent.
func (h *DeactivateSubjectHandler) Handle(ctx context.Context, cmd DeactivateSubjectCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("deactivate_subject: validation failed: %w", err)
	}

	s, err := h.subjectRepo.GetByID(ctx, cmd.SubjectID)
	if err != nil {
		return fmt.Errorf("deactivate_subject: %w", err)
	}
	if !s.Active {
		return nil
	}

	s.Deactivate(timeutil.Now())
	if err := h.subjectRepo.Update(ctx, s); err != nil {
		return fmt.Errorf("deactivate_subject: %w", err)
	}
	return nil
}
