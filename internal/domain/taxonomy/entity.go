// Package taxonomy содержит справочные данные платформы: дисциплины и предметы.
// Это ядро бизнес-логики - здесь нет внешних зависимостей, кроме генератора кодов.
package taxonomy

import (
	"strings"
	"time"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/pkg/shortcode"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISCIPLINE
// ══════════════════════════════════════════════════════════════════════════════

// Discipline представляет дисциплину (например, "Matemática Básica").
// Код генерируется один раз из названия и никогда не меняется.
type Discipline struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Name - человекочитаемое название; уникально среди всех дисциплин.
	Name string

	// Code - сгенерированный код формата AAAA99999; уникален и неизменяем.
	Code string

	// Active - мягкое удаление: false исключает дисциплину из новых шаблонов,
	// не разрывая существующие ссылки.
	Active bool

	// Version - версия записи.
	Version int

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewDiscipline создаёт новую дисциплину с валидацией и генерацией кода.
func NewDiscipline(id, name string, now time.Time) (*Discipline, error) {
	name = strings.TrimSpace(name)
	if id == "" {
		return nil, shared.NewDomainError("taxonomy", "NewDiscipline", shared.ErrInvalidInput, "discipline id is required")
	}
	if name == "" {
		return nil, shared.NewDomainError("taxonomy", "NewDiscipline", shared.ErrInvalidInput, "discipline name is required")
	}

	code, err := shortcode.Generate(name)
	if err != nil {
		return nil, shared.WrapError("taxonomy", "NewDiscipline", shared.ErrInvalidInput, "cannot derive code from name", err)
	}

	return &Discipline{
		ID:        id,
		Name:      name,
		Code:      code,
		Active:    true,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Deactivate мягко удаляет дисциплину. Зависимые записи не трогаются:
// исторические шаблоны продолжают ссылаться на неактивную дисциплину.
func (d *Discipline) Deactivate(now time.Time) {
	d.Active = false
	d.UpdatedAt = now
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT
// ══════════════════════════════════════════════════════════════════════════════

// Subject представляет предмет внутри дисциплины.
// Код генерируется тем же алгоритмом; уникальность кода глобальная,
// а не в пределах дисциплины.
type Subject struct {
	// ID - внутренний уникальный идентификатор.
	ID string

	// Name - название предмета.
	Name string

	// Code - сгенерированный код; глобально уникален.
	Code string

	// DisciplineID - дисциплина, которой принадлежит предмет.
	DisciplineID string

	// Active - мягкое удаление.
	Active bool

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewSubject создаёт новый предмет с валидацией и генерацией кода.
func NewSubject(id, name, disciplineID string, now time.Time) (*Subject, error) {
	name = strings.TrimSpace(name)
	if id == "" {
		return nil, shared.NewDomainError("taxonomy", "NewSubject", shared.ErrInvalidInput, "subject id is required")
	}
	if name == "" {
		return nil, shared.NewDomainError("taxonomy", "NewSubject", shared.ErrInvalidInput, "subject name is required")
	}
	if disciplineID == "" {
		return nil, shared.NewDomainError("taxonomy", "NewSubject", shared.ErrInvalidReference, "discipline id is required")
	}

	code, err := shortcode.Generate(name)
	if err != nil {
		return nil, shared.WrapError("taxonomy", "NewSubject", shared.ErrInvalidInput, "cannot derive code from name", err)
	}

	return &Subject{
		ID:           id,
		Name:         name,
		Code:         code,
		DisciplineID: disciplineID,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Deactivate мягко удаляет предмет.
func (s *Subject) Deactivate(now time.Time) {
	s.Active = false
	s.UpdatedAt = now
}
