// Package studyplan содержит инстанс-уровень планов обучения: личные планы,
// спринты и цели студента, склонированные из мастер-шаблона. В отличие от
// мастер-записей, эти сущности изменяются по мере прогресса студента.
package studyplan

import (
	"time"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// GoalStatus определяет состояние цели студента.
// Переходы монотонны: Pending → InProgress → Completed.
// Completed → Pending возможен только явным Reopen, никогда как побочный эффект.
type GoalStatus string

const (
	// GoalStatusPending - цель ещё не начата.
	GoalStatusPending GoalStatus = "pending"
	// GoalStatusInProgress - по цели есть прогресс.
	GoalStatusInProgress GoalStatus = "in_progress"
	// GoalStatusCompleted - цель завершена.
	GoalStatusCompleted GoalStatus = "completed"
)

// IsValid проверяет, что статус корректен.
func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalStatusPending, GoalStatusInProgress, GoalStatusCompleted:
		return true
	default:
		return false
	}
}

// PlanStatus определяет состояние плана студента.
type PlanStatus string

const (
	// PlanStatusActive - студент работает по плану.
	PlanStatusActive PlanStatus = "active"
	// PlanStatusFinished - все спринты пройдены; терминальное состояние.
	PlanStatusFinished PlanStatus = "finished"
)

// IsValid проверяет, что статус корректен.
func (s PlanStatus) IsValid() bool {
	return s == PlanStatusActive || s == PlanStatusFinished
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT PLAN
// ══════════════════════════════════════════════════════════════════════════════

// StudentPlan - личный план студента. Обычно клонируется из мастер-плана,
// но MasterPlanID может быть пустым для планов, собранных вручную.
type StudentPlan struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// StudentID - владелец плана.
	StudentID string

	// MasterPlanID - исходный мастер-план (пусто = ручной план).
	MasterPlanID string

	// Name, Role, Description - скопированы из мастера при клонировании.
	Name        string
	Role        string
	Description string

	// StartDate - дата начала, от которой считаются окна спринтов.
	StartDate time.Time

	// Status - active или finished.
	Status PlanStatus

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// Finish помечает план завершённым. Терминальное состояние, не ошибка.
func (p *StudentPlan) Finish(now time.Time) {
	p.Status = PlanStatusFinished
	p.UpdatedAt = now
}

// IsFinished возвращает true для завершённого плана.
func (p *StudentPlan) IsFinished() bool {
	return p.Status == PlanStatusFinished
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT SPRINT
// ══════════════════════════════════════════════════════════════════════════════

// StudentSprint - спринт внутри личного плана. Позиция уникальна в плане.
type StudentSprint struct {
	// ID - внутренний уникальный идентификатор.
	ID string

	// StudentPlanID - владеющий план.
	StudentPlanID string

	// MasterSprintID - обратная ссылка на мастер-спринт (пусто = ручной).
	MasterSprintID string

	// Position - порядковый номер, 1-based.
	Position int

	// Name - название спринта.
	Name string

	// StartDate, EndDate - конкретные даты, вычисленные из окна мастера
	// и даты начала плана.
	StartDate time.Time
	EndDate   time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT GOAL
// ══════════════════════════════════════════════════════════════════════════════

// StudentGoal - цель студента с прогрессом и измеренной успеваемостью.
type StudentGoal struct {
	// ID - внутренний уникальный идентификатор.
	ID string

	// StudentSprintID - владеющий спринт.
	StudentSprintID string

	// DisciplineID, SubjectID - таксономия, скопированная из мастер-цели.
	DisciplineID string
	SubjectID    string

	// Type - тип работы.
	Type template.GoalType

	// Instructions, ExternalLink - скопированы из мастера.
	Instructions string
	ExternalLink string

	// Relevance - важность (1-3).
	Relevance int

	// Status - состояние цели.
	Status GoalStatus

	// StudyMinutes - затраченное время, минуты.
	StudyMinutes int

	// TotalQuestions, CorrectQuestions - решённые вопросы.
	// Инвариант: 0 ≤ CorrectQuestions ≤ TotalQuestions.
	TotalQuestions   int
	CorrectQuestions int

	// PerformancePercent - точность в процентах, два знака после запятой.
	// 0, когда вопросов нет.
	PerformancePercent shared.Percent

	// CompletedAt - время завершения, nil пока цель не завершена.
	CompletedAt *time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// IsCompleted возвращает true для завершённой цели.
func (g *StudentGoal) IsCompleted() bool {
	return g.Status == GoalStatusCompleted
}

// IsGraded возвращает true, если по цели есть измеримые вопросы.
// Теоретические цели без вопросов не участвуют в среднем по успеваемости.
func (g *StudentGoal) IsGraded() bool {
	return g.TotalQuestions > 0
}

// RecordProgress записывает прогресс по цели.
//
// Значения заменяют предыдущие (не накапливаются). Валидация границ строгая:
// отрицательные значения и correct > total отклоняются без подрезки.
// При markCompleted цель завершается; иначе Pending-цель с ненулевым
// прогрессом переходит в InProgress, остальные статусы не меняются.
func (g *StudentGoal) RecordProgress(studyMinutes, totalQuestions, correctQuestions int, markCompleted bool, now time.Time) error {
	if studyMinutes < 0 {
		return shared.NewDomainError("studyplan", "RecordProgress", shared.ErrInvalidRange, "study minutes cannot be negative")
	}
	if totalQuestions < 0 || correctQuestions < 0 {
		return shared.NewDomainError("studyplan", "RecordProgress", shared.ErrInvalidRange, "question counts cannot be negative")
	}
	if correctQuestions > totalQuestions {
		return shared.NewDomainError("studyplan", "RecordProgress", shared.ErrInvalidRange, "correct questions exceed total questions")
	}

	g.StudyMinutes = studyMinutes
	g.TotalQuestions = totalQuestions
	g.CorrectQuestions = correctQuestions
	g.PerformancePercent = shared.PercentOf(correctQuestions, totalQuestions)

	switch {
	case markCompleted:
		g.Status = GoalStatusCompleted
		completedAt := now
		g.CompletedAt = &completedAt
	case g.Status == GoalStatusPending && (studyMinutes > 0 || totalQuestions > 0):
		g.Status = GoalStatusInProgress
	}

	g.UpdatedAt = now
	return nil
}

// Reopen возвращает завершённую цель в Pending. Единственный разрешённый
// способ отката; счётчики прогресса сохраняются, отметка завершения сбрасывается.
func (g *StudentGoal) Reopen(now time.Time) error {
	if g.Status != GoalStatusCompleted {
		return shared.NewDomainError("studyplan", "Reopen", shared.ErrInvalidInput, "only completed goals can be reopened")
	}

	g.Status = GoalStatusPending
	g.CompletedAt = nil
	g.UpdatedAt = now
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CURRENT SPRINT POINTER
// ══════════════════════════════════════════════════════════════════════════════

// CurrentSprintPointer - единственный изменяемый указатель на активный спринт
// студента. Продвигается только явным переходом, никогда неявно.
// Моделируется как принадлежащий агрегату плана, а не как глобальное состояние:
// все чтения и записи идут через транзакционную границу трекера прогресса.
type CurrentSprintPointer struct {
	// StudentID - владелец указателя.
	StudentID string

	// StudentSprintID - активный спринт.
	StudentSprintID string

	// UpdatedAt - время последнего перехода.
	UpdatedAt time.Time
}
