package studyplan

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Реализации находятся в infrastructure/persistence. Транзакционная граница
// выражена методом InTx: команды трекера прогресса выполняются внутри него
// с блокировкой строки плана, чтобы два конкурентных завершения не решали
// одновременно, "все ли цели закрыты".
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения инстанс-уровня.
type Repository interface {
	// InTx выполняет fn в одной транзакции; реализация передаёт в fn
	// привязанный к транзакции репозиторий. Ошибка из fn откатывает всё.
	InTx(ctx context.Context, fn func(tx Repository) error) error

	// LockStudentPlan захватывает блокировку планов студента до конца
	// транзакции. Вне InTx - no-op либо ошибка, по усмотрению реализации.
	LockStudentPlan(ctx context.Context, studentID string) error

	// CreateTree атомарно создаёт всё дерево: план, спринты, цели
	// и указатель. Частично созданных деревьев не бывает.
	CreateTree(ctx context.Context, tree *Tree) error

	// GetPlan возвращает план по ID.
	// Возвращает NotFound, если план не найден.
	GetPlan(ctx context.Context, id string) (*StudentPlan, error)

	// GetActivePlanByStudent возвращает активный план студента.
	// Трекер прогресса предполагает не более одного активного плана.
	GetActivePlanByStudent(ctx context.Context, studentID string) (*StudentPlan, error)

	// UpdatePlan сохраняет изменения плана.
	UpdatePlan(ctx context.Context, p *StudentPlan) error

	// DeletePlan удаляет план каскадно вместе со спринтами и целями.
	DeletePlan(ctx context.Context, id string) error

	// GetSprint возвращает спринт по ID.
	GetSprint(ctx context.Context, id string) (*StudentSprint, error)

	// ListSprints возвращает спринты плана по возрастанию позиции.
	ListSprints(ctx context.Context, planID string) ([]*StudentSprint, error)

	// GetGoal возвращает цель по ID.
	GetGoal(ctx context.Context, id string) (*StudentGoal, error)

	// ListGoalsBySprint возвращает цели спринта.
	ListGoalsBySprint(ctx context.Context, sprintID string) ([]*StudentGoal, error)

	// ListGoalsByPlan возвращает все цели плана.
	ListGoalsByPlan(ctx context.Context, planID string) ([]*StudentGoal, error)

	// UpdateGoal сохраняет изменения цели.
	UpdateGoal(ctx context.Context, g *StudentGoal) error

	// GetPointer возвращает указатель текущего спринта студента.
	// Возвращает NotFound, если указателя нет (план завершён или без спринтов).
	GetPointer(ctx context.Context, studentID string) (*CurrentSprintPointer, error)

	// SetPointer создаёт или передвигает указатель.
	SetPointer(ctx context.Context, ptr *CurrentSprintPointer) error

	// ClearPointer удаляет указатель студента.
	ClearPointer(ctx context.Context, studentID string) error
}
