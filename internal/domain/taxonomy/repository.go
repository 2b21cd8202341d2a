package taxonomy

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// DisciplineRepository определяет операции хранения дисциплин.
type DisciplineRepository interface {
	// Create создаёт новую дисциплину.
	// Возвращает Conflict, если имя или код уже заняты.
	Create(ctx context.Context, d *Discipline) error

	// GetByID возвращает дисциплину по ID.
	// Возвращает NotFound, если дисциплина не найдена.
	GetByID(ctx context.Context, id string) (*Discipline, error)

	// GetByName возвращает дисциплину по точному имени.
	// Возвращает NotFound, если дисциплина не найдена.
	GetByName(ctx context.Context, name string) (*Discipline, error)

	// ListActive возвращает активные дисциплины, отсортированные по имени.
	ListActive(ctx context.Context) ([]*Discipline, error)

	// ListAll возвращает все дисциплины, отсортированные по ID.
	// Используется backfill-проходом.
	ListAll(ctx context.Context) ([]*Discipline, error)

	// Update обновляет дисциплину.
	// Возвращает NotFound, если дисциплина не найдена.
	Update(ctx context.Context, d *Discipline) error

	// AssignCodes атомарно присваивает коды по плану backfill
	// (ID строки -> код). Либо все присвоения применяются, либо ни одно.
	AssignCodes(ctx context.Context, codes map[string]string) error
}

// SubjectRepository определяет операции хранения предметов.
type SubjectRepository interface {
	// Create создаёт новый предмет.
	// Возвращает Conflict при дубликате имени или кода,
	// InvalidReference - если дисциплина не существует.
	Create(ctx context.Context, s *Subject) error

	// GetByID возвращает предмет по ID.
	// Возвращает NotFound, если предмет не найден.
	GetByID(ctx context.Context, id string) (*Subject, error)

	// GetByName возвращает предмет по точному имени.
	GetByName(ctx context.Context, name string) (*Subject, error)

	// ListActive возвращает активные предметы, отсортированные по имени.
	ListActive(ctx context.Context) ([]*Subject, error)

	// ListByDiscipline возвращает предметы дисциплины.
	ListByDiscipline(ctx context.Context, disciplineID string) ([]*Subject, error)

	// ListAll возвращает все предметы, отсортированные по ID.
	ListAll(ctx context.Context) ([]*Subject, error)

	// Update обновляет предмет.
	Update(ctx context.Context, s *Subject) error

	// AssignCodes атомарно присваивает коды по плану backfill.
	AssignCodes(ctx context.Context, codes map[string]string) error
}
