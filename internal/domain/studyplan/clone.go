package studyplan

import (
	"time"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATE → INSTANCE CLONE
// Явный обход мастер-дерева, порождающий плоский список вставок. Репозиторий
// выполняет их одной транзакцией: либо всё дерево создано, либо ничего.
// Никаких рекурсивных ORM-каскадов - порядок и атомарность видны явно.
// ══════════════════════════════════════════════════════════════════════════════

// SprintGoals связывает спринт со своими целями внутри дерева.
type SprintGoals struct {
	Sprint *StudentSprint
	Goals  []*StudentGoal
}

// Tree - полностью построенное дерево инстанса до записи в хранилище.
type Tree struct {
	Plan    *StudentPlan
	Sprints []SprintGoals

	// Pointer - указатель на спринт с позицией 1.
	// nil, если у мастер-плана не было спринтов (валидно, не ошибка).
	Pointer *CurrentSprintPointer
}

// GoalCount возвращает суммарное количество целей в дереве.
func (t *Tree) GoalCount() int {
	total := 0
	for _, sg := range t.Sprints {
		total += len(sg.Goals)
	}
	return total
}

// Clone строит дерево инстанса из мастер-дерева. Чистая функция: все ID
// поставляет newID, время - аргумент now. Мастер-записи не изменяются.
//
// Каждый спринт сохраняет позицию мастера; окна спринтов разворачиваются
// в конкретные даты от startDate. Все цели создаются в статусе Pending
// с обнулёнными счётчиками.
func Clone(tmpl *template.PlanTree, studentID string, startDate time.Time, newID func() string, now time.Time) (*Tree, error) {
	if tmpl == nil || tmpl.Plan == nil {
		return nil, shared.NewDomainError("studyplan", "Clone", shared.ErrInvalidInput, "template tree is required")
	}
	if studentID == "" {
		return nil, shared.NewDomainError("studyplan", "Clone", shared.ErrInvalidInput, "student id is required")
	}
	if !tmpl.Plan.Active {
		return nil, shared.NewDomainError("studyplan", "Clone", shared.ErrMasterPlanInactive, "master plan version is superseded")
	}

	plan := &StudentPlan{
		ID:           newID(),
		StudentID:    studentID,
		MasterPlanID: tmpl.Plan.ID,
		Name:         tmpl.Plan.Name,
		Role:         tmpl.Plan.Role,
		Description:  tmpl.Plan.Description,
		StartDate:    startDate,
		Status:       PlanStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tree := &Tree{Plan: plan}

	for _, node := range tmpl.Sprints {
		sprintStart, sprintEnd := node.Sprint.Window.Resolve(startDate)
		sprint := &StudentSprint{
			ID:             newID(),
			StudentPlanID:  plan.ID,
			MasterSprintID: node.Sprint.ID,
			Position:       node.Sprint.Position,
			Name:           node.Sprint.Name,
			StartDate:      sprintStart,
			EndDate:        sprintEnd,
		}

		goals := make([]*StudentGoal, 0, len(node.Goals))
		for _, mg := range node.Goals {
			goals = append(goals, &StudentGoal{
				ID:              newID(),
				StudentSprintID: sprint.ID,
				DisciplineID:    mg.DisciplineID,
				SubjectID:       mg.SubjectID,
				Type:            mg.Type,
				Instructions:    mg.Instructions,
				ExternalLink:    mg.ExternalLink,
				Relevance:       mg.Relevance,
				Status:          GoalStatusPending,
				UpdatedAt:       now,
			})
		}

		tree.Sprints = append(tree.Sprints, SprintGoals{Sprint: sprint, Goals: goals})
	}

	// Указатель встаёт на первый спринт (наименьшая позиция; обычно 1).
	if first := firstSprint(tree.Sprints); first != nil {
		tree.Pointer = &CurrentSprintPointer{
			StudentID:       studentID,
			StudentSprintID: first.ID,
			UpdatedAt:       now,
		}
	}

	// План без спринтов - валидное дерево с пустым указателем.
	return tree, nil
}

func firstSprint(sprints []SprintGoals) *StudentSprint {
	var first *StudentSprint
	for _, sg := range sprints {
		if first == nil || sg.Sprint.Position < first.Position {
			first = sg.Sprint
		}
	}
	return first
}
