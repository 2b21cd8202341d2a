package taxonomy

import (
	"fmt"
	"strings"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/pkg/shortcode"
)

// ══════════════════════════════════════════════════════════════════════════════
// CODE BACKFILL
// Однократная операция для легаси-строк без кодов: перед тем как колонка
// станет NOT NULL/UNIQUE, каждой строке нужно присвоить код и убедиться,
// что коллизий нет. Коллизия отменяет весь проход целиком.
// ══════════════════════════════════════════════════════════════════════════════

// BackfillRow - строка, участвующая в проходе backfill.
type BackfillRow struct {
	// ID - идентификатор строки.
	ID string

	// Name - название, из которого генерируется код.
	Name string

	// Code - уже присвоенный код (пустая строка = код отсутствует).
	Code string
}

// BackfillPlan - результат планирования: какие строки получат какие коды.
type BackfillPlan struct {
	// Assignments - ID строки -> новый код. Пусто, если все строки уже с кодами.
	Assignments map[string]string

	// AlreadyCoded - количество строк, пропущенных как уже имеющие код.
	AlreadyCoded int
}

// IsNoop возвращает true, если проход ничего не меняет.
func (p *BackfillPlan) IsNoop() bool {
	return len(p.Assignments) == 0
}

// PlanCodeBackfill вычисляет коды для всех строк без кода, в порядке следования
// rows (вызывающая сторона обязана отсортировать по id). Если новый код
// совпадает с уже присвоенным или с другим новым кодом в этом же проходе,
// операция отменяется целиком и возвращается Conflict со списком виновников -
// молчаливого усечения не бывает.
//
// Повторный запуск по полностью закодированной таблице - no-op без ошибки.
func PlanCodeBackfill(rows []BackfillRow) (*BackfillPlan, error) {
	plan := &BackfillPlan{Assignments: make(map[string]string)}

	taken := make(map[string]string, len(rows)) // code -> row ID
	for _, row := range rows {
		if row.Code != "" {
			taken[row.Code] = row.ID
		}
	}

	var collisions []string
	for _, row := range rows {
		if row.Code != "" {
			plan.AlreadyCoded++
			continue
		}

		code, err := shortcode.Generate(row.Name)
		if err != nil {
			return nil, shared.WrapError("taxonomy", "PlanCodeBackfill", shared.ErrInvalidInput,
				fmt.Sprintf("row %s has no derivable code", row.ID), err)
		}

		if ownerID, exists := taken[code]; exists {
			collisions = append(collisions, fmt.Sprintf("%s (%q) collides with %s on %s", row.ID, row.Name, ownerID, code))
			continue
		}

		taken[code] = row.ID
		plan.Assignments[row.ID] = code
	}

	if len(collisions) > 0 {
		return nil, shared.NewDomainError("taxonomy", "PlanCodeBackfill", shared.ErrConflict,
			"code collisions, backfill aborted: "+strings.Join(collisions, "; "))
	}

	return plan, nil
}
