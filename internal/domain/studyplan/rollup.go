package studyplan

import "github.com/studyforge/studyforge-backend/internal/domain/shared"

// ══════════════════════════════════════════════════════════════════════════════
// ROLLUPS
// Агрегаты считаются по требованию из целей под спринтом/планом и нигде
// не хранятся избыточно. Чистые функции поверх срезов целей.
// ══════════════════════════════════════════════════════════════════════════════

// Progress возвращает долю завершённых целей в процентах.
// Пустой срез даёт 0, не NaN.
func Progress(goals []*StudentGoal) shared.Percent {
	if len(goals) == 0 {
		return 0
	}

	completed := 0
	for _, g := range goals {
		if g.IsCompleted() {
			completed++
		}
	}
	return shared.PercentOf(completed, len(goals))
}

// Performance возвращает среднюю точность по завершённым целям с вопросами.
// Цели без вопросов (теория, повторение) исключаются из среднего, чтобы не
// занижать измеренную точность. Если измеримых целей нет, возвращается nil -
// "нет данных", а не ноль.
func Performance(goals []*StudentGoal) *shared.Percent {
	var sum float64
	var count int

	for _, g := range goals {
		if g.IsCompleted() && g.IsGraded() {
			sum += g.PerformancePercent.Float64()
			count++
		}
	}

	if count == 0 {
		return nil
	}

	avg := shared.NewPercent(sum / float64(count))
	return &avg
}

// AllCompleted возвращает true, когда каждая цель завершена.
// Пустой срез считается завершённым: спринт без целей не блокирует переход.
func AllCompleted(goals []*StudentGoal) bool {
	for _, g := range goals {
		if !g.IsCompleted() {
			return false
		}
	}
	return true
}
