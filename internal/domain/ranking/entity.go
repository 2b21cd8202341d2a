// Package ranking computes the weekly performance ranking: which students
// answered questions best across the goals they completed within a week.
package ranking

import (
	"sort"
	"time"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEK
// ══════════════════════════════════════════════════════════════════════════════

// Week is a ranking window: [Start, End), Monday to Monday in São Paulo time.
type Week struct {
	Start time.Time
	End   time.Time
}

// WeekOf normalizes an arbitrary instant to its ranking week.
func WeekOf(t time.Time) Week {
	return Week{Start: timeutil.StartOfWeek(t), End: timeutil.EndOfWeek(t)}
}

// CurrentWeek returns the week containing now.
func CurrentWeek() Week {
	return WeekOf(timeutil.Now())
}

// Key returns a stable identifier for the week, used as a cache key suffix.
func (w Week) Key() string {
	return w.Start.Format("2006-01-02")
}

// Contains reports whether the instant falls inside the window.
func (w Week) Contains(t time.Time) bool {
	spt := timeutil.ToSaoPaulo(t)
	return !spt.Before(w.Start) && spt.Before(w.End)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRIES
// ══════════════════════════════════════════════════════════════════════════════

// StudentTotals is the raw aggregate the storage layer produces per student:
// sums over goals completed inside the week that carried at least one question.
type StudentTotals struct {
	StudentID      string
	TotalQuestions int
	TotalCorrect   int
}

// Entry is one ranked row of the weekly ranking.
type Entry struct {
	// Position - 1-based rank after ordering.
	Position int `json:"position"`

	StudentID string `json:"student_id"`

	// TotalQuestions / TotalCorrect - sums over the student's graded
	// completions inside the week.
	TotalQuestions int `json:"total_questions"`
	TotalCorrect   int `json:"total_correct"`

	// PercentCorrect - TotalCorrect over TotalQuestions, two decimals.
	PercentCorrect shared.Percent `json:"percent_correct"`

	// Score - display points for the week: one point per correct answer.
	// Ordering is decided by PercentCorrect, not by Score.
	Score int `json:"score"`
}

// Ranking is the full ranked board for one week.
type Ranking struct {
	Week    Week    `json:"week"`
	Entries []Entry `json:"entries"`
}

// Build orders raw totals into a ranking. Students without graded completions
// (zero questions) are excluded. Ordering: percent correct descending, then
// question volume descending, then student id ascending so equal results
// always land in the same order.
func Build(week Week, totals []StudentTotals) *Ranking {
	entries := make([]Entry, 0, len(totals))
	for _, t := range totals {
		if t.TotalQuestions <= 0 {
			continue
		}
		entries = append(entries, Entry{
			StudentID:      t.StudentID,
			TotalQuestions: t.TotalQuestions,
			TotalCorrect:   t.TotalCorrect,
			PercentCorrect: shared.PercentOf(t.TotalCorrect, t.TotalQuestions),
			Score:          t.TotalCorrect,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PercentCorrect != entries[j].PercentCorrect {
			return entries[i].PercentCorrect > entries[j].PercentCorrect
		}
		if entries[i].TotalQuestions != entries[j].TotalQuestions {
			return entries[i].TotalQuestions > entries[j].TotalQuestions
		}
		return entries[i].StudentID < entries[j].StudentID
	})

	for i := range entries {
		entries[i].Position = i + 1
	}

	return &Ranking{Week: week, Entries: entries}
}
