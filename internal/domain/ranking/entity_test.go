package ranking

import (
	"testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/pkg/timeutil"
)

func TestWeekOf(t *testing.T) {
	// Friday in São Paulo normalizes back to Monday 00:00.
	friday := timeutil.Date(2026, 8, 28)
	week := WeekOf(friday)

	assert.Equal(t, timeutil.Date(2026, 8, 24), week.Start)
	assert.Equal(t, timeutil.Date(2026, 8, 31), week.End)
	assert.Equal(t, "2026-08-24", week.Key())
}

func TestWeek_Contains(t *testing.T) {
	week := WeekOf(timeutil.Date(2026, 8, 24))

	assert.True(t, week.Contains(timeutil.Date(2026, 8, 24)))
	assert.True(t, week.Contains(timeutil.Date(2026, 8, 30)))
	// The next Monday belongs to the next week: the window is half-open.
	assert.False(t, week.Contains(timeutil.Date(2026, 8, 31)))
	assert.False(t, week.Contains(timeutil.Date(2026, 8, 23)))
}

func TestBuild_OrderingAndPositions(t *testing.T) {
	week := CurrentWeek()
	totals := []StudentTotals{
		{StudentID: "carol", TotalQuestions: 50, TotalCorrect: 40}, // 80.00
		{StudentID: "alice", TotalQuestions: 20, TotalCorrect: 18}, // 90.00
		{StudentID: "bob", TotalQuestions: 40, TotalCorrect: 36},   // 90.00, more volume
	}

	r := Build(week, totals)
	require.Len(t, r.Entries, 3)

	assert.Equal(t, "bob", r.Entries[0].StudentID)
	assert.Equal(t, "alice", r.Entries[1].StudentID)
	assert.Equal(t, "carol", r.Entries[2].StudentID)

	for i, e := range r.Entries {
		assert.Equal(t, i+1, e.Position)
	}
	assert.Equal(t, shared.Percent(90), r.Entries[0].PercentCorrect)
	assert.Equal(t, shared.Percent(80), r.Entries[2].PercentCorrect)
}

func TestBuild_ScoreIsCorrectAnswers(t *testing.T) {
	week := CurrentWeek()
	totals := []StudentTotals{
		{StudentID: "alice", TotalQuestions: 20, TotalCorrect: 18},
		// Score follows correct answers, not rank: carol outscores alice
		// on points while ranking below her on percent.
		{StudentID: "carol", TotalQuestions: 50, TotalCorrect: 40},
	}

	r := Build(week, totals)
	require.Len(t, r.Entries, 2)
	assert.Equal(t, "alice", r.Entries[0].StudentID)
	assert.Equal(t, 18, r.Entries[0].Score)
	assert.Equal(t, 40, r.Entries[1].Score)
}

func TestBuild_TieBreaksByStudentID(t *testing.T) {
	week := CurrentWeek()
	totals := []StudentTotals{
		{StudentID: "zoe", TotalQuestions: 10, TotalCorrect: 9},
		{StudentID: "ana", TotalQuestions: 10, TotalCorrect: 9},
	}

	r := Build(week, totals)
	require.Len(t, r.Entries, 2)
	assert.Equal(t, "ana", r.Entries[0].StudentID)
	assert.Equal(t, "zoe", r.Entries[1].StudentID)
}

func TestBuild_ExcludesUngraded(t *testing.T) {
	week := CurrentWeek()
	totals := []StudentTotals{
		{StudentID: "alice", TotalQuestions: 10, TotalCorrect: 7},
		{StudentID: "bob", TotalQuestions: 0, TotalCorrect: 0},
	}

	r := Build(week, totals)
	require.Len(t, r.Entries, 1)
	assert.Equal(t, "alice", r.Entries[0].StudentID)
}

func TestBuild_Empty(t *testing.T) {
	r := Build(CurrentWeek(), nil)
	assert.Empty(t, r.Entries)
}
