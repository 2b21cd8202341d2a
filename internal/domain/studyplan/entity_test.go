package studyplan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newPendingGoal() *StudentGoal {
	return &StudentGoal{
		ID:              "g1",
		StudentSprintID: "s1",
		DisciplineID:    "d1",
		SubjectID:       "sub1",
		Type:            template.GoalTypeExercises,
		Relevance:       2,
		Status:          GoalStatusPending,
	}
}

func TestRecordProgress_PendingToInProgress(t *testing.T) {
	g := newPendingGoal()

	err := g.RecordProgress(30, 0, 0, false, testNow)
	require.NoError(t, err)

	assert.Equal(t, GoalStatusInProgress, g.Status)
	assert.Equal(t, 30, g.StudyMinutes)
	assert.Nil(t, g.CompletedAt)
}

func TestRecordProgress_ZeroProgressKeepsPending(t *testing.T) {
	g := newPendingGoal()

	err := g.RecordProgress(0, 0, 0, false, testNow)
	require.NoError(t, err)
	assert.Equal(t, GoalStatusPending, g.Status)
}

func TestRecordProgress_Performance(t *testing.T) {
	g := newPendingGoal()

	err := g.RecordProgress(60, 10, 8, true, testNow)
	require.NoError(t, err)

	assert.Equal(t, GoalStatusCompleted, g.Status)
	assert.Equal(t, shared.Percent(80), g.PerformancePercent)
	require.NotNil(t, g.CompletedAt)
	assert.Equal(t, testNow, *g.CompletedAt)
}

func TestRecordProgress_PerformanceRounding(t *testing.T) {
	g := newPendingGoal()

	err := g.RecordProgress(0, 3, 2, false, testNow)
	require.NoError(t, err)
	assert.Equal(t, shared.Percent(66.67), g.PerformancePercent)
}

func TestRecordProgress_ZeroQuestionsZeroPerformance(t *testing.T) {
	g := newPendingGoal()

	err := g.RecordProgress(45, 0, 0, true, testNow)
	require.NoError(t, err)
	assert.Equal(t, shared.Percent(0), g.PerformancePercent)
	assert.False(t, g.IsGraded())
	assert.True(t, g.IsCompleted())
}

func TestRecordProgress_InvalidRanges(t *testing.T) {
	cases := []struct {
		name                    string
		minutes, total, correct int
	}{
		{"correct exceeds total", 0, 5, 6},
		{"negative minutes", -1, 0, 0},
		{"negative total", 0, -1, 0},
		{"negative correct", 0, 5, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newPendingGoal()
			err := g.RecordProgress(tc.minutes, tc.total, tc.correct, false, testNow)
			assert.ErrorIs(t, err, shared.ErrInvalidRange)
			// No silent coercion: the goal is untouched on failure.
			assert.Equal(t, GoalStatusPending, g.Status)
			assert.Zero(t, g.TotalQuestions)
		})
	}
}

func TestRecordProgress_CompletedStaysCompleted(t *testing.T) {
	g := newPendingGoal()
	require.NoError(t, g.RecordProgress(10, 10, 7, true, testNow))

	// A later non-completing update never demotes the status.
	err := g.RecordProgress(20, 10, 9, false, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, GoalStatusCompleted, g.Status)
	assert.Equal(t, shared.Percent(90), g.PerformancePercent)
}

func TestReopen(t *testing.T) {
	g := newPendingGoal()
	require.NoError(t, g.RecordProgress(10, 10, 7, true, testNow))

	err := g.Reopen(testNow.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, GoalStatusPending, g.Status)
	assert.Nil(t, g.CompletedAt)
	// Counters survive the reopen.
	assert.Equal(t, 10, g.TotalQuestions)
}

func TestReopen_OnlyFromCompleted(t *testing.T) {
	g := newPendingGoal()
	assert.ErrorIs(t, g.Reopen(testNow), shared.ErrInvalidInput)

	require.NoError(t, g.RecordProgress(5, 0, 0, false, testNow))
	assert.ErrorIs(t, g.Reopen(testNow), shared.ErrInvalidInput)
}

func TestPlanFinish(t *testing.T) {
	p := &StudentPlan{ID: "p1", StudentID: "st1", Status: PlanStatusActive}
	p.Finish(testNow)
	assert.True(t, p.IsFinished())
	assert.Equal(t, testNow, p.UpdatedAt)
}
