package studyplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
)

func completedGoal(id string, total, correct int) *StudentGoal {
	g := &StudentGoal{ID: id, Status: GoalStatusPending}
	if err := g.RecordProgress(30, total, correct, true, testNow); err != nil {
		panic(err)
	}
	return g
}

func TestProgress(t *testing.T) {
	goals := []*StudentGoal{
		completedGoal("g1", 10, 8),
		completedGoal("g2", 0, 0),
		{ID: "g3", Status: GoalStatusPending},
	}

	assert.Equal(t, shared.Percent(66.67), Progress(goals))
}

func TestProgress_EmptySprint(t *testing.T) {
	assert.Equal(t, shared.Percent(0), Progress(nil))
}

func TestPerformance_GradedCompletedOnly(t *testing.T) {
	// 3 goals: completed 10/8 (80%), completed with zero questions,
	// and one pending. Only the graded completed goal counts.
	goals := []*StudentGoal{
		completedGoal("g1", 10, 8),
		completedGoal("g2", 0, 0),
		{ID: "g3", Status: GoalStatusPending},
	}

	perf := Performance(goals)
	require.NotNil(t, perf)
	assert.Equal(t, shared.Percent(80), *perf)
}

func TestPerformance_Averages(t *testing.T) {
	goals := []*StudentGoal{
		completedGoal("g1", 10, 8), // 80.00
		completedGoal("g2", 4, 3),  // 75.00
	}

	perf := Performance(goals)
	require.NotNil(t, perf)
	assert.Equal(t, shared.Percent(77.5), *perf)
}

func TestPerformance_NoData(t *testing.T) {
	// Only ungraded or unfinished goals: "no data", not zero.
	goals := []*StudentGoal{
		completedGoal("g1", 0, 0),
		{ID: "g2", Status: GoalStatusInProgress, TotalQuestions: 10, CorrectQuestions: 9},
	}

	assert.Nil(t, Performance(goals))
	assert.Nil(t, Performance(nil))
}

func TestAllCompleted(t *testing.T) {
	assert.True(t, AllCompleted(nil))
	assert.True(t, AllCompleted([]*StudentGoal{completedGoal("g1", 5, 5)}))
	assert.False(t, AllCompleted([]*StudentGoal{
		completedGoal("g1", 5, 5),
		{ID: "g2", Status: GoalStatusInProgress},
	}))
}
