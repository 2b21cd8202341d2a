package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/ranking"
	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
)

func seedInstance(t *testing.T, env *testEnv, studentID string) []*studyplan.StudentGoal {
	t.Helper()
	ctx := context.Background()

	master := env.seedTemplate(t, "Plano "+studentID, 2)
	res, err := env.instantiate.Handle(ctx, InstantiatePlanCommand{MasterPlanID: master.ID, StudentID: studentID})
	require.NoError(t, err)

	goals, err := env.plans.ListGoalsByPlan(ctx, res.Plan.ID)
	require.NoError(t, err)
	return goals
}

func TestRecordProgress_UpdatesGoal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	goals := seedInstance(t, env, "student-1")

	res, err := env.recordProgress.Handle(ctx, RecordProgressCommand{
		GoalID:           goals[0].ID,
		StudentID:        "student-1",
		StudyMinutes:     90,
		TotalQuestions:   20,
		CorrectQuestions: 17,
	})
	require.NoError(t, err)

	assert.Equal(t, studyplan.GoalStatusInProgress, res.Goal.Status)
	assert.Equal(t, shared.Percent(85), res.Goal.PerformancePercent)

	stored, err := env.plans.GetGoal(ctx, goals[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 90, stored.StudyMinutes)
	assert.Equal(t, 17, stored.CorrectQuestions)
}

func TestRecordProgress_MarkCompleted(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	goals := seedInstance(t, env, "student-1")

	res, err := env.recordProgress.Handle(ctx, RecordProgressCommand{
		GoalID:           goals[0].ID,
		StudentID:        "student-1",
		TotalQuestions:   10,
		CorrectQuestions: 10,
		MarkCompleted:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, studyplan.GoalStatusCompleted, res.Goal.Status)
	require.NotNil(t, res.Goal.CompletedAt)
}

func TestRecordProgress_InvalidRangeRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	goals := seedInstance(t, env, "student-1")

	_, err := env.recordProgress.Handle(ctx, RecordProgressCommand{
		GoalID:           goals[0].ID,
		StudentID:        "student-1",
		TotalQuestions:   5,
		CorrectQuestions: 7,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)

	// Rejected snapshots leave the goal untouched.
	stored, err := env.plans.GetGoal(ctx, goals[0].ID)
	require.NoError(t, err)
	assert.Equal(t, studyplan.GoalStatusPending, stored.Status)
	assert.Zero(t, stored.TotalQuestions)
}

func TestRecordProgress_ForeignGoalReadsAsNotFound(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	goals := seedInstance(t, env, "student-1")

	_, err := env.recordProgress.Handle(ctx, RecordProgressCommand{
		GoalID:         goals[0].ID,
		StudentID:      "student-2",
		TotalQuestions: 10,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// seedStaleRanking puts a board for the current week into the cache so a
// test can observe whether a command dropped it.
func seedStaleRanking(t *testing.T, env *testEnv) ranking.Week {
	t.Helper()
	week := ranking.CurrentWeek()
	stale := ranking.Build(week, []ranking.StudentTotals{
		{StudentID: "someone-else", TotalQuestions: 4, TotalCorrect: 4},
	})
	require.NoError(t, env.rankCache.SetWeek(context.Background(), stale, time.Minute))
	return week
}

func TestRecordProgress_CompletionDropsCachedRanking(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	goals := seedInstance(t, env, "student-1")
	week := seedStaleRanking(t, env)

	_, err := env.recordProgress.Handle(ctx, RecordProgressCommand{
		GoalID: goals[0].ID, StudentID: "student-1",
		TotalQuestions: 10, CorrectQuestions: 8, MarkCompleted: true,
	})
	require.NoError(t, err)

	cached, err := env.rankCache.GetWeek(ctx, week)
	require.NoError(t, err)
	assert.Nil(t, cached, "completing a graded goal must drop the week's cached board")
}

func TestRecordProgress_UngradedCompletionKeepsCachedRanking(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	goals := seedInstance(t, env, "student-1")
	week := seedStaleRanking(t, env)

	// A completion with zero questions never appears in the ranking, so the
	// cached board stays valid.
	_, err := env.recordProgress.Handle(ctx, RecordProgressCommand{
		GoalID: goals[0].ID, StudentID: "student-1",
		StudyMinutes: 30, MarkCompleted: true,
	})
	require.NoError(t, err)

	cached, err := env.rankCache.GetWeek(ctx, week)
	require.NoError(t, err)
	assert.NotNil(t, cached)
}

func TestReopenGoal_DropsCachedRanking(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	goals := seedInstance(t, env, "student-1")

	_, err := env.recordProgress.Handle(ctx, RecordProgressCommand{
		GoalID: goals[0].ID, StudentID: "student-1",
		TotalQuestions: 10, CorrectQuestions: 9, MarkCompleted: true,
	})
	require.NoError(t, err)

	week := seedStaleRanking(t, env)

	_, err = env.reopenGoal.Handle(ctx, ReopenGoalCommand{GoalID: goals[0].ID, StudentID: "student-1"})
	require.NoError(t, err)

	cached, err := env.rankCache.GetWeek(ctx, week)
	require.NoError(t, err)
	assert.Nil(t, cached, "reopening a ranked goal must drop the week's cached board")
}

func TestReopenGoal_OnlyCompleted(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	goals := seedInstance(t, env, "student-1")

	// Pending goals cannot be reopened.
	_, err := env.reopenGoal.Handle(ctx, ReopenGoalCommand{GoalID: goals[0].ID, StudentID: "student-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = env.recordProgress.Handle(ctx, RecordProgressCommand{
		GoalID: goals[0].ID, StudentID: "student-1",
		TotalQuestions: 10, CorrectQuestions: 9, MarkCompleted: true,
	})
	require.NoError(t, err)

	res, err := env.reopenGoal.Handle(ctx, ReopenGoalCommand{GoalID: goals[0].ID, StudentID: "student-1"})
	require.NoError(t, err)

	// Counters survive the reopen; the completion mark does not.
	assert.Equal(t, studyplan.GoalStatusPending, res.Goal.Status)
	assert.Equal(t, 10, res.Goal.TotalQuestions)
	assert.Nil(t, res.Goal.CompletedAt)
}
