package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
)

// completeSprintGoals marks every goal of the student's current sprint done.
func completeSprintGoals(t *testing.T, env *testEnv, studentID string) {
	t.Helper()
	ctx := context.Background()

	ptr, err := env.plans.GetPointer(ctx, studentID)
	require.NoError(t, err)
	goals, err := env.plans.ListGoalsBySprint(ctx, ptr.StudentSprintID)
	require.NoError(t, err)

	for _, g := range goals {
		_, err := env.recordProgress.Handle(ctx, RecordProgressCommand{
			GoalID:           g.ID,
			StudentID:        studentID,
			StudyMinutes:     60,
			TotalQuestions:   10,
			CorrectQuestions: 8,
			MarkCompleted:    true,
		})
		require.NoError(t, err)
	}
}

func TestAdvanceSprint_GatedOnCompletion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano TJ-SP", 2, 1)
	_, err := env.instantiate.Handle(ctx, InstantiatePlanCommand{MasterPlanID: master.ID, StudentID: "student-1"})
	require.NoError(t, err)

	// Unfinished goals block the advance.
	_, err = env.advanceSprint.Handle(ctx, AdvanceSprintCommand{StudentID: "student-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrSprintIncomplete)

	completeSprintGoals(t, env, "student-1")

	res, err := env.advanceSprint.Handle(ctx, AdvanceSprintCommand{StudentID: "student-1"})
	require.NoError(t, err)
	require.NotNil(t, res.NextSprint)
	assert.Equal(t, 2, res.NextSprint.Position)
	assert.False(t, res.PlanFinished)

	ptr, err := env.plans.GetPointer(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, res.NextSprint.ID, ptr.StudentSprintID)
}

func TestAdvanceSprint_LastSprintFinishesPlan(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano Curto", 1)
	ires, err := env.instantiate.Handle(ctx, InstantiatePlanCommand{MasterPlanID: master.ID, StudentID: "student-1"})
	require.NoError(t, err)

	completeSprintGoals(t, env, "student-1")

	res, err := env.advanceSprint.Handle(ctx, AdvanceSprintCommand{StudentID: "student-1"})
	require.NoError(t, err)
	assert.True(t, res.PlanFinished)
	assert.Nil(t, res.NextSprint)

	plan, err := env.plans.GetPlan(ctx, ires.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, studyplan.PlanStatusFinished, plan.Status)

	_, err = env.plans.GetPointer(ctx, "student-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// With the pointer gone a further advance reads as NotFound.
	_, err = env.advanceSprint.Handle(ctx, AdvanceSprintCommand{StudentID: "student-1"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAdvanceSprint_ReopenedGoalBlocksAdvance(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano Reaberto", 1, 1)
	_, err := env.instantiate.Handle(ctx, InstantiatePlanCommand{MasterPlanID: master.ID, StudentID: "student-1"})
	require.NoError(t, err)

	completeSprintGoals(t, env, "student-1")

	ptr, err := env.plans.GetPointer(ctx, "student-1")
	require.NoError(t, err)
	goals, err := env.plans.ListGoalsBySprint(ctx, ptr.StudentSprintID)
	require.NoError(t, err)

	_, err = env.reopenGoal.Handle(ctx, ReopenGoalCommand{GoalID: goals[0].ID, StudentID: "student-1"})
	require.NoError(t, err)

	_, err = env.advanceSprint.Handle(ctx, AdvanceSprintCommand{StudentID: "student-1"})
	assert.ErrorIs(t, err, shared.ErrSprintIncomplete)
}

func TestAdvanceSprint_SkipsPositionGaps(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	discipline, subject := env.seedTaxonomy(t, "Direito", "Constitucional")
	pres, err := env.createPlan.Handle(ctx, CreateMasterPlanCommand{
		Name:           "Plano com Lacunas",
		DurationMonths: 3,
	})
	require.NoError(t, err)

	// Positions 1 and 3: the advance lands on 3, not an error.
	for _, pos := range []int{1, 3} {
		sres, err := env.addSprint.Handle(ctx, AddMasterSprintCommand{
			MasterPlanID: pres.Plan.ID, Name: "Sprint", Position: pos,
			StartOffsetDays: 0, EndOffsetDays: 6,
		})
		require.NoError(t, err)
		_, err = env.addGoal.Handle(ctx, AddMasterGoalCommand{
			MasterSprintID: sres.Sprint.ID, DisciplineID: discipline.ID, SubjectID: subject.ID,
			Type: "theory", Relevance: 1,
		})
		require.NoError(t, err)
	}

	_, err = env.instantiate.Handle(ctx, InstantiatePlanCommand{MasterPlanID: pres.Plan.ID, StudentID: "student-1"})
	require.NoError(t, err)

	completeSprintGoals(t, env, "student-1")

	res, err := env.advanceSprint.Handle(ctx, AdvanceSprintCommand{StudentID: "student-1"})
	require.NoError(t, err)
	require.NotNil(t, res.NextSprint)
	assert.Equal(t, 3, res.NextSprint.Position)
}
