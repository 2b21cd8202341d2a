package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
)

func TestInstantiatePlan_CreatesFullTree(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano TJ-SP Escrevente", 3, 2)

	res, err := env.instantiate.Handle(ctx, InstantiatePlanCommand{
		MasterPlanID: master.ID,
		StudentID:    "student-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.SprintCount)
	assert.Equal(t, 5, res.GoalCount)
	assert.Equal(t, studyplan.PlanStatusActive, res.Plan.Status)

	sprints, err := env.plans.ListSprints(ctx, res.Plan.ID)
	require.NoError(t, err)
	require.Len(t, sprints, 2)

	goals, err := env.plans.ListGoalsByPlan(ctx, res.Plan.ID)
	require.NoError(t, err)
	require.Len(t, goals, 5)
	for _, g := range goals {
		assert.Equal(t, studyplan.GoalStatusPending, g.Status)
	}

	ptr, err := env.plans.GetPointer(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, sprints[0].ID, ptr.StudentSprintID)
	assert.Equal(t, 1, sprints[0].Position)
}

func TestInstantiatePlan_InactiveVersionRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano PC-SP", 2)

	_, err := env.publishVersion.Handle(ctx, PublishNewVersionCommand{MasterPlanID: master.ID})
	require.NoError(t, err)

	// The superseded version can no longer be instantiated.
	_, err = env.instantiate.Handle(ctx, InstantiatePlanCommand{
		MasterPlanID: master.ID,
		StudentID:    "student-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrMasterPlanInactive)
}

func TestInstantiatePlan_SecondActivePlanConflicts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano TRT", 1)

	_, err := env.instantiate.Handle(ctx, InstantiatePlanCommand{MasterPlanID: master.ID, StudentID: "student-1"})
	require.NoError(t, err)

	_, err = env.instantiate.Handle(ctx, InstantiatePlanCommand{MasterPlanID: master.ID, StudentID: "student-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConflict)

	// Another student is unaffected.
	_, err = env.instantiate.Handle(ctx, InstantiatePlanCommand{MasterPlanID: master.ID, StudentID: "student-2"})
	assert.NoError(t, err)
}

func TestInstantiatePlan_FailureLeavesNoPartialTree(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano TJ-MG", 2, 2)

	// Fail the third goal insert: the whole tree must roll back.
	inserted := 0
	env.plans.SetGoalInsertHook(func(string) bool {
		inserted++
		return inserted == 3
	})

	_, err := env.instantiate.Handle(ctx, InstantiatePlanCommand{MasterPlanID: master.ID, StudentID: "student-1"})
	require.Error(t, err)

	env.plans.SetGoalInsertHook(nil)

	_, err = env.plans.GetActivePlanByStudent(ctx, "student-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = env.plans.GetPointer(ctx, "student-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// A retry succeeds cleanly.
	res, err := env.instantiate.Handle(ctx, InstantiatePlanCommand{MasterPlanID: master.ID, StudentID: "student-1"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.GoalCount)
}

func TestInstantiatePlan_EmptyTemplate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano Vazio")

	res, err := env.instantiate.Handle(ctx, InstantiatePlanCommand{MasterPlanID: master.ID, StudentID: "student-1"})
	require.NoError(t, err)
	assert.Zero(t, res.SprintCount)

	// No sprints means no pointer; that is a valid state.
	_, err = env.plans.GetPointer(ctx, "student-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
